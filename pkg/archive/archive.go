// Package archive bundles downloaded images into a single zip.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"civsync/pkg/errors"
	"civsync/pkg/logger"
)

// Create writes a deflate-compressed zip at zipPath containing the named
// files from sourceDir under their base filenames, flattening any directory
// structure. Files that do not exist are skipped silently - a "new" item
// whose download failed simply never makes it into the archive. Returns the
// number of files actually archived.
//
// On failure the partially written zip is removed and sources are left
// untouched; callers must not clean up sources unless Create succeeded.
func Create(zipPath, sourceDir string, filenames []string, log logger.Logger) (int, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	out, err := os.Create(zipPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrArchiveFailed, err)
	}

	zw := zip.NewWriter(out)
	added := 0

	for _, filename := range filenames {
		path := filepath.Join(sourceDir, filename)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			log.DebugWithFields("skipping absent file", map[string]interface{}{
				"file": filename,
			})
			continue
		}

		if err := addFile(zw, path, filepath.Base(filename)); err != nil {
			zw.Close()
			out.Close()
			os.Remove(zipPath)
			return 0, fmt.Errorf("%w: %s: %v", errors.ErrArchiveFailed, filename, err)
		}
		added++
	}

	if err := zw.Close(); err != nil {
		out.Close()
		os.Remove(zipPath)
		return 0, fmt.Errorf("%w: %v", errors.ErrArchiveFailed, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(zipPath)
		return 0, fmt.Errorf("%w: %v", errors.ErrArchiveFailed, err)
	}

	log.InfoWithFields("archive created", map[string]interface{}{
		"path":  zipPath,
		"files": added,
	})

	return added, nil
}

func addFile(zw *zip.Writer, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := zw.Create(name)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, src)
	return err
}

// RemoveSources deletes the named files from sourceDir and removes the
// directory itself if that leaves it empty. Call only after Create has
// succeeded.
func RemoveSources(sourceDir string, filenames []string) error {
	for _, filename := range filenames {
		path := filepath.Join(sourceDir, filename)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", filename, err)
		}
	}

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to read source directory: %w", err)
	}
	if len(entries) == 0 {
		if err := os.Remove(sourceDir); err != nil {
			return fmt.Errorf("failed to remove source directory: %w", err)
		}
	}

	return nil
}
