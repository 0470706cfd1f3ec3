package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"civsync/pkg/civitai"
	"civsync/pkg/errors"
	"civsync/pkg/logger"
)

// Manifest maps an image identifier to the record as last observed. It is
// the ground truth for incremental sync: loaded once at the start of a run,
// replaced wholesale with the current pass's full set at the end of a
// successful run. Identifiers are unique; the JSON object representation
// enforces that structurally.
type Manifest map[string]civitai.ImageRecord

// FromRecords builds a manifest from a collected record set
func FromRecords(records []civitai.ImageRecord) Manifest {
	m := make(Manifest, len(records))
	for _, r := range records {
		m[r.Key()] = r
	}
	return m
}

// Has reports whether an identifier is present
func (m Manifest) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// Store persists a manifest as a JSON document at a fixed path
type Store struct {
	path   string
	logger logger.Logger
}

// NewStore creates a manifest store for the given file path
func NewStore(path string, log logger.Logger) *Store {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Store{path: path, logger: log}
}

// DefaultPath returns the conventional manifest location for a creator
func DefaultPath(outputDir, username string) string {
	return filepath.Join(outputDir, fmt.Sprintf("%s_manifest.json", username))
}

// Path returns the manifest file path
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether a manifest file is present on disk
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// ModTime returns the manifest file's last modification time, or the zero
// time when no manifest exists
func (s *Store) ModTime() time.Time {
	info, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// Load reads the persisted manifest. A missing file is the first-run state
// and yields an empty manifest. A file that exists but cannot be decoded is
// fatal: silently treating it as empty would trigger a mass re-download that
// masks real corruption.
func (s *Store) Load() (Manifest, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.InfoWithFields("no manifest found, treating as first run", map[string]interface{}{
				"path": s.path,
			})
			return Manifest{}, nil
		}
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	var m Manifest
	if err := json.NewDecoder(file).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrManifestCorrupt, s.path, err)
	}

	s.logger.InfoWithFields("manifest loaded", map[string]interface{}{
		"path":  s.path,
		"items": len(m),
	})

	return m, nil
}

// Save writes the full manifest, replacing any previous content. The write
// goes through a temp file and rename so a crash mid-write leaves the old
// manifest intact.
func (s *Store) Save(m Manifest) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary manifest file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(m); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync manifest file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close manifest file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace manifest file: %w", err)
	}

	s.logger.InfoWithFields("manifest saved", map[string]interface{}{
		"path":  s.path,
		"items": len(m),
	})

	return nil
}
