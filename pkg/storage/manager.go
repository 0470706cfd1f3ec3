package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manager handles local image storage and duplicate detection for one
// output directory
type Manager struct {
	outputDir string
	saved     map[string]bool
	mu        sync.RWMutex
}

// NewManager creates a storage manager rooted at outputDir, creating the
// directory if needed and scanning it for files already present
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{
		outputDir: outputDir,
		saved:     make(map[string]bool),
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

// Filename derives the deterministic local name for an image. Creator name
// plus identifier guarantees no two records collide and makes re-runs
// overwrite instead of duplicate. The username comes from the remote API,
// so path separators and dot segments are stripped before it is used as a
// filename component.
func Filename(username string, imageID int64) string {
	username = filepath.Base(strings.TrimSpace(username))
	if username == "" || username == "." || username == ".." ||
		username == string(filepath.Separator) {
		username = "unknown"
	}
	return fmt.Sprintf("%s_%d.jpeg", username, imageID)
}

func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".jpeg") {
			m.saved[entry.Name()] = true
		}
	}

	return nil
}

// IsDownloaded checks if a file with the given name already exists
func (m *Manager) IsDownloaded(filename string) bool {
	m.mu.RLock()
	known := m.saved[filename]
	m.mu.RUnlock()
	if known {
		return true
	}

	if _, err := os.Stat(filepath.Join(m.outputDir, filename)); err == nil {
		m.mu.Lock()
		m.saved[filename] = true
		m.mu.Unlock()
		return true
	}

	return false
}

// SaveImage writes image data under the given name and returns the full
// path. The write goes through a temp file and rename, and an existing file
// is overwritten.
func (m *Manager) SaveImage(r io.Reader, filename string) (string, error) {
	path := filepath.Join(m.outputDir, filename)

	tempPath := path + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to save image data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved[filename] = true
	m.mu.Unlock()

	return path, nil
}

// OutputDir returns the output directory path
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// SavedCount returns the number of files known to the manager
func (m *Manager) SavedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saved)
}
