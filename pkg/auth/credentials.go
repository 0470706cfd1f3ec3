package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Token is a stored Civitai API key. Name distinguishes multiple keys (for
// example one per Civitai account); most users only ever have "default".
type Token struct {
	Name         string    `json:"name"`
	Value        string    `json:"value"`
	LastModified time.Time `json:"last_modified"`
}

// DefaultTokenName is the token name used when none is given
const DefaultTokenName = "default"

// TokenStore is the interface for storing and retrieving API tokens
type TokenStore interface {
	// Store saves a token
	Store(token *Token) error

	// Retrieve gets a token by name
	Retrieve(name string) (*Token, error)

	// List returns all stored tokens
	List() ([]*Token, error)

	// Delete removes a token by name
	Delete(name string) error

	// Exists checks if a token exists
	Exists(name string) bool
}

// Manager handles token storage with fallback mechanisms: system keychain
// when available, encrypted file otherwise, environment as last resort.
type Manager struct {
	stores []TokenStore
}

// NewManager creates a token manager with the available storage backends
func NewManager() (*Manager, error) {
	var stores []TokenStore

	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "tokens.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// Store saves a token using the first available store
func (m *Manager) Store(token *Token) error {
	if token == nil || token.Value == "" {
		return ErrInvalidToken
	}
	if token.Name == "" {
		token.Name = DefaultTokenName
	}
	token.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(token); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store token: %w", lastErr)
	}
	return errors.New("no available token stores")
}

// Retrieve gets a token from the first store that has it
func (m *Manager) Retrieve(name string) (*Token, error) {
	if name == "" {
		name = DefaultTokenName
	}
	for _, store := range m.stores {
		if token, err := store.Retrieve(name); err == nil && token != nil {
			return token, nil
		}
	}
	return nil, fmt.Errorf("token not found: %s", name)
}

// ResolveValue returns the API token value to use for requests, or empty
// when none is configured anywhere. The environment wins over stored tokens
// so one-off overrides stay possible.
func (m *Manager) ResolveValue(name string) string {
	if v := os.Getenv("CIVITAI_API_TOKEN"); v != "" {
		return v
	}
	token, err := m.Retrieve(name)
	if err != nil {
		return ""
	}
	return token.Value
}

// List returns all stored tokens across stores, most recent copy winning
func (m *Manager) List() ([]*Token, error) {
	tokenMap := make(map[string]*Token)

	for _, store := range m.stores {
		tokens, err := store.List()
		if err != nil {
			continue
		}
		for _, token := range tokens {
			if existing, ok := tokenMap[token.Name]; !ok || token.LastModified.After(existing.LastModified) {
				tokenMap[token.Name] = token
			}
		}
	}

	var result []*Token
	for _, token := range tokenMap {
		result = append(result, token)
	}

	return result, nil
}

// Delete removes a token from all stores
func (m *Manager) Delete(name string) error {
	if name == "" {
		name = DefaultTokenName
	}

	var deleted bool
	var lastErr error
	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete token: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("token not found: %s", name)
	}

	return nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "civsync")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "civsync")
	default: // Linux and others
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "civsync")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "civsync")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// MaskValue masks all but the first 4 and last 4 characters of a token value
func MaskValue(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrInvalidToken     = errors.New("invalid token")
	ErrStoreUnavailable = errors.New("token store unavailable")
)
