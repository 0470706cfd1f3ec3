package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements a read-only TokenStore backed by environment
// variables. It is the last fallback in the store chain.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment variable token store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(token *Token) error {
	return ErrStoreUnavailable
}

// Retrieve gets the token from CIVITAI_API_TOKEN
func (e *EnvironmentStore) Retrieve(name string) (*Token, error) {
	if name != DefaultTokenName {
		return nil, ErrTokenNotFound
	}

	value := os.Getenv("CIVITAI_API_TOKEN")
	if value == "" {
		return nil, ErrTokenNotFound
	}

	return &Token{
		Name:         DefaultTokenName,
		Value:        value,
		LastModified: time.Now(),
	}, nil
}

// List returns the environment token if present
func (e *EnvironmentStore) List() ([]*Token, error) {
	token, err := e.Retrieve(DefaultTokenName)
	if err != nil {
		return []*Token{}, nil
	}
	return []*Token{token}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if the environment token is set
func (e *EnvironmentStore) Exists(name string) bool {
	token, err := e.Retrieve(name)
	return err == nil && token != nil
}
