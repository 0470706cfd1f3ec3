package auth

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTokenManager(t *testing.T) {
	// Use mock manager for reliable testing
	manager, mockStore := NewMockManager()

	token := &Token{
		Name:         DefaultTokenName,
		Value:        "civitai_api_token_12345",
		LastModified: time.Now(),
	}

	err := manager.Store(token)
	if err != nil {
		t.Errorf("Failed to store token: %v", err)
	}

	retrieved, err := manager.Retrieve(DefaultTokenName)
	if err != nil {
		t.Errorf("Failed to retrieve token: %v", err)
	}

	if retrieved.Name != token.Name {
		t.Errorf("Name mismatch: got %s, want %s", retrieved.Name, token.Name)
	}
	if retrieved.Value != token.Value {
		t.Errorf("Value mismatch: got %s, want %s", retrieved.Value, token.Value)
	}

	tokens, err := manager.List()
	if err != nil {
		t.Errorf("Failed to list tokens: %v", err)
	}
	if len(tokens) == 0 {
		t.Error("Expected at least one token in list")
	}

	// Test masking
	masked := MaskValue(token.Value)
	if masked == token.Value {
		t.Error("Token value should be masked")
	}

	err = manager.Delete(DefaultTokenName)
	if err != nil {
		t.Errorf("Failed to delete token: %v", err)
	}

	_, err = manager.Retrieve(DefaultTokenName)
	if err == nil {
		t.Error("Expected error retrieving deleted token")
	}

	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 tokens after deletion, got %d", mockStore.Count())
	}
}

func TestEncryptedFileStore(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "test_tokens.enc")

	os.Setenv("CIVSYNC_PASSPHRASE", "test_passphrase_123")
	defer os.Unsetenv("CIVSYNC_PASSPHRASE")

	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	token := &Token{
		Name:  "encrypted_token",
		Value: "encrypted_secret_value",
	}

	err = store.Store(token)
	if err != nil {
		t.Errorf("Failed to store in encrypted file: %v", err)
	}

	retrieved, err := store.Retrieve("encrypted_token")
	if err != nil {
		t.Errorf("Failed to retrieve from encrypted file: %v", err)
	}

	if retrieved.Value != token.Value {
		t.Errorf("Value mismatch after encryption/decryption")
	}

	// Verify file is actually encrypted
	fileContent, err := os.ReadFile(tempFile)
	if err != nil {
		t.Fatal(err)
	}

	if bytes.Contains(fileContent, []byte("encrypted_secret_value")) {
		t.Error("File contains plaintext token value")
	}

	// Deleting the last token removes the file
	err = store.Delete("encrypted_token")
	if err != nil {
		t.Errorf("Failed to delete token: %v", err)
	}
	if _, err := os.Stat(tempFile); !os.IsNotExist(err) {
		t.Error("Expected encrypted file to be removed after deleting last token")
	}
}

func TestEnvironmentStore(t *testing.T) {
	os.Setenv("CIVITAI_API_TOKEN", "env_token_value")
	defer os.Unsetenv("CIVITAI_API_TOKEN")

	store := NewEnvironmentStore()

	token, err := store.Retrieve(DefaultTokenName)
	if err != nil {
		t.Errorf("Failed to retrieve from environment: %v", err)
	}

	if token.Value != "env_token_value" {
		t.Errorf("Value mismatch: got %s, want env_token_value", token.Value)
	}

	// Non-default names are not served from the environment
	_, err = store.Retrieve("other")
	if err != ErrTokenNotFound {
		t.Error("Expected ErrTokenNotFound for non-default name")
	}

	err = store.Store(&Token{})
	if err != ErrStoreUnavailable {
		t.Error("Expected ErrStoreUnavailable for environment store")
	}

	err = store.Delete(DefaultTokenName)
	if err != ErrStoreUnavailable {
		t.Error("Expected ErrStoreUnavailable for environment delete")
	}
}

func TestManagerWithEncryptedStore(t *testing.T) {
	tempDir := t.TempDir()

	os.Setenv("CIVSYNC_PASSPHRASE", "test_passphrase_real_manager")
	defer os.Unsetenv("CIVSYNC_PASSPHRASE")

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(tempDir, "tokens.enc"))
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	manager := NewMockManagerWithStores(encryptedStore)

	token := &Token{
		Name:         DefaultTokenName,
		Value:        "real_token_value",
		LastModified: time.Now(),
	}

	err = manager.Store(token)
	if err != nil {
		t.Fatalf("Failed to store token: %v", err)
	}

	tokens, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list tokens: %v", err)
	}
	if len(tokens) != 1 {
		t.Errorf("Expected 1 token in list, got %d", len(tokens))
	}

	retrieved, err := manager.Retrieve(DefaultTokenName)
	if err != nil {
		t.Fatalf("Failed to retrieve token: %v", err)
	}

	if retrieved.Value != token.Value {
		t.Errorf("Value mismatch: got %s, want %s", retrieved.Value, token.Value)
	}
}

func TestResolveValuePrefersEnvironment(t *testing.T) {
	manager, _ := NewMockManager()

	if err := manager.Store(&Token{Name: DefaultTokenName, Value: "stored_value"}); err != nil {
		t.Fatal(err)
	}

	os.Setenv("CIVITAI_API_TOKEN", "env_value")
	defer os.Unsetenv("CIVITAI_API_TOKEN")

	if got := manager.ResolveValue(DefaultTokenName); got != "env_value" {
		t.Errorf("ResolveValue = %s, want env_value", got)
	}

	os.Unsetenv("CIVITAI_API_TOKEN")

	if got := manager.ResolveValue(DefaultTokenName); got != "stored_value" {
		t.Errorf("ResolveValue = %s, want stored_value", got)
	}
}

func TestMockStore(t *testing.T) {
	store := NewMockStore()

	tokens, err := store.List()
	if err != nil {
		t.Errorf("Failed to list empty store: %v", err)
	}
	if len(tokens) != 0 {
		t.Errorf("Expected 0 tokens, got %d", len(tokens))
	}

	token := &Token{
		Name:  "mock",
		Value: "mock_value",
	}

	err = store.Store(token)
	if err != nil {
		t.Errorf("Failed to store token: %v", err)
	}

	if store.Count() != 1 {
		t.Errorf("Expected 1 token, got %d", store.Count())
	}

	if !store.Exists("mock") {
		t.Error("Token should exist")
	}

	// Test error injection
	store.ListError = fmt.Errorf("injected error")
	_, err = store.List()
	if err == nil || err.Error() != "injected error" {
		t.Error("Expected injected error")
	}
}
