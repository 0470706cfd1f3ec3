package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	vaultSaltLen   = 32
	vaultKeyLen    = 32
	vaultKDFRounds = 100000
)

// EncryptedFileStore implements TokenStore using an AES-GCM encrypted file.
// Used when no system keychain is available. The token map is serialized to
// JSON, sealed with a key derived from the passphrase via PBKDF2, and written
// as a small versioned envelope.
type EncryptedFileStore struct {
	path       string
	passphrase []byte
	mu         sync.RWMutex
}

// vaultEnvelope is the on-disk format. Salt and ciphertext are base64.
type vaultEnvelope struct {
	Salt      string    `json:"salt"`
	Encrypted string    `json:"encrypted"`
	Version   int       `json:"version"`
	Modified  time.Time `json:"modified"`
}

// NewEncryptedFileStore creates a new encrypted file-based token store
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("cannot create token store directory: %w", err)
		}
	}

	passphrase, err := resolvePassphrase()
	if err != nil {
		return nil, fmt.Errorf("cannot resolve vault passphrase: %w", err)
	}

	return &EncryptedFileStore{path: path, passphrase: passphrase}, nil
}

// Store saves a token to the encrypted file
func (e *EncryptedFileStore) Store(token *Token) error {
	if token == nil || token.Name == "" {
		return ErrInvalidToken
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tokens, err := e.readVault()
	if err != nil {
		return err
	}
	if tokens == nil {
		tokens = make(map[string]Token)
	}
	tokens[token.Name] = *token

	return e.writeVault(tokens)
}

// Retrieve gets a token from the encrypted file
func (e *EncryptedFileStore) Retrieve(name string) (*Token, error) {
	if name == "" {
		return nil, ErrInvalidToken
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	tokens, err := e.readVault()
	if err != nil {
		return nil, err
	}
	token, ok := tokens[name]
	if !ok {
		return nil, ErrTokenNotFound
	}
	return &token, nil
}

// List returns all stored tokens
func (e *EncryptedFileStore) List() ([]*Token, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	tokens, err := e.readVault()
	if err != nil {
		return nil, err
	}

	out := make([]*Token, 0, len(tokens))
	for _, token := range tokens {
		t := token
		out = append(out, &t)
	}
	return out, nil
}

// Delete removes a token from the encrypted file. When the last token is
// removed the vault file itself is deleted.
func (e *EncryptedFileStore) Delete(name string) error {
	if name == "" {
		return ErrInvalidToken
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tokens, err := e.readVault()
	if err != nil {
		return err
	}
	if _, ok := tokens[name]; !ok {
		return ErrTokenNotFound
	}
	delete(tokens, name)

	if len(tokens) == 0 {
		return os.Remove(e.path)
	}
	return e.writeVault(tokens)
}

// Exists checks if a token exists
func (e *EncryptedFileStore) Exists(name string) bool {
	token, err := e.Retrieve(name)
	return err == nil && token != nil
}

// readVault loads and decrypts the token map. A missing file yields an
// empty map for Store/List and ErrTokenNotFound paths downstream.
func (e *EncryptedFileStore) readVault() (map[string]Token, error) {
	raw, err := os.ReadFile(e.path)
	if os.IsNotExist(err) {
		return map[string]Token{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read token store: %w", err)
	}

	var env vaultEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("token store is not valid JSON: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil {
		return nil, fmt.Errorf("token store salt is malformed: %w", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(env.Encrypted)
	if err != nil {
		return nil, fmt.Errorf("token store ciphertext is malformed: %w", err)
	}

	plaintext, err := e.open(sealed, salt)
	if err != nil {
		return nil, fmt.Errorf("cannot decrypt token store (wrong passphrase?): %w", err)
	}

	tokens := make(map[string]Token)
	if err := json.Unmarshal(plaintext, &tokens); err != nil {
		return nil, fmt.Errorf("decrypted token data is malformed: %w", err)
	}
	return tokens, nil
}

// writeVault encrypts the token map under a fresh salt and replaces the
// vault file atomically.
func (e *EncryptedFileStore) writeVault(tokens map[string]Token) error {
	salt := make([]byte, vaultSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("cannot generate salt: %w", err)
	}

	plaintext, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("cannot serialize tokens: %w", err)
	}

	sealed, err := e.seal(plaintext, salt)
	if err != nil {
		return fmt.Errorf("cannot encrypt tokens: %w", err)
	}

	env := vaultEnvelope{
		Salt:      base64.StdEncoding.EncodeToString(salt),
		Encrypted: base64.StdEncoding.EncodeToString(sealed),
		Version:   1,
		Modified:  time.Now(),
	}
	raw, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot serialize token store: %w", err)
	}

	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		return fmt.Errorf("cannot write token store: %w", err)
	}
	return os.Rename(tmp, e.path)
}

// seal derives a key from the passphrase and salt, then encrypts with
// AES-GCM. The nonce is prepended to the ciphertext.
func (e *EncryptedFileStore) seal(plaintext, salt []byte) ([]byte, error) {
	gcm, err := e.cipherFor(salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// open reverses seal
func (e *EncryptedFileStore) open(sealed, salt []byte) ([]byte, error) {
	gcm, err := e.cipherFor(salt)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext shorter than nonce")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func (e *EncryptedFileStore) cipherFor(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(e.passphrase, salt, vaultKDFRounds, vaultKeyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// resolvePassphrase finds the vault passphrase: the CIVSYNC_PASSPHRASE
// environment variable wins, then a passphrase file in the config
// directory, generated on first use.
func resolvePassphrase() ([]byte, error) {
	if pass := os.Getenv("CIVSYNC_PASSPHRASE"); pass != "" {
		return []byte(pass), nil
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, err
	}
	passFile := filepath.Join(configDir, ".passphrase")

	if content, err := os.ReadFile(passFile); err == nil && len(content) > 0 {
		return content, nil
	}

	fresh := make([]byte, 32)
	if _, err := rand.Read(fresh); err != nil {
		return nil, fmt.Errorf("cannot generate passphrase: %w", err)
	}
	encoded := []byte(base64.URLEncoding.EncodeToString(fresh))

	if err := os.WriteFile(passFile, encoded, 0600); err != nil {
		return nil, fmt.Errorf("cannot persist passphrase: %w", err)
	}
	return encoded, nil
}
