package config

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// CredentialStore persists provider API keys encrypted at rest in the data
// directory. The cipher key is a machine-local random key file; both files are
// user-only (0600). Environment variables of the form KODIAK_<PROVIDER>_API_KEY
// always win over the store.
type CredentialStore struct {
	credPath string
	keyPath  string
	keys     map[string]string
}

// OpenCredentialStore loads (or initializes) the credential store under
// dataDir.
func OpenCredentialStore(dataDir string) (*CredentialStore, error) {
	if err := EnsureDir(dataDir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &CredentialStore{
		credPath: filepath.Join(dataDir, "credentials.enc"),
		keyPath:  filepath.Join(dataDir, "credentials.key"),
		keys:     make(map[string]string),
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Get returns the API key for a provider ID, or "" if none is stored. The
// KODIAK_<PROVIDER>_API_KEY environment variable takes precedence.
func (s *CredentialStore) Get(providerID string) string {
	envName := "KODIAK_" + strings.ToUpper(providerID) + "_API_KEY"
	if key := os.Getenv(envName); key != "" {
		return key
	}
	return s.keys[providerID]
}

// Set stores an API key for a provider ID and persists the store.
func (s *CredentialStore) Set(providerID, apiKey string) error {
	s.keys[providerID] = apiKey
	return s.save()
}

// Delete removes a provider's API key and persists the store.
func (s *CredentialStore) Delete(providerID string) error {
	delete(s.keys, providerID)
	return s.save()
}

func (s *CredentialStore) load() error {
	if !FileExists(s.credPath) {
		return nil
	}

	key, err := s.cipherKey()
	if err != nil {
		return err
	}

	ciphertext, err := os.ReadFile(s.credPath)
	if err != nil {
		return fmt.Errorf("failed to read credentials file: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return fmt.Errorf("failed to build cipher: %w", err)
	}

	if len(ciphertext) < aead.NonceSize() {
		return fmt.Errorf("credentials file is corrupted")
	}

	nonce, sealed := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	if err := json.Unmarshal(plaintext, &s.keys); err != nil {
		return fmt.Errorf("failed to parse credentials: %w", err)
	}

	return nil
}

func (s *CredentialStore) save() error {
	key, err := s.cipherKey()
	if err != nil {
		return err
	}

	plaintext, err := json.Marshal(s.keys)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return fmt.Errorf("failed to build cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)

	if err := os.WriteFile(s.credPath, sealed, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	return nil
}

// cipherKey loads the machine-local cipher key, generating it on first use.
func (s *CredentialStore) cipherKey() ([]byte, error) {
	if FileExists(s.keyPath) {
		key, err := os.ReadFile(s.keyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read key file: %w", err)
		}
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("key file has wrong size: %d", len(key))
		}
		return key, nil
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	if err := os.WriteFile(s.keyPath, key, 0600); err != nil {
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}
	return key, nil
}
