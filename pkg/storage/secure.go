package storage

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
)

// SecureStore wraps a KV with ChaCha20-Poly1305 for the credential
// slots. The key lives in a 0600 file next to the database; on first
// open a fresh random key is generated. A copied database leaks
// nothing without the key file.
type SecureStore struct {
	kv   KV
	key  []byte
	path string
}

// DefaultKeyPath places the key file alongside the database.
func DefaultKeyPath(cfg Config) string {
	return filepath.Join(filepath.Dir(cfg.Path), "secure.key")
}

func OpenSecure(kv KV, keyPath string) (*SecureStore, error) {
	key, err := loadOrCreateKey(keyPath)
	if err != nil {
		return nil, err
	}
	return &SecureStore{kv: kv, key: key, path: keyPath}, nil
}

func loadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("key file %s has wrong size %d", path, len(key))
		}
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure key dir: %w", err)
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, fmt.Errorf("write key file: %w", err)
	}
	return key, nil
}

func (s *SecureStore) Set(ctx context.Context, key, value string) error {
	aead, err := chacha20poly1305.New(s.key)
	if err != nil {
		return fmt.Errorf("init aead: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return s.kv.Set(ctx, key, sealed)
}

func (s *SecureStore) Get(ctx context.Context, key string) (string, bool, error) {
	sealed, ok, err := s.kv.Get(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	if len(sealed) < chacha20poly1305.NonceSize {
		return "", false, fmt.Errorf("sealed value for %q too short", key)
	}

	aead, err := chacha20poly1305.New(s.key)
	if err != nil {
		return "", false, fmt.Errorf("init aead: %w", err)
	}

	nonce, ciphertext := sealed[:chacha20poly1305.NonceSize], sealed[chacha20poly1305.NonceSize:]
	plain, err := aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return "", false, fmt.Errorf("open sealed value for %q: %w", key, err)
	}
	return string(plain), true, nil
}

func (s *SecureStore) Delete(ctx context.Context, key string) error {
	return s.kv.Delete(ctx, key)
}
