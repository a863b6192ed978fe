// Package auth hashes passwords and issues the encrypted tokens stored in the
// session cookie.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// PASETO v4 local tokens use a 32-byte symmetric key.
	keyLength    = 32
	keyHexLength = 64

	keyFileName = "session.key"
)

// GenerateKey returns a fresh random symmetric key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate session key: %w", err)
	}
	return key, nil
}

// LoadOrGenerateKey reads the hex-encoded key from <dataPath>/session.key,
// creating the file with a new key when it does not exist. Reusing the key
// keeps existing cookies valid across restarts.
func LoadOrGenerateKey(dataPath string) ([]byte, error) {
	keyPath := filepath.Join(dataPath, keyFileName)

	//#nosec G304 -- path derived from configured data directory
	raw, err := os.ReadFile(keyPath)
	switch {
	case err == nil:
		keyHex := strings.TrimSpace(string(raw))
		if len(keyHex) != keyHexLength {
			return nil, fmt.Errorf("invalid session key length: expected %d hex chars, got %d", keyHexLength, len(keyHex))
		}
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, fmt.Errorf("invalid session key format: not valid hex: %w", err)
		}
		return key, nil
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read session key: %w", err)
	}

	key, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, fmt.Errorf("failed to save session key: %w", err)
	}
	return key, nil
}
