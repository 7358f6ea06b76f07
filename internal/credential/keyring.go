package credential

import (
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "mailboard"

// Keys under which the session's secrets are stored.
const (
	KeyRefreshToken = "refresh-token"
	KeyIMAPPassword = "imap-password"
)

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/mailboard/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("mailboard-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// SaveRefreshToken persists the session's refresh token. An empty token
// deletes the stored value instead.
func SaveRefreshToken(token string) error {
	if token == "" {
		return Delete(KeyRefreshToken)
	}
	return Set(KeyRefreshToken, token)
}

// LoadRefreshToken returns the stored refresh token, or "" when none is
// stored. Keyring lookup failures are indistinguishable from absence for
// callers, which treat both as "no refresh token".
func LoadRefreshToken() string {
	token, err := Get(KeyRefreshToken)
	if err != nil {
		return ""
	}
	return token
}
