//go:build !darwin

package crypto

import (
	"errors"
	"fmt"
	"os"
)

type fallbackKeyring struct{}

func newPlatformKeyring() Keyring {
	return &fallbackKeyring{}
}

// Get reads a secret from its DOCKET_* environment variable
func (k *fallbackKeyring) Get(name string) (string, error) {
	env := envVar(name)
	if env == "" {
		return "", fmt.Errorf("unknown secret %q: %w", name, ErrSecretNotFound)
	}

	value := os.Getenv(env)
	if value == "" {
		return "", fmt.Errorf("%s environment variable not set: %w", env, ErrSecretNotFound)
	}

	return value, nil
}

// Set returns an error suggesting to set the environment variable
func (k *fallbackKeyring) Set(name, value string) error {
	if value == "" {
		return errors.New("secret cannot be empty")
	}

	return fmt.Errorf("keyring not available on this platform: please set %s", envVar(name))
}

// Delete returns an error suggesting to unset the environment variable
func (k *fallbackKeyring) Delete(name string) error {
	return fmt.Errorf("keyring not available on this platform: please unset %s manually", envVar(name))
}

// IsAvailable checks if the database key environment variable is set
func (k *fallbackKeyring) IsAvailable() bool {
	return os.Getenv(envVar(SecretDatabaseKey)) != ""
}
