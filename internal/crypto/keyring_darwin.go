//go:build darwin

package crypto

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

type darwinKeyring struct{}

func newPlatformKeyring() Keyring {
	return &darwinKeyring{}
}

// Get retrieves a secret from macOS Keychain
func (k *darwinKeyring) Get(name string) (string, error) {
	value, err := keyring.Get(ServiceName, name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("%s not in keychain: %w", name, ErrSecretNotFound)
		}
		return "", fmt.Errorf("failed to read %s from keychain: %w", name, err)
	}

	if value == "" {
		return "", fmt.Errorf("%s is empty: %w", name, ErrSecretNotFound)
	}

	return value, nil
}

// Set stores a secret in macOS Keychain
func (k *darwinKeyring) Set(name, value string) error {
	if value == "" {
		return errors.New("secret cannot be empty")
	}

	if err := keyring.Set(ServiceName, name, value); err != nil {
		return fmt.Errorf("failed to store %s in keychain: %w", name, err)
	}

	return nil
}

// Delete removes a secret from macOS Keychain
func (k *darwinKeyring) Delete(name string) error {
	err := keyring.Delete(ServiceName, name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("%s not in keychain: %w", name, ErrSecretNotFound)
		}
		return fmt.Errorf("failed to delete %s from keychain: %w", name, err)
	}

	return nil
}

// IsAvailable checks if the macOS Keychain is accessible
func (k *darwinKeyring) IsAvailable() bool {
	// Probe with a throwaway key
	probe := "__docket_availability_test__"
	if err := keyring.Set(ServiceName, probe, "test"); err != nil {
		return false
	}

	_ = keyring.Delete(ServiceName, probe)
	return true
}
