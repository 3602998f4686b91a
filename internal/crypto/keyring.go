package crypto

import "errors"

// Secret names stored in the keyring
const (
	ServiceName = "docket"

	SecretDatabaseKey   = "db-encryption-key"
	SecretRedisPassword = "redis-password"
)

// ErrSecretNotFound is returned when no value is stored under a name
var ErrSecretNotFound = errors.New("secret not found")

// Keyring provides secure secret storage
type Keyring interface {
	Get(name string) (string, error)
	Set(name, value string) error
	Delete(name string) error
	IsAvailable() bool
}

// NewKeyring returns the best available keyring implementation
func NewKeyring() Keyring {
	return newPlatformKeyring()
}

// envVar maps a secret name to the environment variable used where no
// system keyring exists.
func envVar(name string) string {
	switch name {
	case SecretDatabaseKey:
		return "DOCKET_DB_KEY"
	case SecretRedisPassword:
		return "DOCKET_REDIS_PASSWORD"
	default:
		return ""
	}
}
