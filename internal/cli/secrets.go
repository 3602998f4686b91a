package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/andy/docket/internal/crypto"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage secrets kept in the system keyring",
}

var secretsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which secrets are stored",
	RunE: func(cmd *cobra.Command, args []string) error {
		kr := crypto.NewKeyring()

		if !kr.IsAvailable() {
			fmt.Println("Keyring: not available (using DOCKET_DB_KEY / DOCKET_REDIS_PASSWORD)")
		} else {
			fmt.Println("Keyring: available")
		}

		for _, name := range []string{crypto.SecretDatabaseKey, crypto.SecretRedisPassword} {
			status := "stored"
			if _, err := kr.Get(name); err != nil {
				if !errors.Is(err, crypto.ErrSecretNotFound) {
					return err
				}
				status = "not set"
			}
			fmt.Printf("  %-20s %s\n", name, status)
		}
		return nil
	},
}

var secretsSetRedisCmd = &cobra.Command{
	Use:   "set-redis-password",
	Short: "Store the Redis password used by the redis backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print("Redis password: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}

		if err := crypto.NewKeyring().Set(crypto.SecretRedisPassword, string(password)); err != nil {
			return err
		}

		fmt.Println("✓ Redis password stored")
		return nil
	},
}

var secretsForgetRedisCmd = &cobra.Command{
	Use:   "forget-redis-password",
	Short: "Remove the stored Redis password",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := crypto.NewKeyring().Delete(crypto.SecretRedisPassword); err != nil {
			return err
		}
		fmt.Println("✓ Redis password removed")
		return nil
	},
}

func init() {
	secretsCmd.AddCommand(secretsStatusCmd)
	secretsCmd.AddCommand(secretsSetRedisCmd)
	secretsCmd.AddCommand(secretsForgetRedisCmd)
}
