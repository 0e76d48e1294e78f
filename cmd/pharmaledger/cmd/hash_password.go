package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pharmaledger/pharmaledger/internal/domain/auth"
)

var hashBcrypt bool

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Hash a password for auth.users",
	Long: `Hash a password for the password_hash field of auth.users.

Argon2id is used by default; --bcrypt produces a bcrypt hash for
directories shared with other systems.

Example:
  pharmaledger hash-password "s3cret-pass"
  # Output: $argon2id$v=19$m=48128,t=1,p=1$...

Security note: The password will appear in shell history.
Consider using the PHARMALEDGER_PASSWORD environment variable instead:
  PHARMALEDGER_PASSWORD=... pharmaledger hash-password`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := os.Getenv(passwordEnv)
		if len(args) == 1 {
			password = args[0]
		}
		if password == "" {
			return errors.New("no password given (argument or " + passwordEnv + ")")
		}

		hash, err := hashPassword(password, hashBcrypt)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func hashPassword(password string, bcrypt bool) (string, error) {
	if bcrypt {
		return auth.HashPasswordBcrypt(password)
	}
	return auth.HashPassword(password)
}

func init() {
	hashPasswordCmd.Flags().BoolVar(&hashBcrypt, "bcrypt", false, "produce a bcrypt hash instead of argon2id")
	rootCmd.AddCommand(hashPasswordCmd)
}
