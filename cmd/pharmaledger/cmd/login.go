package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pharmaledger/pharmaledger/internal/domain/login"
)

var (
	loginEmail    string
	loginPassword string
	loginRemember bool
	loginDevMode  bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in from the command line",
	Long: `Run one login attempt against the configured authenticator.

With --remember the session is stored in the configured session backend
and offered again by "pharmaledger session show" for 24 hours.

The password may be passed with --password or the PHARMALEDGER_PASSWORD
environment variable.

Example:
  PHARMALEDGER_PASSWORD=pharm123 pharmaledger login --dev --email pharmacy@demo.com --remember`,
	RunE: func(cmd *cobra.Command, args []string) error {
		password := loginPassword
		if password == "" {
			password = os.Getenv(passwordEnv)
		}

		a, err := setup(cmd.Context(), loginDevMode)
		if err != nil {
			return err
		}
		defer a.close()

		out, err := a.loginFlow(a.sessions).Submit(cmd.Context(), login.Credential{
			Identity: loginEmail,
			Secret:   password,
			Remember: loginRemember,
		})
		printOutcome(cmd.OutOrStdout(), out)
		return err
	},
}

// printOutcome renders a login outcome the way the login form shows it.
func printOutcome(w io.Writer, out login.Outcome) {
	for _, fe := range out.Fields {
		fmt.Fprintf(w, "  %s: %s\n", fe.Field, fe.Message)
	}
	fmt.Fprintln(w, out.Message)
	if out.Status != login.StateSucceeded {
		return
	}
	fmt.Fprintf(w, "Role:     %s\n", out.Role)
	if out.DisplayName != "" {
		fmt.Fprintf(w, "Name:     %s\n", out.DisplayName)
	}
	fmt.Fprintf(w, "Redirect: %s\n", out.Redirect)
	if out.Remembered {
		fmt.Fprintln(w, "Session remembered for 24 hours.")
	}
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (prefer "+passwordEnv+")")
	loginCmd.Flags().BoolVar(&loginRemember, "remember", false, "remember the session for 24 hours")
	loginCmd.Flags().BoolVar(&loginDevMode, "dev", false, "use the demo accounts")
	rootCmd.AddCommand(loginCmd)
}
