package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pharmaledger/pharmaledger/internal/service"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Show, continue or clear the remembered session",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the remembered session, if any",
	RunE: func(cmd *cobra.Command, args []string) error {
		check, done, err := sessionCheck(cmd)
		if err != nil {
			return err
		}
		defer done()

		prompt, err := check.Check(cmd.Context())
		if service.IsNoSession(err) {
			fmt.Fprintln(cmd.OutOrStdout(), "No saved session.")
			return nil
		}
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, prompt.Welcome)
		fmt.Fprintf(out, "Role:    %s\n", prompt.Role)
		fmt.Fprintf(out, "Expires: %s\n", prompt.ExpiresAt.Local().Format("2006-01-02 15:04"))
		fmt.Fprintln(out, prompt.Question)
		return nil
	},
}

var sessionContinueCmd = &cobra.Command{
	Use:   "continue",
	Short: "Continue into the remembered session",
	RunE: func(cmd *cobra.Command, args []string) error {
		check, done, err := sessionCheck(cmd)
		if err != nil {
			return err
		}
		defer done()

		dest, sess, err := check.Continue(cmd.Context())
		if service.IsNoSession(err) {
			return fmt.Errorf("no saved session, please log in")
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Continuing as %s (%s)\nRedirect: %s\n", sess.Identity, sess.Role, dest)
		return nil
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the remembered session",
	RunE: func(cmd *cobra.Command, args []string) error {
		check, done, err := sessionCheck(cmd)
		if err != nil {
			return err
		}
		defer done()

		if err := check.NewLogin(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Session cleared.")
		return nil
	},
}

func sessionCheck(cmd *cobra.Command) (*service.SessionCheck, func(), error) {
	a, err := setup(cmd.Context(), false)
	if err != nil {
		return nil, nil, err
	}
	return service.NewSessionCheck(a.sessions, a.logger), a.close, nil
}

func init() {
	sessionCmd.AddCommand(sessionShowCmd, sessionContinueCmd, sessionClearCmd)
	rootCmd.AddCommand(sessionCmd)
}
