package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pharmaledger/pharmaledger/internal/domain/verification"
)

var verifyDevMode bool

var verifyCmd = &cobra.Command{
	Use:   "verify <batch-number>",
	Short: "Verify a batch number",
	Long: `Look up a batch number in the configured registry.

Batch numbers are matched case-insensitively. Unknown batches are reported
as counterfeit.

Example:
  pharmaledger verify --dev dp001/2024`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.Context(), verifyDevMode)
		if err != nil {
			return err
		}
		defer a.close()

		res, err := a.verificationFlow().Verify(cmd.Context(), args[0])
		return reportVerification(cmd.OutOrStdout(), res, err)
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan [payload]",
	Short: "Verify a scanned code payload",
	Long: `Verify the batch carried by a PHARMALEDGER:<batch>:<product> payload,
as produced by a barcode scanner. Reads the payload from stdin when no
argument is given.

Example:
  echo "PHARMALEDGER:DP001/2024:Paracetamol 500mg" | pharmaledger scan --dev`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var frame []byte
		if len(args) == 1 {
			frame = []byte(args[0])
		} else {
			data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), 1<<20))
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}
			frame = data
		}

		a, err := setup(cmd.Context(), verifyDevMode)
		if err != nil {
			return err
		}
		defer a.close()

		res, err := a.verificationFlow().Scan(cmd.Context(), frame)
		return reportVerification(cmd.OutOrStdout(), res, err)
	},
}

// reportVerification prints a result. Counterfeit batches exit non-zero so
// scripts can act on them.
func reportVerification(w io.Writer, res verification.Result, err error) error {
	switch {
	case errors.Is(err, verification.ErrBlankInput):
		return errors.New("please enter a batch number")
	case errors.Is(err, verification.ErrNoCodeDetected):
		return errors.New("no valid code detected")
	case errors.Is(err, verification.ErrVerifierUnavailable):
		return fmt.Errorf("%s (%w)", verification.MessageUnavailable, err)
	case err != nil:
		return err
	}

	fmt.Fprintf(w, "%s\n", res.Headline())
	fmt.Fprintf(w, "Batch:  %s\n", res.BatchID)
	fmt.Fprintf(w, "Status: %s\n", res.Status.Label())
	if d := res.Details(); d != "" {
		fmt.Fprintln(w, strings.TrimSpace(d))
	}
	if !res.IsAuthentic {
		return errCounterfeit
	}
	return nil
}

var errCounterfeit = errors.New("batch not found in registry")

func init() {
	for _, c := range []*cobra.Command{verifyCmd, scanCmd} {
		c.Flags().BoolVar(&verifyDevMode, "dev", false, "use the demo batches")
		rootCmd.AddCommand(c)
	}
}
