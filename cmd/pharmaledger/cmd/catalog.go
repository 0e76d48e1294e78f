package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pharmaledger/pharmaledger/internal/adapter/outbound/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the SQL batch catalog",
	Long: `Manage the batch catalog configured under catalog.sql.

The catalog is used by "serve" and "verify" when catalog.mode is sql.
The schema is created on first use.`,
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <seed.yaml>",
	Short: "Import batches from a YAML seed file",
	Long: `Upsert every batch of a seed file into the SQL catalog.

Seed format:
  batches:
    - id: DP001/2024
      product: Paracetamol 500mg
      manufacturer: Demo Pharmaceuticals Ltd.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		batches, err := catalog.LoadSeed(args[0])
		if err != nil {
			return err
		}
		cat, done, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer done()

		n, err := cat.Import(cmd.Context(), batches)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d batches.\n", n)
		return nil
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered batches",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, done, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer done()

		batches, err := cat.List(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "BATCH\tPRODUCT\tMANUFACTURER")
		for _, b := range batches {
			fmt.Fprintf(w, "%s\t%s\t%s\n", b.ID, b.ProductName, b.Manufacturer)
		}
		return w.Flush()
	},
}

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write registered batches as a YAML seed to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, done, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer done()

		batches, err := cat.List(cmd.Context())
		if err != nil {
			return err
		}
		data, err := catalog.MarshalSeed(batches)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

// openCatalog opens the SQL catalog regardless of catalog.mode so it can
// be filled before switching the server over.
func openCatalog(cmd *cobra.Command) (*catalog.SQLCatalog, func(), error) {
	cfg, err := loadConfig(false)
	if err != nil {
		return nil, nil, err
	}
	a := &app{cfg: cfg, logger: newLogger(cfg, os.Stderr)}
	cat, err := a.openSQLCatalog(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return cat, a.close, nil
}

func init() {
	catalogCmd.AddCommand(catalogImportCmd, catalogListCmd, catalogExportCmd)
	rootCmd.AddCommand(catalogCmd)
}
