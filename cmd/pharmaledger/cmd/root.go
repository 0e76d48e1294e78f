// Package cmd provides the CLI commands for PharmaLedger.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pharmaledger/pharmaledger/internal/config"
)

var cfgFile string
var envFile string

var rootCmd = &cobra.Command{
	Use:   "pharmaledger",
	Short: "PharmaLedger - login and medicine authenticity checks",
	Long: `PharmaLedger authenticates pharmacy, manufacturer and admin users and
verifies medicine batch numbers against a product registry.

Quick start:
  1. Run: pharmaledger serve --dev
  2. POST {"batchNumber":"DP001/2024"} to http://127.0.0.1:8080/api/verify

Configuration:
  Config is loaded from pharmaledger.yaml in the current directory,
  $HOME/.pharmaledger/, or /etc/pharmaledger/. A .env file in the current
  directory is loaded first.

  Environment variables can override config values with the PHARMALEDGER_ prefix.
  Example: PHARMALEDGER_SERVER_HTTP_ADDR=:9090

Commands:
  serve          Start the HTTP API
  login          Log in from the command line
  session        Show, continue or clear the remembered session
  verify         Verify a batch number
  scan           Verify a scanned code payload
  hash-password  Hash a password for auth.users
  catalog        Manage the SQL batch catalog
  version        Print version information`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./pharmaledger.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
}

func initConfig() {
	if err := config.LoadDotEnv(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	config.InitViper(cfgFile)
}
