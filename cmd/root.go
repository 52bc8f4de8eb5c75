// Package cmd holds the command-line entry points.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/satheeshds/invoicing/config"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:     "invoicing",
	Short:   "Invoice consolidation and ledger-posting service",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		// Configure structured logging
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}
