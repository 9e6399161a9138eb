// Package main is the entry point for the xmonitor migration and ops CLI.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/paulbrigner/xmonitor/internal/config"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errParity marks a validation run that found missing or mismatched rows.
// It maps to exit code 2 so scripts can tell parity failures from
// operational errors.
var errParity = errors.New("validation found parity problems")

func main() {
	if err := rootCmd().Execute(); err != nil {
		if errors.Is(err, errParity) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xmonitor",
		Short: "XMonitor migration and ops toolkit",
		Long: `xmonitor migrates the legacy collector SQLite database to PostgreSQL
and operates the omit lists of the running collectors.

The migration runs in three steps: export the SQLite tables to JSONL,
import the JSONL files into PostgreSQL with idempotent upserts, and
validate row counts plus a random field-level spot check.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(exportCmd())
	cmd.AddCommand(importCmd())
	cmd.AddCommand(validateCmd())
	cmd.AddCommand(omitCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from a .env file and the environment.
func loadConfig(envFile string) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// printJSON writes v to stdout as indented JSON. Stdout carries only
// machine-readable output; logs go to stderr.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
