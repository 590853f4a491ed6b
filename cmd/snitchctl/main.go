// snitchctl is a CLI tool for inspecting and replaying snitch processing.
//
// Installation:
//
//	go build -o snitchctl ./cmd/snitchctl
//	mv snitchctl /usr/local/bin/
//
// Usage:
//
//	snitchctl digest -f report.json
//	snitchctl replay -f event.json --config snitch.yaml
//	snitchctl green build-linux
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	outputFmt  string
	configPath string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "snitchctl",
		Short: "Inspect and replay snitch pipeline notifications",
		Long: `snitchctl is a CLI tool for working with snitch offline.

It builds failure digests from test report files, replays recorded
pipeline events through the full processing engine, and queries GoCD
for the green check.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("SNITCH_CONFIG"), "Path to the YAML config file")

	// Add subcommands
	rootCmd.AddCommand(digestCmd())
	rootCmd.AddCommand(replayCmd())
	rootCmd.AddCommand(greenCmd())

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
