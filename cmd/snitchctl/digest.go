package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nemanjakrstic/snitch/internal/digest"
	"github.com/nemanjakrstic/snitch/internal/testreport"
)

var (
	digestFile   string
	digestDetail bool
)

func digestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Build the failure digest for a test report",
		Long: `Build the failure digest snitch would attach for a JUnit-JSON report.

The digest is only attached when between 1 and 10 failing cases are found.

Examples:
  # Digest a report file
  snitchctl digest -f report.json

  # Include the first lines of each failure message
  snitchctl digest -f report.json --detail -o json`,
		RunE: runDigest,
	}

	cmd.Flags().StringVarP(&digestFile, "filename", "f", "", "Report file (JSON or YAML, required)")
	cmd.Flags().BoolVar(&digestDetail, "detail", false, "Include failure messages instead of test names")
	cmd.MarkFlagRequired("filename")

	return cmd
}

func runDigest(cmd *cobra.Command, args []string) error {
	data, err := readDocument(digestFile)
	if err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}

	suites, err := testreport.DecodeBytes(data)
	if err != nil {
		return fmt.Errorf("failed to parse report: %w", err)
	}

	failing := 0
	for tc := range testreport.FailingCases(suites) {
		if tc.Type.IsFailing() {
			failing++
		}
	}

	d := digest.Build(testreport.FailingCases(suites), digestDetail)
	result := DigestResult{
		Suites:       len(suites),
		FailingCases: failing,
		Attached:     !d.Empty(),
		Lines:        d.Lines(),
	}
	if result.Lines == nil {
		result.Lines = []string{}
	}

	return outputResult(cmd.OutOrStdout(), result, outputFmt)
}
