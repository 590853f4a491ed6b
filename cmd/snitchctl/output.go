package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	yaml3 "gopkg.in/yaml.v3"
	"sigs.k8s.io/yaml"
)

// DigestResult is the result of a digest command.
type DigestResult struct {
	Suites       int      `json:"suites"`
	FailingCases int      `json:"failingCases"`
	Attached     bool     `json:"attached"`
	Lines        []string `json:"lines"`
}

// ReplayResult is the result of a replay command.
type ReplayResult struct {
	Pipeline   string         `json:"pipeline"`
	Status     string         `json:"status"`
	Stopped    string         `json:"stopped,omitempty"`
	FullyGreen *bool          `json:"fullyGreen,omitempty"`
	Digest     []string       `json:"digest"`
	Deliveries []DeliveryInfo `json:"deliveries"`
	Sender     string         `json:"sender"`
	Delivered  int            `json:"delivered"`
	Failed     int            `json:"failed"`
}

// DeliveryInfo describes one delivery attempt.
type DeliveryInfo struct {
	Email       string `json:"email"`
	RecipientID string `json:"recipientId"`
	Error       string `json:"error,omitempty"`
}

// GreenResult is the result of a green command.
type GreenResult struct {
	Pipeline string `json:"pipeline"`
	Green    bool   `json:"green"`
}

// readDocument reads a JSON or YAML file and returns it as JSON.
// Scalars follow YAML 1.2, so test names like "on" or "no" stay strings.
func readDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := yaml3.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return json.Marshal(doc)
}

// outputResult writes the result to w in the specified format.
func outputResult(w io.Writer, result interface{}, format string) error {
	switch format {
	case "json":
		return outputJSON(w, result)
	case "yaml":
		return outputYAML(w, result)
	case "table", "":
		return outputTable(w, result)
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

func outputJSON(w io.Writer, result interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputYAML(w io.Writer, result interface{}) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func outputTable(out io.Writer, result interface{}) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	switch r := result.(type) {
	case DigestResult:
		return outputDigestTable(w, r)
	case ReplayResult:
		return outputReplayTable(w, r)
	case GreenResult:
		return outputGreenTable(w, r)
	default:
		// Fall back to JSON for unknown types
		return outputJSON(out, result)
	}
}

func outputDigestTable(w *tabwriter.Writer, r DigestResult) error {
	fmt.Fprintf(w, "SUITES:\t%d\n", r.Suites)
	fmt.Fprintf(w, "FAILING CASES:\t%d\n", r.FailingCases)
	fmt.Fprintf(w, "ATTACHED:\t%t\n", r.Attached)
	if len(r.Lines) > 0 {
		fmt.Fprintln(w, "\nDIGEST:")
		writeDigest(w, r.Lines)
	}
	return nil
}

func outputReplayTable(w *tabwriter.Writer, r ReplayResult) error {
	fmt.Fprintf(w, "PIPELINE:\t%s\n", r.Pipeline)
	fmt.Fprintf(w, "STATUS:\t%s\n", r.Status)
	if r.FullyGreen != nil {
		fmt.Fprintf(w, "FULLY GREEN:\t%t\n", *r.FullyGreen)
	}
	if r.Stopped != "" {
		fmt.Fprintf(w, "STOPPED:\t%s\n", r.Stopped)
		return nil
	}
	fmt.Fprintf(w, "SENDER:\t%s\n", r.Sender)
	fmt.Fprintf(w, "DELIVERED:\t%d\n", r.Delivered)
	fmt.Fprintf(w, "FAILED:\t%d\n", r.Failed)

	if len(r.Deliveries) > 0 {
		fmt.Fprintln(w, "\nEMAIL\tRECIPIENT\tERROR")
		for _, d := range r.Deliveries {
			fmt.Fprintf(w, "%s\t%s\t%s\n", d.Email, d.RecipientID, d.Error)
		}
	}
	if len(r.Digest) > 0 {
		fmt.Fprintln(w, "\nDIGEST:")
		writeDigest(w, r.Digest)
	}
	return nil
}

func outputGreenTable(w *tabwriter.Writer, r GreenResult) error {
	status := "NOT GREEN"
	if r.Green {
		status = "GREEN"
	}
	fmt.Fprintf(w, "PIPELINE:\t%s\n", r.Pipeline)
	fmt.Fprintf(w, "STATUS:\t%s\n", status)
	return nil
}

// writeDigest prints digest lines verbatim; tabs in them would break alignment.
func writeDigest(w io.Writer, lines []string) {
	for _, l := range lines {
		fmt.Fprintln(w, strings.ReplaceAll(strings.TrimRight(l, "\n"), "\t", "    "))
	}
}
