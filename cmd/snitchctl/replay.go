package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nemanjakrstic/snitch/internal/app"
	"github.com/nemanjakrstic/snitch/internal/config"
	"github.com/nemanjakrstic/snitch/internal/ingest"
)

var (
	replayFile string
	replaySend bool
)

func replayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Run a recorded pipeline event through the engine",
		Long: `Replay a pipeline webhook payload through classification, digest
building, recipient resolution and dispatch.

By default notifications are only logged. Pass --send to deliver them
through the configured channel.

Examples:
  # Dry run a recorded event
  snitchctl replay -f event.json --config snitch.yaml

  # Actually deliver
  snitchctl replay -f event.json --config snitch.yaml --send`,
		RunE: runReplay,
	}

	cmd.Flags().StringVarP(&replayFile, "filename", "f", "", "Event file (JSON or YAML, required)")
	cmd.Flags().BoolVar(&replaySend, "send", false, "Deliver notifications instead of logging them")
	cmd.MarkFlagRequired("filename")

	return cmd
}

func runReplay(cmd *cobra.Command, args []string) error {
	data, err := readDocument(replayFile)
	if err != nil {
		return fmt.Errorf("failed to read event: %w", err)
	}
	event, err := ingest.ParseEvent(data)
	if err != nil {
		return fmt.Errorf("failed to parse event: %w", err)
	}

	cfg, err := config.Load(configPath, os.Getenv)
	if err != nil {
		return err
	}
	if replaySend {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}

	logger, err := newCLILogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := app.New(cfg, logger, app.Options{DryRun: !replaySend})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), app.ProcessTimeout(cfg))
	defer cancel()
	res := a.Engine.Handle(ctx, event)

	result := ReplayResult{
		Pipeline:   event.Name,
		Status:     string(event.Status),
		Stopped:    string(res.Stopped),
		FullyGreen: event.FullyGreen,
		Digest:     res.Digest.Lines(),
		Deliveries: []DeliveryInfo{},
		Sender:     a.Sender.Name(),
		Delivered:  res.Delivery.Delivered(),
		Failed:     res.Delivery.Failed(),
	}
	if result.Digest == nil {
		result.Digest = []string{}
	}
	for _, o := range res.Delivery.Outcomes {
		info := DeliveryInfo{Email: o.Email, RecipientID: o.RecipientID}
		if o.Err != nil {
			info.Error = o.Err.Error()
		}
		result.Deliveries = append(result.Deliveries, info)
	}

	return outputResult(cmd.OutOrStdout(), result, outputFmt)
}

// newCLILogger logs to stderr at warn level unless the config asks for more.
func newCLILogger(cfg config.Config) (*zap.Logger, error) {
	logCfg := cfg.Log
	if logCfg.Level == "" || logCfg.Level == "info" {
		logCfg.Level = "warn"
	}
	return config.NewLogger(logCfg)
}
