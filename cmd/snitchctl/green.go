package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nemanjakrstic/snitch/internal/config"
	"github.com/nemanjakrstic/snitch/internal/gocd"
)

func greenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "green <pipeline>",
		Short: "Check whether every stage of a pipeline's latest run passed",
		Long: `Query GoCD for the latest run of a pipeline and report whether it is
fully green. This is the check that gates success notifications.

Examples:
  snitchctl green build-linux --config snitch.yaml
  SNITCH_GOCD_URL=https://gocd.example.com snitchctl green build-linux -o json`,
		Args: cobra.ExactArgs(1),
		RunE: runGreen,
	}
}

func runGreen(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath, os.Getenv)
	if err != nil {
		return err
	}
	if cfg.GoCD.URL == "" {
		return fmt.Errorf("gocd.url is required (set it in the config file or SNITCH_GOCD_URL)")
	}

	logger, err := newCLILogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	client, err := gocd.NewClient(logger, gocd.Options{
		BaseURL:  cfg.GoCD.URL,
		Username: cfg.GoCD.Username,
		Password: cfg.GoCD.Password,
		Token:    cfg.GoCD.Token,
		Timeout:  cfg.GoCD.Timeout,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	green, err := client.IsEntirePipelineGreen(ctx, args[0])
	if err != nil {
		return fmt.Errorf("green check failed: %w", err)
	}

	return outputResult(cmd.OutOrStdout(), GreenResult{Pipeline: args[0], Green: green}, outputFmt)
}
