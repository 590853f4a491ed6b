// Package app assembles snitch components from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/nemanjakrstic/snitch/internal/config"
	"github.com/nemanjakrstic/snitch/internal/eligibility"
	"github.com/nemanjakrstic/snitch/internal/engine"
	"github.com/nemanjakrstic/snitch/internal/gocd"
	"github.com/nemanjakrstic/snitch/internal/notifier"
	"github.com/nemanjakrstic/snitch/internal/recipients"
	"github.com/nemanjakrstic/snitch/internal/slack"
)

// ErrNoGoCD is returned by the green check when no GoCD server is configured.
var ErrNoGoCD = errors.New("no GoCD server configured")

// Options tweak how components are assembled.
type Options struct {
	// DryRun replaces the configured sender with a LogSender.
	DryRun bool
	// DryRunOutput receives one JSON line per notification in dry-run mode.
	DryRunOutput io.Writer
}

// App holds the wired components.
type App struct {
	Engine *engine.Engine
	Policy *eligibility.Policy
	GoCD   *gocd.Client
	Sender notifier.Sender
}

// New wires an App from cfg. cfg should already be validated, except that
// dry runs tolerate missing GoCD and Slack settings.
func New(cfg config.Config, logger *zap.Logger, opts Options) (*App, error) {
	a := &App{Policy: eligibility.NewPolicy(logger, cfg.Policy.Options())}

	var green eligibility.GreenChecker = unavailableGreen{}
	var reports engine.ReportSource
	if cfg.GoCD.URL != "" {
		gc, err := gocd.NewClient(logger, gocd.Options{
			BaseURL:  cfg.GoCD.URL,
			Username: cfg.GoCD.Username,
			Password: cfg.GoCD.Password,
			Token:    cfg.GoCD.Token,
			Timeout:  cfg.GoCD.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create GoCD client: %w", err)
		}
		a.GoCD = gc
		green = gc
		reports = gc
	}

	var directory recipients.Directory = recipients.EmailDirectory{}
	var slackClient *slack.Client
	if cfg.Slack.Token != "" {
		sc, err := slack.NewClient(logger, slack.Options{
			APIURL:            cfg.Slack.APIURL,
			Token:             cfg.Slack.Token,
			RequestsPerMinute: cfg.Slack.RequestsPerMinute,
			Burst:             cfg.Slack.Burst,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Slack client: %w", err)
		}
		slackClient = sc
		directory = sc
	}

	sender, err := newSender(cfg, logger, opts, slackClient)
	if err != nil {
		return nil, err
	}
	a.Sender = sender

	a.Engine = engine.New(engine.Deps{
		Classifier: eligibility.NewClassifier(a.Policy, green, logger),
		Reports:    reports,
		Resolver:   recipients.NewResolver(directory, cfg.Recipients.Exclude, logger),
		Dispatcher: notifier.NewDispatcher(sender, logger, notifier.DispatcherOptions{
			OverrideRecipient: cfg.Debug.OverrideRecipient(),
		}),
		Detail: a.Policy,
	}, logger)
	return a, nil
}

func newSender(cfg config.Config, logger *zap.Logger, opts Options, sc *slack.Client) (notifier.Sender, error) {
	if opts.DryRun {
		return notifier.NewLogSender(logger, opts.DryRunOutput), nil
	}
	switch cfg.Delivery.Channel {
	case config.ChannelSlack:
		if sc == nil {
			return nil, fmt.Errorf("slack delivery requires slack.token")
		}
		return sc, nil
	case config.ChannelWebhook:
		ws, err := notifier.NewWebhookSender(logger, notifier.WebhookSenderConfig{
			URL:                cfg.Delivery.Webhook.URL,
			TimeoutSeconds:     cfg.Delivery.Webhook.TimeoutSeconds,
			InsecureSkipVerify: cfg.Delivery.Webhook.InsecureSkipVerify,
			AuthToken:          cfg.Delivery.Webhook.AuthToken,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create webhook sender: %w", err)
		}
		return ws, nil
	case config.ChannelLog:
		return notifier.NewLogSender(logger, nil), nil
	default:
		return nil, fmt.Errorf("unknown delivery channel %q", cfg.Delivery.Channel)
	}
}

// unavailableGreen fails every green check, which the classifier treats as
// "not fully green".
type unavailableGreen struct{}

func (unavailableGreen) IsEntirePipelineGreen(context.Context, string) (bool, error) {
	return false, ErrNoGoCD
}

// ProcessTimeout returns the per-event deadline, falling back to the default.
func ProcessTimeout(cfg config.Config) time.Duration {
	if cfg.Server.ProcessTimeout > 0 {
		return cfg.Server.ProcessTimeout
	}
	return config.Default().Server.ProcessTimeout
}
