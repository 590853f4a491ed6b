package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nemanjakrstic/snitch/internal/eligibility"
	"github.com/nemanjakrstic/snitch/internal/util"
)

// Environment variables that override file settings.
const (
	ConfigPathEnv       = "SNITCH_CONFIG"
	slackTokenEnv       = "SNITCH_SLACK_TOKEN"
	gocdURLEnv          = "SNITCH_GOCD_URL"
	gocdUsernameEnv     = "SNITCH_GOCD_USERNAME"
	gocdPasswordEnv     = "SNITCH_GOCD_PASSWORD"
	gocdTokenEnv        = "SNITCH_GOCD_TOKEN"
	webhookURLEnv       = "SNITCH_WEBHOOK_URL"
	webhookAuthTokenEnv = "SNITCH_WEBHOOK_AUTH_TOKEN"
	sharedSecretEnv     = "SNITCH_SHARED_SECRET"
	debugEnv            = "SNITCH_DEBUG"
	debugRecipientEnv   = "SNITCH_DEBUG_RECIPIENT"
	logLevelEnv         = "SNITCH_LOG_LEVEL"
	excludeEnv          = "SNITCH_EXCLUDE"
)

// Delivery channels.
const (
	ChannelSlack   = "slack"
	ChannelWebhook = "webhook"
	ChannelLog     = "log"
)

// Config is the complete service configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Slack      SlackConfig      `yaml:"slack"`
	GoCD       GoCDConfig       `yaml:"gocd"`
	Delivery   DeliveryConfig   `yaml:"delivery"`
	Policy     PolicyConfig     `yaml:"policy"`
	Recipients RecipientsConfig `yaml:"recipients"`
	Debug      DebugConfig      `yaml:"debug"`
}

// ServerConfig configures the webhook listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// SharedSecret, when set, must be presented in the X-Snitch-Token header.
	SharedSecret string `yaml:"sharedSecret"`
	// ProcessTimeout bounds the handling of one accepted event.
	ProcessTimeout time.Duration `yaml:"processTimeout"`
	// ShutdownTimeout bounds draining in-flight events on shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// SlackConfig configures the Slack Web API client.
type SlackConfig struct {
	Token             string `yaml:"token"`
	APIURL            string `yaml:"apiUrl"`
	RequestsPerMinute int    `yaml:"requestsPerMinute"`
	Burst             int    `yaml:"burst"`
}

// GoCDConfig configures the GoCD API client.
type GoCDConfig struct {
	URL      string        `yaml:"url"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Token    string        `yaml:"token"`
	Timeout  time.Duration `yaml:"timeout"`
}

// DeliveryConfig selects how notifications leave the process.
type DeliveryConfig struct {
	Channel string        `yaml:"channel"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// WebhookConfig configures the generic webhook sender.
type WebhookConfig struct {
	URL                string `yaml:"url"`
	AuthToken          string `yaml:"authToken"`
	TimeoutSeconds     int    `yaml:"timeoutSeconds"`
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify"`
}

// PolicyConfig holds the notify policy.
type PolicyConfig struct {
	DefaultNotify bool               `yaml:"defaultNotify"`
	DefaultDetail bool               `yaml:"defaultDetail"`
	Rules         []eligibility.Rule `yaml:"rules"`
}

// Options converts the policy section into eligibility options.
func (p PolicyConfig) Options() eligibility.PolicyOptions {
	return eligibility.PolicyOptions{
		DefaultNotify: p.DefaultNotify,
		DefaultDetail: p.DefaultDetail,
		Rules:         p.Rules,
	}
}

// RecipientsConfig lists extra addresses that are never notified.
type RecipientsConfig struct {
	Exclude []string `yaml:"exclude"`
}

// DebugConfig redirects all deliveries to one recipient. Both fields must be
// set for the override to apply.
type DebugConfig struct {
	Enabled     bool   `yaml:"enabled"`
	RecipientID string `yaml:"recipientId"`
}

// OverrideRecipient returns the debug recipient, or "" when debug mode is off.
func (d DebugConfig) OverrideRecipient() string {
	if !d.Enabled {
		return ""
	}
	return strings.TrimSpace(d.RecipientID)
}

// Default returns the configuration used when nothing else is specified.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ProcessTimeout:  60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Log:      LogConfig{Level: "info"},
		Slack:    SlackConfig{APIURL: "https://slack.com/api", RequestsPerMinute: 50, Burst: 5},
		GoCD:     GoCDConfig{Timeout: 15 * time.Second},
		Delivery: DeliveryConfig{Channel: ChannelSlack, Webhook: WebhookConfig{TimeoutSeconds: 10}},
		Policy:   PolicyConfig{DefaultNotify: true},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// non-empty) and environment overrides read through getenv.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if getenv == nil {
		getenv = os.Getenv
	}
	if err := cfg.applyEnvOverrides(getenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides(getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Slack.Token, slackTokenEnv)
	set(&c.GoCD.URL, gocdURLEnv)
	set(&c.GoCD.Username, gocdUsernameEnv)
	set(&c.GoCD.Password, gocdPasswordEnv)
	set(&c.GoCD.Token, gocdTokenEnv)
	set(&c.Delivery.Webhook.URL, webhookURLEnv)
	set(&c.Delivery.Webhook.AuthToken, webhookAuthTokenEnv)
	set(&c.Server.SharedSecret, sharedSecretEnv)
	set(&c.Debug.RecipientID, debugRecipientEnv)
	set(&c.Log.Level, logLevelEnv)

	if v := getenv(excludeEnv); v != "" {
		c.Recipients.Exclude = append(c.Recipients.Exclude, util.SplitCSV(v)...)
	}
	if v := getenv(debugEnv); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", debugEnv, v, err)
		}
		c.Debug.Enabled = enabled
	}
	return nil
}

// Validate reports the first setting that makes the configuration unusable.
func (c Config) Validate() error {
	switch c.Delivery.Channel {
	case ChannelSlack:
		if c.Slack.Token == "" {
			return fmt.Errorf("slack.token is required for the slack delivery channel")
		}
	case ChannelWebhook:
		if c.Delivery.Webhook.URL == "" {
			return fmt.Errorf("delivery.webhook.url is required for the webhook delivery channel")
		}
	case ChannelLog:
	default:
		return fmt.Errorf("unknown delivery channel %q (want slack, webhook or log)", c.Delivery.Channel)
	}
	if c.GoCD.URL == "" {
		return fmt.Errorf("gocd.url is required")
	}
	if c.Server.ProcessTimeout <= 0 {
		return fmt.Errorf("server.processTimeout must be positive")
	}
	if c.Debug.Enabled && strings.TrimSpace(c.Debug.RecipientID) == "" {
		return fmt.Errorf("debug.recipientId is required when debug is enabled")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
