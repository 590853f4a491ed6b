package notifier

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	defaultWebhookTimeout = 10 * time.Second
	userAgent             = "snitch/v1"
	envelopeType          = "snitch.pipeline.notification"
)

// WebhookEnvelope is the JSON payload POSTed to webhook endpoints.
type WebhookEnvelope struct {
	// Type identifies the notification kind.
	Type string `json:"type"`
	// SchemaVersion allows consumers to detect breaking changes.
	SchemaVersion string `json:"schemaVersion"`
	// Timestamp is the RFC3339 time the notification was sent.
	Timestamp string `json:"timestamp"`
	// Data is the rendered notification.
	Data Notification `json:"data"`
}

// WebhookSender implements Sender for generic HTTP POST webhooks.
type WebhookSender struct {
	httpClient *http.Client
	logger     *zap.Logger
	url        string
	authToken  string
}

// WebhookSenderConfig holds the configuration for creating a WebhookSender.
type WebhookSenderConfig struct {
	URL                string
	TimeoutSeconds     int
	InsecureSkipVerify bool
	AuthToken          string
}

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned HTTP %d", e.StatusCode)
}

// NewWebhookSender creates a WebhookSender. Returns an error if the URL is invalid.
func NewWebhookSender(logger *zap.Logger, cfg WebhookSenderConfig) (*WebhookSender, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook URL is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("webhook URL must use http or https scheme, got %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("webhook URL must include a host")
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = defaultWebhookTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // user-configured
		logger.Warn("Webhook TLS certificate verification is disabled",
			zap.String("url", RedactURL(cfg.URL)))
	}

	return &WebhookSender{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		logger:    logger.Named("webhook-sender"),
		url:       cfg.URL,
		authToken: cfg.AuthToken,
	}, nil
}

// Name implements Sender.
func (ws *WebhookSender) Name() string { return "webhook" }

// Send implements Sender. Makes one POST; any failure is returned as-is.
func (ws *WebhookSender) Send(ctx context.Context, n Notification) error {
	envelope := WebhookEnvelope{
		Type:          envelopeType,
		SchemaVersion: "1",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Data:          n,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ws.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if ws.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+ws.authToken)
	}

	resp, err := ws.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post to %s: %w", RedactURL(ws.url), err)
	}
	defer func() {
		// Drain and close body to reuse connections.
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

// RedactURL masks credentials in a URL for safe logging.
// It redacts userinfo passwords and query parameter values.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			q.Set(key, "REDACTED")
		}
		u.RawQuery = q.Encode()
	}
	return u.Redacted()
}
