package gocd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// MaxConcurrentRequests limits concurrent report downloads within one
	// Reports call.
	MaxConcurrentRequests = 5

	defaultTimeout = 15 * time.Second
	acceptHeader   = "application/vnd.go.cd+json"
)

// ErrForeignURL is returned for a reference that resolves outside the GoCD
// server. Such URLs are never requested.
var ErrForeignURL = errors.New("URL is not on the GoCD server")

// Options configures the GoCD client. Either Token or Username/Password
// may be set; Token wins when both are.
type Options struct {
	BaseURL  string
	Username string
	Password string
	Token    string
	Timeout  time.Duration
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{Timeout: defaultTimeout}
}

// StatusError is returned when GoCD answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s returned status %d: %s", e.URL, e.StatusCode, e.Body)
}

// Client reads pipeline history and test report artifacts from a GoCD server.
type Client struct {
	base       *url.URL
	opts       Options
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Client for the server at opts.BaseURL.
func NewClient(logger *zap.Logger, opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("GoCD base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid GoCD base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("GoCD base URL must use http or https scheme, got %q", base.Scheme)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Client{
		base:       base,
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		logger:     logger.Named("gocd"),
	}, nil
}

// resolve turns a server-relative path or absolute URL into an absolute URL
// on the GoCD server. References to any other scheme or host fail with
// ErrForeignURL.
func (c *Client) resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", ref, err)
	}
	abs := c.base.ResolveReference(u)
	if !c.sameOrigin(abs) {
		return "", fmt.Errorf("%s: %w", abs.Redacted(), ErrForeignURL)
	}
	return abs.String(), nil
}

func (c *Client) sameOrigin(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, c.base.Scheme) && strings.EqualFold(u.Host, c.base.Host)
}

// authorize attaches credentials, only for requests to the GoCD server.
func (c *Client) authorize(req *http.Request) {
	if !c.sameOrigin(req.URL) {
		return
	}
	switch {
	case c.opts.Token != "":
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	case c.opts.Username != "":
		req.SetBasicAuth(c.opts.Username, c.opts.Password)
	}
}

// get performs an authenticated GET and returns the response body.
// The caller must close it.
func (c *Client) get(ctx context.Context, rawURL, accept string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return resp.Body, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, result any) error {
	body, err := c.get(ctx, rawURL, acceptHeader)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// acquire blocks until a slot in sem is free or ctx is done.
func acquire(ctx context.Context, sem chan struct{}) (release func(), err error) {
	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
