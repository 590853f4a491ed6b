package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultAPIURL is the Slack Web API base.
	DefaultAPIURL = "https://slack.com/api"

	defaultTimeout           = 10 * time.Second
	defaultRequestsPerMinute = 50
	defaultBurst             = 5

	// maxErrorBody caps how much of an unexpected response is kept in errors.
	maxErrorBody = 512
	// maxResponseSize caps how much of any response body is read.
	maxResponseSize = 1 << 20
)

// Options configures the Slack client.
type Options struct {
	// APIURL is the Web API base URL. Overridden in tests.
	APIURL string

	// Token is the bot token (xoxb-...).
	Token string

	// Timeout bounds a single API request.
	Timeout time.Duration

	// RequestsPerMinute is the client-side rate limit across all methods.
	RequestsPerMinute int

	// Burst is the number of requests allowed above the steady rate.
	Burst int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		APIURL:            DefaultAPIURL,
		Timeout:           defaultTimeout,
		RequestsPerMinute: defaultRequestsPerMinute,
		Burst:             defaultBurst,
	}
}

// APIError is a Slack response with ok=false.
type APIError struct {
	Method string
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack %s: %s", e.Method, e.Code)
}

// HTTPError is a non-2xx HTTP response from the Web API.
type HTTPError struct {
	Method     string
	StatusCode int
	Body       string
	RetryAfter string
}

func (e *HTTPError) Error() string {
	if e.RetryAfter != "" {
		return fmt.Sprintf("slack %s: HTTP %d (retry after %ss)", e.Method, e.StatusCode, e.RetryAfter)
	}
	return fmt.Sprintf("slack %s: HTTP %d: %s", e.Method, e.StatusCode, e.Body)
}

// Client talks to the Slack Web API. It is safe for concurrent use and
// serves both as the recipient directory and as a notification sender.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a Client. A token is required.
func NewClient(logger *zap.Logger, opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("slack token is required")
	}
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if _, err := url.Parse(opts.APIURL); err != nil {
		return nil, fmt.Errorf("invalid slack API URL: %w", err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = defaultRequestsPerMinute
	}
	if opts.Burst <= 0 {
		opts.Burst = defaultBurst
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.APIURL, "/"),
		token:      opts.Token,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), opts.Burst),
		logger:     logger.Named("slack"),
	}, nil
}

// response is the envelope shared by every Web API method.
type response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (r response) envelope() response { return r }

// enveloped is any method response that embeds response.
type enveloped interface{ envelope() response }

// call waits for the rate limiter, sends req and decodes the body into out.
func (c *Client) call(ctx context.Context, method string, req *http.Request, out enveloped) error {
	if err := c.limiter.Wait(ctx); err != nil {
		apiRequests.WithLabelValues(method, "rate_limited").Inc()
		return fmt.Errorf("slack %s: waiting for rate limiter: %w", method, err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		apiRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("slack %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		apiRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("slack %s: reading response: %w", method, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiRequests.WithLabelValues(method, "http_error").Inc()
		b := string(body)
		if len(b) > maxErrorBody {
			b = b[:maxErrorBody]
		}
		return &HTTPError{
			Method:     method,
			StatusCode: resp.StatusCode,
			Body:       b,
			RetryAfter: resp.Header.Get("Retry-After"),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		apiRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("slack %s: decoding response: %w", method, err)
	}
	if env := out.envelope(); !env.OK {
		apiRequests.WithLabelValues(method, "api_error").Inc()
		code := env.Error
		if code == "" {
			code = "unknown_error"
		}
		return &APIError{Method: method, Code: code}
	}

	apiRequests.WithLabelValues(method, "ok").Inc()
	return nil
}

func (c *Client) get(ctx context.Context, method string, query url.Values, out enveloped) error {
	u := c.baseURL + "/" + method
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("slack %s: create request: %w", method, err)
	}
	return c.call(ctx, method, req, out)
}

func (c *Client) postJSON(ctx context.Context, method string, payload any, out enveloped) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("slack %s: marshal payload: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack %s: create request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	return c.call(ctx, method, req, out)
}
