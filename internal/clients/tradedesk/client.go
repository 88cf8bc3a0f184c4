// Package tradedesk provides a client for the Finlet paper-trading backend
package tradedesk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/finlet-app/finlet/internal/common"
	"github.com/finlet-app/finlet/internal/interfaces"
	"github.com/finlet-app/finlet/internal/models"
)

const (
	DefaultBaseURL       = "http://localhost:3001"
	DefaultTimeout       = 30 * time.Second
	DefaultVerifyTimeout = 90 * time.Second // cold-starting backends need a long first call
	DefaultSaveTimeout   = 5 * time.Second
	DefaultRateLimit     = 10 // requests per second
)

// Client implements the TradeDeskClient interface
type Client struct {
	baseURL       string
	httpClient    *http.Client
	logger        *common.Logger
	limiter       *rate.Limiter
	verifyTimeout time.Duration
	saveTimeout   time.Duration
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithVerifyTimeout sets the token verification budget
func WithVerifyTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.verifyTimeout = timeout
	}
}

// WithSaveTimeout sets the education progress save budget
func WithSaveTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.saveTimeout = timeout
	}
}

// NewClient creates a new TradeDesk client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:       rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:        common.NewSilentLogger(),
		verifyTimeout: DefaultVerifyTimeout,
		saveTimeout:   DefaultSaveTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a backend error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("TradeDesk API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// do performs a rate-limited request and decodes the success envelope into out.
// Non-2xx statuses and success:false envelopes both surface as errors.
func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("method", method).Str("path", path).Msg("TradeDesk API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The backend wraps errors in the envelope; prefer its message.
		var env models.Envelope
		msg := string(raw)
		if json.Unmarshal(raw, &env) == nil && (env.Error != "" || env.Message != "") {
			if env.Error != "" {
				msg = env.Error
			} else {
				msg = env.Message
			}
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    msg,
			Endpoint:   path,
		}
	}

	return models.DecodeEnvelope(raw, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, payload, out)
}

// Ensure Client implements TradeDeskClient
var _ interfaces.TradeDeskClient = (*Client)(nil)
