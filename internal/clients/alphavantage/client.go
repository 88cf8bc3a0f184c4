// Package alphavantage provides a client for the Alpha Vantage quote API,
// used as a direct fallback when the backend quote proxy is unavailable.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/finlet-app/finlet/internal/common"
	"github.com/finlet-app/finlet/internal/interfaces"
	"github.com/finlet-app/finlet/internal/models"
)

const (
	DefaultBaseURL   = "https://www.alphavantage.co"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 1 // free tier allows ~5 requests per minute
)

// flexFloat64 handles Alpha Vantage values, which arrive as strings
// (sometimes with a trailing "%" on percentage fields).
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if s == "" || s == "N/A" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

// Client implements the FallbackQuoteClient interface
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
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

// NewClient creates a new Alpha Vantage client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Alpha Vantage API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// globalQuoteResponse mirrors the GLOBAL_QUOTE payload.
type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol        string      `json:"01. symbol"`
		Open          flexFloat64 `json:"02. open"`
		High          flexFloat64 `json:"03. high"`
		Low           flexFloat64 `json:"04. low"`
		Price         flexFloat64 `json:"05. price"`
		Volume        flexFloat64 `json:"06. volume"`
		PreviousClose flexFloat64 `json:"08. previous close"`
		Change        flexFloat64 `json:"09. change"`
		ChangePct     flexFloat64 `json:"10. change percent"`
	} `json:"Global Quote"`
	Note         string `json:"Note,omitempty"`
	ErrorMessage string `json:"Error Message,omitempty"`
}

// GetQuote retrieves a live quote via the GLOBAL_QUOTE function.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)

	reqURL := fmt.Sprintf("%s/query?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("symbol", symbol).Msg("Alpha Vantage quote request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   "/query",
		}
	}

	var gq globalQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&gq); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	// Rate-limit notes and error messages come back as 200s.
	if gq.Note != "" {
		return nil, &APIError{StatusCode: http.StatusTooManyRequests, Message: gq.Note, Endpoint: "/query"}
	}
	if gq.ErrorMessage != "" {
		return nil, &APIError{StatusCode: http.StatusBadRequest, Message: gq.ErrorMessage, Endpoint: "/query"}
	}
	if gq.GlobalQuote.Symbol == "" || gq.GlobalQuote.Price == 0 {
		return nil, fmt.Errorf("no quote data for %s", symbol)
	}

	return &models.Quote{
		Symbol:        strings.ToUpper(gq.GlobalQuote.Symbol),
		Price:         float64(gq.GlobalQuote.Price),
		Change:        float64(gq.GlobalQuote.Change),
		ChangePct:     float64(gq.GlobalQuote.ChangePct),
		Volume:        int64(gq.GlobalQuote.Volume),
		PreviousClose: float64(gq.GlobalQuote.PreviousClose),
		Open:          float64(gq.GlobalQuote.Open),
		High:          float64(gq.GlobalQuote.High),
		Low:           float64(gq.GlobalQuote.Low),
		FetchedAt:     time.Now(),
		Source:        "alphavantage",
	}, nil
}

// Ensure Client implements FallbackQuoteClient
var _ interfaces.FallbackQuoteClient = (*Client)(nil)
