package tradedesk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/finlet-app/finlet/internal/models"
)

// tradeRequest is the buy/sell payload. ClientRef carries the idempotency key
// in the body as well, for backends that dedupe on payload instead of header.
type tradeRequest struct {
	UserID    string `json:"user_id"`
	Ticker    string `json:"ticker"`
	Quantity  int64  `json:"quantity"`
	ClientRef string `json:"client_ref,omitempty"`
}

type tradeResponse struct {
	Ticker        string  `json:"ticker"`
	Quantity      int64   `json:"quantity"`
	Price         float64 `json:"price"`
	Total         float64 `json:"total"`
	NewBalance    float64 `json:"new_balance"`
	TransactionID string  `json:"transaction_id"`
	Message       string  `json:"message"`
}

// Buy executes a paper buy. The idempotency key makes a duplicate submit
// (e.g. a double-click relayed by the UI) execute at most once.
func (c *Client) Buy(ctx context.Context, userID, ticker string, qty int64, idemKey string) (*models.TradeResult, error) {
	return c.trade(ctx, "/api/trading/buy", models.OrderSideBuy, userID, ticker, qty, idemKey)
}

// Sell executes a paper sell.
func (c *Client) Sell(ctx context.Context, userID, ticker string, qty int64, idemKey string) (*models.TradeResult, error) {
	return c.trade(ctx, "/api/trading/sell", models.OrderSideSell, userID, ticker, qty, idemKey)
}

func (c *Client) trade(ctx context.Context, path string, side models.OrderSide, userID, ticker string, qty int64, idemKey string) (*models.TradeResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("user identifier is required")
	}
	if qty <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(tradeRequest{
		UserID:    userID,
		Ticker:    ticker,
		Quantity:  qty,
		ClientRef: idemKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode trade request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}

	c.logger.Debug().
		Str("side", string(side)).
		Str("ticker", ticker).
		Int64("quantity", qty).
		Msg("TradeDesk trade request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env models.Envelope
		msg := string(raw)
		if json.Unmarshal(raw, &env) == nil && env.Error != "" {
			msg = env.Error
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg, Endpoint: path}
	}

	var tr tradeResponse
	if err := models.DecodeEnvelope(raw, &tr); err != nil {
		return nil, err
	}

	return &models.TradeResult{
		Side:          side,
		Ticker:        tr.Ticker,
		Quantity:      tr.Quantity,
		Price:         tr.Price,
		Total:         tr.Total,
		NewBalance:    tr.NewBalance,
		TransactionID: tr.TransactionID,
		Message:       tr.Message,
	}, nil
}

// GetBalance retrieves the authoritative cash balance.
func (c *Client) GetBalance(ctx context.Context, userID string) (float64, error) {
	if userID == "" {
		return 0, fmt.Errorf("user identifier is required")
	}
	var resp struct {
		Balance float64 `json:"balance"`
	}
	if err := c.get(ctx, "/api/trading/balance?user_id="+url.QueryEscape(userID), &resp); err != nil {
		return 0, err
	}
	return resp.Balance, nil
}

// GetPortfolio retrieves the authoritative portfolio record.
func (c *Client) GetPortfolio(ctx context.Context, userID string) (*models.PortfolioSummary, error) {
	if userID == "" {
		return nil, fmt.Errorf("user identifier is required")
	}
	var summary models.PortfolioSummary
	if err := c.get(ctx, "/api/trading/portfolio?user_id="+url.QueryEscape(userID), &summary); err != nil {
		return nil, err
	}
	// Zero-quantity positions disappear rather than linger.
	items := summary.Items[:0]
	for _, item := range summary.Items {
		if item.Quantity > 0 {
			items = append(items, item)
		}
	}
	summary.Items = items
	return &summary, nil
}

// GetTransactions retrieves recent ledger entries, newest first.
func (c *Client) GetTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	if userID == "" {
		return nil, fmt.Errorf("user identifier is required")
	}
	path := "/api/trading/transactions?user_id=" + url.QueryEscape(userID)
	if limit > 0 {
		path += "&limit=" + strconv.Itoa(limit)
	}
	var resp []struct {
		Type      string  `json:"type"`
		Ticker    string  `json:"ticker"`
		Quantity  int64   `json:"quantity"`
		Price     float64 `json:"price"`
		Total     float64 `json:"total"`
		Timestamp string  `json:"timestamp"`
	}
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}

	txns := make([]models.Transaction, 0, len(resp))
	for _, t := range resp {
		ts, _ := time.Parse(time.RFC3339, t.Timestamp)
		txns = append(txns, models.Transaction{
			Type:      models.OrderSide(t.Type),
			Ticker:    t.Ticker,
			Quantity:  t.Quantity,
			Price:     t.Price,
			Total:     t.Total,
			Timestamp: ts,
		})
	}
	return txns, nil
}
