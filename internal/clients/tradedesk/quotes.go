package tradedesk

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/finlet-app/finlet/internal/models"
)

// quoteResponse mirrors the backend's quote proxy payload.
type quoteResponse struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePct     float64 `json:"change_percent"`
	Volume        int64   `json:"volume"`
	PreviousClose float64 `json:"previous_close"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
}

func (r quoteResponse) toQuote(fallbackSymbol string) models.Quote {
	symbol := r.Symbol
	if symbol == "" {
		symbol = fallbackSymbol
	}
	return models.Quote{
		Symbol:        strings.ToUpper(symbol),
		Price:         r.Price,
		Change:        r.Change,
		ChangePct:     r.ChangePct,
		Volume:        r.Volume,
		PreviousClose: r.PreviousClose,
		Open:          r.Open,
		High:          r.High,
		Low:           r.Low,
		FetchedAt:     time.Now(),
		Source:        "tradedesk",
	}
}

// GetQuote retrieves a single quote via the backend proxy. It never returns
// an error: a failed poll tick is acceptable because the next interval will
// retry, so failures normalize to a zero quote the UI renders as "unknown".
func (c *Client) GetQuote(ctx context.Context, symbol string) models.Quote {
	var resp quoteResponse
	if err := c.get(ctx, "/auth/stock-quote/"+url.PathEscape(symbol), &resp); err != nil {
		c.logger.Debug().Err(err).Str("symbol", symbol).Msg("Quote fetch failed, returning zero quote")
		return models.ZeroQuote(strings.ToUpper(symbol))
	}
	return resp.toQuote(symbol)
}

// GetQuotes retrieves a batch of quotes. On failure it returns an empty list;
// zero-price entries from partial backend failures are filtered out so callers
// never see placeholder rows in aggregate displays.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) []models.Quote {
	if len(symbols) == 0 {
		return nil
	}

	payload := struct {
		Symbols []string `json:"symbols"`
	}{Symbols: symbols}

	var resp []quoteResponse
	if err := c.post(ctx, "/auth/stock-quotes", payload, &resp); err != nil {
		c.logger.Debug().Err(err).Int("symbols", len(symbols)).Msg("Batch quote fetch failed")
		return nil
	}

	quotes := make([]models.Quote, 0, len(resp))
	for _, r := range resp {
		q := r.toQuote("")
		if q.Symbol == "" || q.IsZero() {
			continue
		}
		quotes = append(quotes, q)
	}
	return quotes
}

// GetStockDetails retrieves extended metadata for a symbol.
func (c *Client) GetStockDetails(ctx context.Context, symbol string) (*models.StockDetails, error) {
	var details models.StockDetails
	if err := c.get(ctx, "/auth/stock-details/"+url.PathEscape(symbol), &details); err != nil {
		return nil, err
	}
	if details.Symbol == "" {
		details.Symbol = strings.ToUpper(symbol)
	}
	return &details, nil
}
