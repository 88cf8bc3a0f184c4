package models

import "time"

// Quote holds a point-in-time price snapshot for a ticker symbol.
// A price of 0 means the quote is unavailable; aggregates must exclude it.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePct     float64   `json:"change_percent"`
	Volume        int64     `json:"volume"`
	PreviousClose float64   `json:"previous_close"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	FetchedAt     time.Time `json:"fetched_at"`
	Source        string    `json:"source,omitempty"` // "tradedesk" or "alphavantage"
}

// IsZero reports whether the quote carries no usable price.
func (q Quote) IsZero() bool {
	return q.Price == 0
}

// ZeroQuote returns the safe placeholder quote used when a fetch fails,
// so callers can render a uniform "stale/unknown" state.
func ZeroQuote(symbol string) Quote {
	return Quote{Symbol: symbol, FetchedAt: time.Now()}
}

// StockDetails holds extended metadata for a ticker.
type StockDetails struct {
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	Exchange    string  `json:"exchange,omitempty"`
	Sector      string  `json:"sector,omitempty"`
	Industry    string  `json:"industry,omitempty"`
	Logo        string  `json:"logo,omitempty"`
	WebURL      string  `json:"web_url,omitempty"`
	MarketCap   float64 `json:"market_cap,omitempty"`
	Description string  `json:"description,omitempty"`
}
