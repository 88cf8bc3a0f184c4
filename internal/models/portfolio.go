package models

import "time"

// PortfolioItem represents a paper-trading position as recorded by the
// trading backend. Quantity is always ≥ 0; a position sold to zero is
// removed from the list rather than retained.
type PortfolioItem struct {
	Ticker       string  `json:"ticker"`
	CompanyName  string  `json:"company_name"`
	Quantity     int64   `json:"quantity"`
	AvgPrice     float64 `json:"avg_price"`     // weighted-average cost basis
	CurrentPrice float64 `json:"current_price"` // last known quote, may be stale between polls
	Reason       string  `json:"reason,omitempty"`
	Logo         string  `json:"logo,omitempty"`
}

// CostBasis returns the total cost of the position.
func (p PortfolioItem) CostBasis() float64 {
	return float64(p.Quantity) * p.AvgPrice
}

// PortfolioSummary is the trading backend's authoritative portfolio record.
type PortfolioSummary struct {
	Items       []PortfolioItem `json:"portfolio"`
	TotalValue  float64         `json:"total_value"`
	CashBalance float64         `json:"cash_balance"`
}

// OrderSide distinguishes buys from sells.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// TradeResult is the backend's response to an executed paper trade.
// NewBalance is authoritative — the client never recomputes it locally.
type TradeResult struct {
	Side          OrderSide `json:"side"`
	Ticker        string    `json:"ticker"`
	Quantity      int64     `json:"quantity"`
	Price         float64   `json:"price"`
	Total         float64   `json:"total"`
	NewBalance    float64   `json:"new_balance"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Message       string    `json:"message,omitempty"`
}

// Transaction is a ledger entry reported by the trading backend.
// Read-only to the client: displayed, never computed or persisted locally.
type Transaction struct {
	Type      OrderSide `json:"type"`
	Ticker    string    `json:"ticker"`
	Quantity  int64     `json:"quantity"`
	Price     float64   `json:"price"`
	Total     float64   `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

// ValuePoint is a timestamped portfolio valuation, recorded at each refresh
// and used for the dashboard value chart.
type ValuePoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}
