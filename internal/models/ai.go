package models

import "time"

// DailyBrief is the AI-generated market commentary shown on the dashboard.
type DailyBrief struct {
	Headline    string    `json:"headline"`
	Body        string    `json:"body"`
	Sentiment   string    `json:"sentiment,omitempty"` // positive, negative, neutral
	GeneratedAt time.Time `json:"generated_at"`
	Source      string    `json:"source,omitempty"` // "tradedesk", "gemini" or "static"
}

// StockIntelligence is AI commentary about a single ticker.
type StockIntelligence struct {
	Symbol      string    `json:"symbol"`
	Summary     string    `json:"summary"`
	Risks       []string  `json:"risks,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Source      string    `json:"source,omitempty"`
}

// TrendingStock is a ticker surfaced by the AI trending feed.
type TrendingStock struct {
	Symbol  string  `json:"symbol"`
	Name    string  `json:"name"`
	Price   float64 `json:"price,omitempty"`
	Reason  string  `json:"reason,omitempty"`
	Region  string  `json:"region,omitempty"`
}

// ChatMessage is one turn in the assistant conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}
