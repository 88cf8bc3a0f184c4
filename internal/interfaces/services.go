// Package interfaces defines service contracts for Finlet
package interfaces

import (
	"context"
	"time"

	"github.com/finlet-app/finlet/internal/models"
)

// QuoteService retrieves quotes with fallback and normalization.
type QuoteService interface {
	// GetQuote retrieves a single quote, falling back to the direct market
	// data source when the backend proxy yields a zero quote.
	GetQuote(ctx context.Context, symbol string) models.Quote

	// GetQuotes retrieves quotes for a symbol set. The result contains only
	// requested symbols with price > 0; the input order is irrelevant.
	GetQuotes(ctx context.Context, symbols []string) []models.Quote

	// GetStockDetails retrieves extended metadata for a symbol, served from
	// a long-TTL cache because metadata rarely changes.
	GetStockDetails(ctx context.Context, symbol string) (*models.StockDetails, error)
}

// SessionService is the single source of truth for the signed-in user and
// their portfolio. All mutation flows through it; readers receive copies.
type SessionService interface {
	// SignIn verifies a Google ID token with the backend and establishes
	// the session.
	SignIn(ctx context.Context, idToken string) (*models.User, error)

	// Restore loads the cached user from local storage, if any.
	Restore(ctx context.Context) (*models.User, error)

	// User returns a copy of the current user, or nil when signed out.
	User() *models.User

	// RefreshUserData re-pulls profile and portfolio. Portfolio and totals
	// come exclusively from the trading backend.
	RefreshUserData(ctx context.Context) (*models.User, error)

	// SetCashBalance applies an authoritative balance reported by a trade.
	SetCashBalance(balance float64)

	// SaveOnboarding persists onboarding answers and updates the session.
	SaveOnboarding(ctx context.Context, profile *models.OnboardingProfile) error

	// SignOut clears the session from memory and local storage.
	SignOut(ctx context.Context) error

	// Subscribe returns a channel receiving a signal after each state change.
	Subscribe() <-chan struct{}
}

// TradingService orchestrates paper trades against the backend.
type TradingService interface {
	// ExecuteBuy executes a buy intent at most once and refreshes the session.
	ExecuteBuy(ctx context.Context, ticker string, qty int64) (*models.TradeResult, error)

	// ExecuteSell executes a sell intent at most once and refreshes the session.
	ExecuteSell(ctx context.Context, ticker string, qty int64) (*models.TradeResult, error)

	// History retrieves recent transactions from the backend.
	History(ctx context.Context, limit int) ([]models.Transaction, error)

	// Balance reads the authoritative cash balance from the backend.
	Balance(ctx context.Context) (float64, error)
}

// DashboardService derives the portfolio view from session state and live quotes.
type DashboardService interface {
	// Overview computes per-holding and total valuation.
	Overview(ctx context.Context) (*DashboardOverview, error)

	// RenderValueChart renders the recorded portfolio value history as a PNG.
	RenderValueChart(ctx context.Context, width, height int) ([]byte, error)
}

// DashboardOverview is the aggregated dashboard payload.
type DashboardOverview struct {
	Holdings        []HoldingView `json:"holdings"`
	TotalValue      float64       `json:"total_value"`
	CashBalance     float64       `json:"cash_balance"`
	TotalGain       float64       `json:"total_gain"`
	TotalGainPct    float64       `json:"total_gain_pct"`
	PortfolioChange float64       `json:"portfolio_change"` // day change, zero-price quotes excluded
	QuotesUpdatedAt time.Time     `json:"quotes_updated_at"`
	QuotesError     string        `json:"quotes_error,omitempty"` // last quote poll failure, empty when healthy
}

// HoldingView is one valued position on the dashboard.
type HoldingView struct {
	Item           models.PortfolioItem `json:"item"`
	LivePrice      float64              `json:"live_price"` // 0 when no usable quote this cycle
	CurrentValue   float64              `json:"current_value"`
	UnrealizedGain float64              `json:"unrealized_gain"`
	GainPct        float64              `json:"gain_pct"`
	Stale          bool                 `json:"stale"` // true when valued from the last known holding price
}

// EducationService manages gamified learning progress.
type EducationService interface {
	// Islands returns the learning map with per-island unlock state.
	Islands(ctx context.Context) ([]IslandView, error)

	// Progress returns current progress, defaulting when nothing is stored.
	Progress(ctx context.Context) (*models.Progress, error)

	// CompleteLesson records a completion, awards XP, and syncs best-effort.
	CompleteLesson(ctx context.Context, lessonID string) (*models.Progress, error)
}

// IslandView couples an island with its unlock state for rendering.
type IslandView struct {
	Island   models.Island `json:"island"`
	Unlocked bool          `json:"unlocked"`
	Done     int           `json:"done"`
}

// AdvisorService provides AI commentary with graceful degradation.
type AdvisorService interface {
	DailyBrief(ctx context.Context) (*models.DailyBrief, error)
	StockIntelligence(ctx context.Context, symbol string) (*models.StockIntelligence, error)
	TrendingStocks(ctx context.Context) ([]models.TrendingStock, error)
	InternationalStocks(ctx context.Context, region string) ([]models.TrendingStock, error)
	Chat(ctx context.Context, history []models.ChatMessage, message string) (string, error)
}
