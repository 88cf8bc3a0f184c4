// Package interfaces defines service contracts for Finlet
package interfaces

import (
	"context"

	"github.com/finlet-app/finlet/internal/models"
)

// TradeDeskClient provides access to the paper-trading backend.
type TradeDeskClient interface {
	// Ping checks backend liveness. Used as a fire-and-forget warm-up call.
	Ping(ctx context.Context) error

	// VerifyToken exchanges a Google ID token for the backend user profile.
	// The call budget is generous to accommodate a cold-starting backend.
	VerifyToken(ctx context.Context, idToken string) (*models.User, error)

	// GetUser fetches the full user profile by email or internal ID.
	GetUser(ctx context.Context, id string) (*models.User, error)

	// SaveOnboarding persists the first-run answers.
	SaveOnboarding(ctx context.Context, id string, profile *models.OnboardingProfile) error

	// GetQuote retrieves a single quote. Never returns an error: any
	// transport or parse failure yields a zero-valued quote.
	GetQuote(ctx context.Context, symbol string) models.Quote

	// GetQuotes retrieves a batch of quotes. Failures yield an empty list;
	// zero-price entries from partial failures are filtered out.
	GetQuotes(ctx context.Context, symbols []string) []models.Quote

	// GetStockDetails retrieves extended metadata for a symbol.
	GetStockDetails(ctx context.Context, symbol string) (*models.StockDetails, error)

	// Buy executes a paper buy. idemKey deduplicates repeated submissions.
	Buy(ctx context.Context, userID, ticker string, qty int64, idemKey string) (*models.TradeResult, error)

	// Sell executes a paper sell.
	Sell(ctx context.Context, userID, ticker string, qty int64, idemKey string) (*models.TradeResult, error)

	// GetBalance retrieves the authoritative cash balance.
	GetBalance(ctx context.Context, userID string) (float64, error)

	// GetPortfolio retrieves the authoritative portfolio record.
	GetPortfolio(ctx context.Context, userID string) (*models.PortfolioSummary, error)

	// GetTransactions retrieves recent ledger entries, newest first.
	GetTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error)

	// GetDailyBrief retrieves the AI market brief.
	GetDailyBrief(ctx context.Context) (*models.DailyBrief, error)

	// GetStockIntelligence retrieves AI commentary for a ticker.
	GetStockIntelligence(ctx context.Context, symbol string) (*models.StockIntelligence, error)

	// GetTrendingStocks retrieves the AI trending feed.
	GetTrendingStocks(ctx context.Context) ([]models.TrendingStock, error)

	// GetInternationalStocks retrieves region-scoped trending stocks.
	GetInternationalStocks(ctx context.Context, region string) ([]models.TrendingStock, error)

	// GetProgress retrieves education progress from the backend.
	GetProgress(ctx context.Context, userID string) (*models.Progress, error)

	// SaveProgress persists education progress with a short timeout budget.
	SaveProgress(ctx context.Context, progress *models.Progress) error
}

// FallbackQuoteClient provides quotes from a direct market-data source when
// the backend proxy fails or returns a zero quote.
type FallbackQuoteClient interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// GeminiClient provides access to the Gemini API for AI fallback content.
type GeminiClient interface {
	// GenerateContent generates AI content from a prompt
	GenerateContent(ctx context.Context, prompt string) (string, error)

	// Chat continues a tutor conversation with history
	Chat(ctx context.Context, history []models.ChatMessage, message string) (string, error)
}
