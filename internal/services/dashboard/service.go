// Package dashboard derives the portfolio overview from session state and
// live quotes. It computes presentation values only; balances and holdings
// themselves always come from the trading backend via the session.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/finlet-app/finlet/internal/common"
	"github.com/finlet-app/finlet/internal/interfaces"
	"github.com/finlet-app/finlet/internal/models"
)

// quoteSource is the slice of the quote watcher the dashboard needs.
type quoteSource interface {
	Snapshot() (map[string]models.Quote, time.Time, error)
	SetSymbols(ctx context.Context, symbols []string)
}

// Service implements DashboardService.
type Service struct {
	session interfaces.SessionService
	quotes  quoteSource
	store   interfaces.LocalStore
	logger  *common.Logger

	mu         sync.Mutex
	lastKey    string
	lastResult *interfaces.DashboardOverview
}

// NewService creates a dashboard service.
func NewService(session interfaces.SessionService, quotes quoteSource, store interfaces.LocalStore, logger *common.Logger) *Service {
	return &Service{
		session: session,
		quotes:  quotes,
		store:   store,
		logger:  logger,
	}
}

// Overview computes per-holding and total valuation from the current
// session and quote snapshot. Identical inputs return the memoized result.
//
// A holding with no usable live quote this cycle is valued from its last
// known price and flagged stale; a quote with price zero counts as
// unavailable, never as a real price. Percentages against a zero cost
// basis are reported as zero, so the payload carries no NaN or Inf.
func (s *Service) Overview(ctx context.Context) (*interfaces.DashboardOverview, error) {
	user := s.session.User()
	if user == nil {
		return nil, fmt.Errorf("not signed in")
	}

	// Keep the watcher pointed at the current holdings.
	symbols := make([]string, 0, len(user.Portfolio))
	for _, item := range user.Portfolio {
		symbols = append(symbols, item.Ticker)
	}
	s.quotes.SetSymbols(ctx, symbols)

	quotes, updatedAt, quotesErr := s.quotes.Snapshot()

	key := overviewKey(user, updatedAt)
	s.mu.Lock()
	if key == s.lastKey && s.lastResult != nil {
		cached := *s.lastResult
		s.mu.Unlock()
		// The valuation is memoized; the quote error state is live.
		cached.QuotesError = errString(quotesErr)
		return &cached, nil
	}
	s.mu.Unlock()

	overview := &interfaces.DashboardOverview{
		Holdings:        make([]interfaces.HoldingView, 0, len(user.Portfolio)),
		CashBalance:     user.CashBalance,
		QuotesUpdatedAt: updatedAt,
		QuotesError:     errString(quotesErr),
	}

	var totalCost float64
	for _, item := range user.Portfolio {
		if item.Quantity <= 0 {
			continue
		}

		view := interfaces.HoldingView{Item: item}

		price := item.CurrentPrice
		quote, ok := quotes[item.Ticker]
		if ok && !quote.IsZero() {
			view.LivePrice = quote.Price
			price = quote.Price
			// Day change only counts holdings with a real quote this cycle.
			overview.PortfolioChange += quote.Change * float64(item.Quantity)
		} else {
			view.Stale = true
		}

		view.CurrentValue = price * float64(item.Quantity)

		cost := item.CostBasis()
		view.UnrealizedGain = view.CurrentValue - cost
		if cost > 0 {
			view.GainPct = view.UnrealizedGain / cost * 100
		}

		overview.TotalValue += view.CurrentValue
		totalCost += cost
		overview.Holdings = append(overview.Holdings, view)
	}

	overview.TotalGain = overview.TotalValue - totalCost
	if totalCost > 0 {
		overview.TotalGainPct = overview.TotalGain / totalCost * 100
	}

	s.mu.Lock()
	s.lastKey = key
	s.lastResult = overview
	s.mu.Unlock()

	result := *overview
	return &result, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// overviewKey identifies one (session state, quote snapshot) input pair.
func overviewKey(user *models.User, quotesUpdatedAt time.Time) string {
	return fmt.Sprintf("%s|%d|%d|%.2f", user.Identifier(), user.RefreshedAt.UnixNano(), quotesUpdatedAt.UnixNano(), user.CashBalance)
}

// Ensure Service implements DashboardService
var _ interfaces.DashboardService = (*Service)(nil)
