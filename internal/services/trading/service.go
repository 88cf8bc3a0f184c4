// Package trading orchestrates paper trades against the backend. Each
// trade intent is submitted at most once: an in-flight guard rejects
// concurrent submissions for the same user, and every request carries a
// client-generated idempotency key so a retried or duplicated HTTP call
// cannot double-execute on the backend.
package trading

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/finlet-app/finlet/internal/common"
	"github.com/finlet-app/finlet/internal/interfaces"
	"github.com/finlet-app/finlet/internal/models"
)

// Service implements TradingService.
type Service struct {
	backend interfaces.TradeDeskClient
	session interfaces.SessionService
	logger  *common.Logger

	mu       sync.Mutex
	inFlight map[string]bool // user identifier -> trade outstanding

	newKey func() string // idempotency key generator, injectable for tests
}

// NewService creates a trading service.
func NewService(backend interfaces.TradeDeskClient, session interfaces.SessionService, logger *common.Logger) *Service {
	return &Service{
		backend:  backend,
		session:  session,
		logger:   logger,
		inFlight: make(map[string]bool),
		newKey:   uuid.NewString,
	}
}

// ExecuteBuy submits a buy order.
func (s *Service) ExecuteBuy(ctx context.Context, ticker string, qty int64) (*models.TradeResult, error) {
	return s.execute(ctx, models.OrderSideBuy, ticker, qty)
}

// ExecuteSell submits a sell order.
func (s *Service) ExecuteSell(ctx context.Context, ticker string, qty int64) (*models.TradeResult, error) {
	return s.execute(ctx, models.OrderSideSell, ticker, qty)
}

func (s *Service) execute(ctx context.Context, side models.OrderSide, ticker string, qty int64) (*models.TradeResult, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required")
	}
	if qty <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", qty)
	}

	user := s.session.User()
	if user == nil {
		return nil, fmt.Errorf("not signed in")
	}
	id := user.Identifier()
	if id == "" {
		return nil, fmt.Errorf("no user identifier available")
	}

	if err := s.acquire(id); err != nil {
		return nil, err
	}
	defer s.release(id)

	key := s.newKey()
	s.logger.Info().
		Str("side", string(side)).
		Str("ticker", ticker).
		Int64("quantity", qty).
		Str("idempotency_key", key).
		Msg("Submitting trade")

	var (
		result *models.TradeResult
		err    error
	)
	switch side {
	case models.OrderSideBuy:
		result, err = s.backend.Buy(ctx, id, ticker, qty, key)
	case models.OrderSideSell:
		result, err = s.backend.Sell(ctx, id, ticker, qty, key)
	default:
		return nil, fmt.Errorf("unknown order side %q", side)
	}
	if err != nil {
		return nil, err
	}

	// The backend's post-trade balance is authoritative; apply it before
	// the full refresh lands so the UI never shows the stale number.
	s.session.SetCashBalance(result.NewBalance)

	if _, err := s.session.RefreshUserData(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Post-trade refresh failed")
	}

	return result, nil
}

// History retrieves recent transactions from the backend.
func (s *Service) History(ctx context.Context, limit int) ([]models.Transaction, error) {
	user := s.session.User()
	if user == nil {
		return nil, fmt.Errorf("not signed in")
	}
	id := user.Identifier()
	if id == "" {
		return nil, fmt.Errorf("no user identifier available")
	}
	return s.backend.GetTransactions(ctx, id, limit)
}

// Balance reads the authoritative cash balance straight from the backend,
// bypassing the cached session value.
func (s *Service) Balance(ctx context.Context) (float64, error) {
	user := s.session.User()
	if user == nil {
		return 0, fmt.Errorf("not signed in")
	}
	id := user.Identifier()
	if id == "" {
		return 0, fmt.Errorf("no user identifier available")
	}
	return s.backend.GetBalance(ctx, id)
}

func (s *Service) acquire(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[id] {
		return fmt.Errorf("a trade is already in progress")
	}
	s.inFlight[id] = true
	return nil
}

func (s *Service) release(id string) {
	s.mu.Lock()
	delete(s.inFlight, id)
	s.mu.Unlock()
}

// Ensure Service implements TradingService
var _ interfaces.TradingService = (*Service)(nil)
