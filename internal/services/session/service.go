// Package session owns the signed-in user. It is the single writer of
// session state: sign-in, restore, refresh, trade balance updates, and
// sign-out all mutate through here, and every reader gets a copy.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/finlet-app/finlet/internal/common"
	"github.com/finlet-app/finlet/internal/interfaces"
	"github.com/finlet-app/finlet/internal/models"
)

// Service implements SessionService.
type Service struct {
	backend interfaces.TradeDeskClient
	store   interfaces.LocalStore
	tokens  *TokenIssuer
	logger  *common.Logger

	mu   sync.RWMutex
	user *models.User

	// refreshMu serializes refresh cycles so a background refresh and a
	// post-trade refresh cannot interleave their reads and writes.
	refreshMu sync.Mutex

	subsMu sync.Mutex
	subs   []chan struct{}

	verifyTimeout   time.Duration
	refreshInterval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
	now    func() time.Time
}

// NewService creates a session service.
func NewService(backend interfaces.TradeDeskClient, store interfaces.LocalStore, tokens *TokenIssuer, cfg *common.Config, logger *common.Logger) *Service {
	return &Service{
		backend:         backend,
		store:           store,
		tokens:          tokens,
		logger:          logger,
		verifyTimeout:   cfg.Clients.TradeDesk.GetVerifyTimeout(),
		refreshInterval: cfg.Refresh.GetSessionInterval(),
		done:            make(chan struct{}),
		now:             time.Now,
	}
}

// SignIn exchanges a Google ID token for a session. Verification gets a
// generous budget because a cold-starting backend can take over a minute
// to answer its first request.
func (s *Service) SignIn(ctx context.Context, idToken string) (*models.User, error) {
	if idToken == "" {
		return nil, fmt.Errorf("id token is required")
	}

	verifyCtx, cancel := context.WithTimeout(ctx, s.verifyTimeout)
	defer cancel()

	user, err := s.backend.VerifyToken(verifyCtx, idToken)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	sessionToken, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveToken(ctx, sessionToken); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist session token")
	}

	s.setUser(user)

	// Pull portfolio and balances; the verified profile stands on its own
	// if this first refresh fails.
	if refreshed, err := s.RefreshUserData(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Initial user data refresh failed")
	} else {
		user = refreshed
	}

	s.logger.Info().Str("user", user.Identifier()).Msg("Signed in")
	return s.User(), nil
}

// Restore rebuilds the session from local storage. A missing or expired
// token yields a signed-out session, not an error.
func (s *Service) Restore(ctx context.Context) (*models.User, error) {
	token, err := s.store.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored token: %w", err)
	}
	if token == "" {
		return nil, nil
	}

	if _, err := s.tokens.Parse(token); err != nil {
		s.logger.Info().Msg("Stored session token expired, clearing session")
		_ = s.store.DeleteToken(ctx)
		_ = s.store.DeleteCachedUser(ctx)
		return nil, nil
	}

	cached, err := s.store.GetCachedUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached user: %w", err)
	}
	if cached == nil {
		return nil, nil
	}

	s.setUser(cached)

	if refreshed, err := s.RefreshUserData(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Session restore refresh failed, using cached data")
	} else {
		return refreshed, nil
	}
	return s.User(), nil
}

// User returns a copy of the current user, or nil when signed out.
func (s *Service) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.user)
}

// RefreshUserData re-pulls the profile and portfolio from the backend.
// The lookup identifier prefers email over ID; with neither the refresh
// aborts before touching the network. Portfolio items, total value, and
// cash balance are applied verbatim from the backend response.
func (s *Service) RefreshUserData(ctx context.Context) (*models.User, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	id := s.identifier()
	if id == "" {
		return nil, fmt.Errorf("no user identifier available, cannot refresh")
	}

	profile, err := s.backend.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh user: %w", err)
	}

	summary, err := s.backend.GetPortfolio(ctx, id)
	if err != nil {
		// Keep the last known portfolio rather than zeroing holdings on a
		// transient failure.
		s.logger.Warn().Err(err).Str("user", id).Msg("Portfolio refresh failed, keeping last known holdings")
		s.mu.RLock()
		if s.user != nil {
			profile.Portfolio = clonePortfolio(s.user.Portfolio)
			profile.TotalValue = s.user.TotalValue
			profile.CashBalance = s.user.CashBalance
		}
		s.mu.RUnlock()
	} else {
		profile.Portfolio = summary.Items
		profile.TotalValue = summary.TotalValue
		profile.CashBalance = summary.CashBalance
	}

	profile.RefreshedAt = s.now()
	s.setUser(profile)

	if err := s.store.SaveCachedUser(ctx, profile); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to cache refreshed user")
	}
	s.recordValuePoint(ctx, profile)

	return copyUser(profile), nil
}

// SetCashBalance applies an authoritative balance reported by a trade
// confirmation. The value is never computed locally.
func (s *Service) SetCashBalance(balance float64) {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return
	}
	s.user.CashBalance = balance
	user := copyUser(s.user)
	s.mu.Unlock()

	if err := s.store.SaveCachedUser(context.Background(), user); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to cache balance update")
	}
	s.notify()
}

// SaveOnboarding persists onboarding answers to the backend and updates
// the session on success.
func (s *Service) SaveOnboarding(ctx context.Context, profile *models.OnboardingProfile) error {
	id := s.identifier()
	if id == "" {
		return fmt.Errorf("no user identifier available")
	}

	if err := s.backend.SaveOnboarding(ctx, id, profile); err != nil {
		return err
	}

	s.mu.Lock()
	if s.user != nil {
		s.user.Onboarding = profile
	}
	user := copyUser(s.user)
	s.mu.Unlock()

	if user != nil {
		if err := s.store.SaveCachedUser(ctx, user); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to cache onboarding update")
		}
	}
	s.notify()
	return nil
}

// SignOut clears the session from memory and local storage.
func (s *Service) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()

	if err := s.store.DeleteToken(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to delete stored token")
	}
	if err := s.store.DeleteCachedUser(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to delete cached user")
	}

	s.logger.Info().Msg("Signed out")
	s.notify()
	return nil
}

// Subscribe returns a channel receiving a signal after each state change.
// The channel has a buffer of one and never blocks the writer.
func (s *Service) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.subsMu.Lock()
	s.subs = append(s.subs, ch)
	s.subsMu.Unlock()
	return ch
}

// StartAutoRefresh launches the silent background refresh loop.
func (s *Service) StartAutoRefresh(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.refreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Debug().Msg("Session auto-refresh stopped")
				return
			case <-ticker.C:
				if s.User() == nil {
					continue
				}
				refreshCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
				if _, err := s.RefreshUserData(refreshCtx); err != nil {
					s.logger.Warn().Err(err).Msg("Background refresh failed")
				}
				cancel()
			}
		}
	}()
}

// StopAutoRefresh terminates the refresh loop and waits for it to exit.
func (s *Service) StopAutoRefresh() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-s.done
}

// identifier returns the backend lookup key for the current user: email
// when present, the user ID otherwise, empty when signed out.
func (s *Service) identifier() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.Identifier()
}

func (s *Service) setUser(user *models.User) {
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	s.notify()
}

func (s *Service) notify() {
	s.subsMu.Lock()
	subs := make([]chan struct{}, len(s.subs))
	copy(subs, s.subs)
	s.subsMu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// recordValuePoint appends a sample to the local value history that the
// dashboard chart renders from.
func (s *Service) recordValuePoint(ctx context.Context, user *models.User) {
	if user == nil || user.ID == "" {
		return
	}
	point := models.ValuePoint{
		Time:  s.now(),
		Value: user.TotalValue + user.CashBalance,
	}
	if err := s.store.AppendValuePoint(ctx, user.ID, point); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to record value point")
	}
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	out := *u
	out.Portfolio = clonePortfolio(u.Portfolio)
	if u.Onboarding != nil {
		ob := *u.Onboarding
		out.Onboarding = &ob
	}
	return &out
}

func clonePortfolio(items []models.PortfolioItem) []models.PortfolioItem {
	if items == nil {
		return nil
	}
	out := make([]models.PortfolioItem, len(items))
	copy(out, items)
	return out
}

// Ensure Service implements SessionService
var _ interfaces.SessionService = (*Service)(nil)
