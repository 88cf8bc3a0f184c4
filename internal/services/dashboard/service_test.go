package dashboard

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/finlet-app/finlet/internal/common"
	"github.com/finlet-app/finlet/internal/models"
)

// --- Mocks ---

type mockSession struct {
	user *models.User
}

func (m *mockSession) User() *models.User {
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

func (m *mockSession) SignIn(_ context.Context, _ string) (*models.User, error) { return nil, nil }
func (m *mockSession) Restore(_ context.Context) (*models.User, error)          { return nil, nil }
func (m *mockSession) RefreshUserData(_ context.Context) (*models.User, error)  { return nil, nil }
func (m *mockSession) SetCashBalance(_ float64)                                 {}
func (m *mockSession) SaveOnboarding(_ context.Context, _ *models.OnboardingProfile) error {
	return nil
}
func (m *mockSession) SignOut(_ context.Context) error { return nil }
func (m *mockSession) Subscribe() <-chan struct{}      { return make(chan struct{}) }

type mockQuotes struct {
	quotes    map[string]models.Quote
	updatedAt time.Time
	lastErr   error
	setCalls  [][]string
}

func (m *mockQuotes) Snapshot() (map[string]models.Quote, time.Time, error) {
	return m.quotes, m.updatedAt, m.lastErr
}

func (m *mockQuotes) SetSymbols(_ context.Context, symbols []string) {
	m.setCalls = append(m.setCalls, symbols)
}

type mockStore struct {
	history []models.ValuePoint
}

func (m *mockStore) GetValueHistory(_ context.Context, _ string, _ int) ([]models.ValuePoint, error) {
	return m.history, nil
}

func (m *mockStore) GetCachedUser(_ context.Context) (*models.User, error)     { return nil, nil }
func (m *mockStore) SaveCachedUser(_ context.Context, _ *models.User) error    { return nil }
func (m *mockStore) DeleteCachedUser(_ context.Context) error                  { return nil }
func (m *mockStore) GetToken(_ context.Context) (string, error)                { return "", nil }
func (m *mockStore) SaveToken(_ context.Context, _ string) error               { return nil }
func (m *mockStore) DeleteToken(_ context.Context) error                       { return nil }
func (m *mockStore) GetTheme(_ context.Context) (string, error)                { return "", nil }
func (m *mockStore) SetTheme(_ context.Context, _ string) error                { return nil }
func (m *mockStore) GetProgress(_ context.Context, _ string) (*models.Progress, error) {
	return nil, nil
}
func (m *mockStore) SaveProgress(_ context.Context, _ *models.Progress) error { return nil }
func (m *mockStore) AppendValuePoint(_ context.Context, _ string, _ models.ValuePoint) error {
	return nil
}
func (m *mockStore) Close() error { return nil }

func testUser() *models.User {
	return &models.User{
		ID:          "u1",
		Email:       "amy@example.com",
		CashBalance: 500,
		RefreshedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
		Portfolio: []models.PortfolioItem{
			{Ticker: "AAPL", Quantity: 2, AvgPrice: 150, CurrentPrice: 180},
			{Ticker: "TSLA", Quantity: 1, AvgPrice: 250, CurrentPrice: 240},
		},
	}
}

func newTestService(session *mockSession, quotes *mockQuotes, store *mockStore) *Service {
	return NewService(session, quotes, store, common.NewSilentLogger())
}

// --- Tests ---

func TestOverview_NotSignedIn(t *testing.T) {
	svc := newTestService(&mockSession{}, &mockQuotes{}, &mockStore{})

	if _, err := svc.Overview(context.Background()); err == nil {
		t.Error("expected error when signed out")
	}
}

func TestOverview_LivePrices(t *testing.T) {
	quotes := &mockQuotes{
		quotes: map[string]models.Quote{
			"AAPL": {Symbol: "AAPL", Price: 185.50, Change: 1.50},
			"TSLA": {Symbol: "TSLA", Price: 242.10, Change: -2.00},
		},
		updatedAt: time.Now(),
	}
	svc := newTestService(&mockSession{user: testUser()}, quotes, &mockStore{})

	overview, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}

	if len(overview.Holdings) != 2 {
		t.Fatalf("expected 2 holdings, got %d", len(overview.Holdings))
	}

	aapl := overview.Holdings[0]
	if aapl.LivePrice != 185.50 || aapl.Stale {
		t.Errorf("expected live AAPL price, got %+v", aapl)
	}
	if aapl.CurrentValue != 371.0 {
		t.Errorf("expected AAPL value 371.0, got %f", aapl.CurrentValue)
	}
	if math.Abs(aapl.UnrealizedGain-71.0) > 1e-9 {
		t.Errorf("expected AAPL gain 71.0, got %f", aapl.UnrealizedGain)
	}

	wantTotal := 371.0 + 242.10
	if math.Abs(overview.TotalValue-wantTotal) > 1e-9 {
		t.Errorf("expected total %f, got %f", wantTotal, overview.TotalValue)
	}
	if overview.CashBalance != 500 {
		t.Errorf("expected cash balance passed through, got %f", overview.CashBalance)
	}

	// Day change: 2*1.50 + 1*(-2.00)
	if math.Abs(overview.PortfolioChange-1.0) > 1e-9 {
		t.Errorf("expected day change 1.0, got %f", overview.PortfolioChange)
	}
}

func TestOverview_StaleFallback(t *testing.T) {
	quotes := &mockQuotes{
		quotes: map[string]models.Quote{
			"AAPL": {Symbol: "AAPL", Price: 185.50, Change: 1.50},
			"TSLA": models.ZeroQuote("TSLA"), // unavailable this cycle
		},
		updatedAt: time.Now(),
	}
	svc := newTestService(&mockSession{user: testUser()}, quotes, &mockStore{})

	overview, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}

	tsla := overview.Holdings[1]
	if !tsla.Stale {
		t.Error("expected TSLA to be flagged stale")
	}
	if tsla.LivePrice != 0 {
		t.Errorf("stale holding must not report a live price, got %f", tsla.LivePrice)
	}
	// Valued from the last known holding price.
	if tsla.CurrentValue != 240.0 {
		t.Errorf("expected fallback value 240.0, got %f", tsla.CurrentValue)
	}
	// Zero-price quotes are excluded from the day change.
	if math.Abs(overview.PortfolioChange-3.0) > 1e-9 {
		t.Errorf("expected day change from AAPL only (3.0), got %f", overview.PortfolioChange)
	}
}

func TestOverview_NoNaNOnZeroCostBasis(t *testing.T) {
	user := testUser()
	user.Portfolio = []models.PortfolioItem{
		{Ticker: "FREEBIE", Quantity: 5, AvgPrice: 0, CurrentPrice: 0},
	}
	svc := newTestService(&mockSession{user: user}, &mockQuotes{}, &mockStore{})

	overview, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}

	h := overview.Holdings[0]
	for name, v := range map[string]float64{
		"gain_pct":       h.GainPct,
		"total_gain_pct": overview.TotalGainPct,
		"current_value":  h.CurrentValue,
		"total_value":    overview.TotalValue,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s must be finite, got %f", name, v)
		}
	}
}

func TestOverview_DropsZeroQuantity(t *testing.T) {
	user := testUser()
	user.Portfolio = append(user.Portfolio, models.PortfolioItem{Ticker: "GONE", Quantity: 0, AvgPrice: 10})
	svc := newTestService(&mockSession{user: user}, &mockQuotes{}, &mockStore{})

	overview, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	for _, h := range overview.Holdings {
		if h.Item.Ticker == "GONE" {
			t.Error("zero-quantity positions must not appear on the dashboard")
		}
	}
}

func TestOverview_WatcherFollowsPortfolio(t *testing.T) {
	quotes := &mockQuotes{}
	svc := newTestService(&mockSession{user: testUser()}, quotes, &mockStore{})

	if _, err := svc.Overview(context.Background()); err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if len(quotes.setCalls) != 1 || len(quotes.setCalls[0]) != 2 {
		t.Errorf("expected the watcher to be pointed at the holdings, got %v", quotes.setCalls)
	}
}

func TestOverview_Memoized(t *testing.T) {
	quotes := &mockQuotes{
		quotes: map[string]models.Quote{
			"AAPL": {Symbol: "AAPL", Price: 185.50},
		},
		updatedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}
	svc := newTestService(&mockSession{user: testUser()}, quotes, &mockStore{})

	first, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}

	// Quote data mutates without a new snapshot time; the memoized result
	// must be served.
	quotes.quotes["AAPL"] = models.Quote{Symbol: "AAPL", Price: 999}

	second, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if second.Holdings[0].LivePrice != first.Holdings[0].LivePrice {
		t.Error("expected the memoized overview for identical inputs")
	}

	// A new snapshot time invalidates the memo.
	quotes.updatedAt = quotes.updatedAt.Add(time.Minute)
	third, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if third.Holdings[0].LivePrice != 999 {
		t.Errorf("expected recompute after snapshot change, got %f", third.Holdings[0].LivePrice)
	}
}

func TestOverview_SurfacesQuoteError(t *testing.T) {
	quotes := &mockQuotes{
		quotes: map[string]models.Quote{
			"AAPL": {Symbol: "AAPL", Price: 185.50},
		},
		updatedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
		lastErr:   errors.New("no quotes available for AAPL,TSLA"),
	}
	svc := newTestService(&mockSession{user: testUser()}, quotes, &mockStore{})

	overview, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if overview.QuotesError == "" {
		t.Error("expected the poll failure to surface on the overview")
	}

	// The error state is live even when the valuation is memoized.
	quotes.lastErr = nil
	overview, err = svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if overview.QuotesError != "" {
		t.Errorf("expected the error to clear on recovery, got %q", overview.QuotesError)
	}
}

func TestRenderValueChart_NeedsTwoPoints(t *testing.T) {
	store := &mockStore{history: []models.ValuePoint{{Time: time.Now(), Value: 1000}}}
	svc := newTestService(&mockSession{user: testUser()}, &mockQuotes{}, store)

	if _, err := svc.RenderValueChart(context.Background(), 900, 400); err == nil {
		t.Error("expected an error with fewer than 2 points")
	}
}

func TestRenderValueChart_PNG(t *testing.T) {
	now := time.Now()
	store := &mockStore{history: []models.ValuePoint{
		{Time: now.Add(-48 * time.Hour), Value: 1000},
		{Time: now.Add(-24 * time.Hour), Value: 1050},
		{Time: now, Value: 1113.10},
	}}
	svc := newTestService(&mockSession{user: testUser()}, &mockQuotes{}, store)

	png, err := svc.RenderValueChart(context.Background(), 900, 400)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("expected PNG output")
	}
}
