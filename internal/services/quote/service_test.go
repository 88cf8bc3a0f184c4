package quote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/finlet-app/finlet/internal/common"
	"github.com/finlet-app/finlet/internal/models"
)

// --- Mocks ---

type mockBackend struct {
	quotes      map[string]models.Quote
	details     map[string]*models.StockDetails
	batchCalls  int
	singleCalls int
	detailCalls int
}

func (m *mockBackend) GetQuote(_ context.Context, symbol string) models.Quote {
	m.singleCalls++
	if q, ok := m.quotes[symbol]; ok {
		return q
	}
	return models.ZeroQuote(symbol)
}

func (m *mockBackend) GetQuotes(_ context.Context, symbols []string) []models.Quote {
	m.batchCalls++
	var out []models.Quote
	for _, s := range symbols {
		if q, ok := m.quotes[s]; ok && !q.IsZero() {
			out = append(out, q)
		}
	}
	return out
}

func (m *mockBackend) Ping(_ context.Context) error { return nil }
func (m *mockBackend) VerifyToken(_ context.Context, _ string) (*models.User, error) {
	return nil, nil
}
func (m *mockBackend) GetUser(_ context.Context, _ string) (*models.User, error) { return nil, nil }
func (m *mockBackend) SaveOnboarding(_ context.Context, _ string, _ *models.OnboardingProfile) error {
	return nil
}
func (m *mockBackend) GetStockDetails(_ context.Context, symbol string) (*models.StockDetails, error) {
	m.detailCalls++
	if d, ok := m.details[symbol]; ok {
		return d, nil
	}
	return nil, errors.New("unknown symbol")
}
func (m *mockBackend) Buy(_ context.Context, _, _ string, _ int64, _ string) (*models.TradeResult, error) {
	return nil, nil
}
func (m *mockBackend) Sell(_ context.Context, _, _ string, _ int64, _ string) (*models.TradeResult, error) {
	return nil, nil
}
func (m *mockBackend) GetBalance(_ context.Context, _ string) (float64, error) { return 0, nil }
func (m *mockBackend) GetPortfolio(_ context.Context, _ string) (*models.PortfolioSummary, error) {
	return nil, nil
}
func (m *mockBackend) GetTransactions(_ context.Context, _ string, _ int) ([]models.Transaction, error) {
	return nil, nil
}
func (m *mockBackend) GetDailyBrief(_ context.Context) (*models.DailyBrief, error) {
	return nil, nil
}
func (m *mockBackend) GetStockIntelligence(_ context.Context, _ string) (*models.StockIntelligence, error) {
	return nil, nil
}
func (m *mockBackend) GetTrendingStocks(_ context.Context) ([]models.TrendingStock, error) {
	return nil, nil
}
func (m *mockBackend) GetInternationalStocks(_ context.Context, _ string) ([]models.TrendingStock, error) {
	return nil, nil
}
func (m *mockBackend) GetProgress(_ context.Context, _ string) (*models.Progress, error) {
	return nil, nil
}
func (m *mockBackend) SaveProgress(_ context.Context, _ *models.Progress) error { return nil }

type mockFallback struct {
	quotes map[string]*models.Quote
	err    error
	calls  int
}

func (m *mockFallback) GetQuote(_ context.Context, symbol string) (*models.Quote, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if q, ok := m.quotes[symbol]; ok {
		return q, nil
	}
	return nil, errors.New("no quote")
}

// --- Tests ---

func TestNormalizeSymbols(t *testing.T) {
	got := NormalizeSymbols([]string{"tsla", "AAPL", " msft ", "AAPL", ""})
	want := []string{"AAPL", "MSFT", "TSLA"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestCacheKey_OrderIndependent(t *testing.T) {
	a := CacheKey([]string{"AAPL", "TSLA", "MSFT"})
	b := CacheKey([]string{"tsla", "msft", "aapl"})
	if a != b {
		t.Errorf("expected identical keys for permutations, got %q and %q", a, b)
	}
	if a != "AAPL,MSFT,TSLA" {
		t.Errorf("unexpected key %q", a)
	}
}

func TestGetQuote_BackendPrimary(t *testing.T) {
	backend := &mockBackend{quotes: map[string]models.Quote{
		"AAPL": {Symbol: "AAPL", Price: 185.50, Source: "tradedesk"},
	}}
	fallback := &mockFallback{}
	svc := NewService(backend, fallback, common.NewSilentLogger())

	q := svc.GetQuote(context.Background(), "aapl")
	if q.Price != 185.50 {
		t.Errorf("expected backend price 185.50, got %f", q.Price)
	}
	if fallback.calls != 0 {
		t.Error("fallback should not be consulted when backend succeeds")
	}
}

func TestGetQuote_FallbackOnZero(t *testing.T) {
	backend := &mockBackend{}
	fallback := &mockFallback{quotes: map[string]*models.Quote{
		"AAPL": {Symbol: "AAPL", Price: 184.20, Source: "alphavantage"},
	}}
	svc := NewService(backend, fallback, common.NewSilentLogger())

	q := svc.GetQuote(context.Background(), "AAPL")
	if q.Price != 184.20 {
		t.Errorf("expected fallback price 184.20, got %f", q.Price)
	}
	if q.Source != "alphavantage" {
		t.Errorf("expected fallback source, got %q", q.Source)
	}
}

func TestGetQuote_ZeroWhenAllSourcesFail(t *testing.T) {
	backend := &mockBackend{}
	fallback := &mockFallback{err: errors.New("rate limited")}
	svc := NewService(backend, fallback, common.NewSilentLogger())

	q := svc.GetQuote(context.Background(), "AAPL")
	if !q.IsZero() {
		t.Errorf("expected zero quote, got price %f", q.Price)
	}
	if q.Symbol != "AAPL" {
		t.Errorf("zero quote should carry the symbol, got %q", q.Symbol)
	}
}

func TestGetQuote_NoFallbackConfigured(t *testing.T) {
	backend := &mockBackend{}
	svc := NewService(backend, nil, common.NewSilentLogger())

	q := svc.GetQuote(context.Background(), "AAPL")
	if !q.IsZero() {
		t.Errorf("expected zero quote, got price %f", q.Price)
	}
}

func TestGetQuote_StaleBackendQuoteRefreshedFromFallback(t *testing.T) {
	fetched := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	backend := &mockBackend{quotes: map[string]models.Quote{
		"AAPL": {Symbol: "AAPL", Price: 185.50, FetchedAt: fetched, Source: "tradedesk"},
	}}
	fallback := &mockFallback{quotes: map[string]*models.Quote{
		"AAPL": {Symbol: "AAPL", Price: 186.10, Source: "alphavantage"},
	}}
	svc := NewService(backend, fallback, common.NewSilentLogger())
	svc.now = func() time.Time { return fetched.Add(5 * time.Minute) }

	q := svc.GetQuote(context.Background(), "AAPL")
	if q.Price != 186.10 {
		t.Errorf("expected the fresher fallback price, got %f", q.Price)
	}
	if fallback.calls != 1 {
		t.Errorf("expected 1 fallback call, got %d", fallback.calls)
	}
}

func TestGetQuote_StaleBackendQuoteKeptWhenFallbackFails(t *testing.T) {
	fetched := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	backend := &mockBackend{quotes: map[string]models.Quote{
		"AAPL": {Symbol: "AAPL", Price: 185.50, FetchedAt: fetched},
	}}
	fallback := &mockFallback{err: errors.New("rate limited")}
	svc := NewService(backend, fallback, common.NewSilentLogger())
	svc.now = func() time.Time { return fetched.Add(5 * time.Minute) }

	q := svc.GetQuote(context.Background(), "AAPL")
	if q.Price != 185.50 {
		t.Errorf("a stale price beats no price, got %f", q.Price)
	}
}

func TestGetQuote_FreshBackendQuoteSkipsFallback(t *testing.T) {
	fetched := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	backend := &mockBackend{quotes: map[string]models.Quote{
		"AAPL": {Symbol: "AAPL", Price: 185.50, FetchedAt: fetched},
	}}
	fallback := &mockFallback{}
	svc := NewService(backend, fallback, common.NewSilentLogger())
	svc.now = func() time.Time { return fetched.Add(10 * time.Second) }

	svc.GetQuote(context.Background(), "AAPL")
	if fallback.calls != 0 {
		t.Error("a fresh backend quote must not consult the fallback")
	}
}

func TestGetStockDetails_Cached(t *testing.T) {
	backend := &mockBackend{details: map[string]*models.StockDetails{
		"AAPL": {Symbol: "AAPL", Name: "Apple Inc."},
	}}
	svc := NewService(backend, nil, common.NewSilentLogger())

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	now := base
	svc.now = func() time.Time { return now }

	first, err := svc.GetStockDetails(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("details failed: %v", err)
	}
	if first.Name != "Apple Inc." {
		t.Errorf("unexpected details: %+v", first)
	}

	// Within the TTL the backend is not consulted again.
	now = base.Add(time.Hour)
	if _, err := svc.GetStockDetails(context.Background(), "AAPL"); err != nil {
		t.Fatalf("details failed: %v", err)
	}
	if backend.detailCalls != 1 {
		t.Errorf("expected 1 backend call, got %d", backend.detailCalls)
	}

	// Past the TTL the entry is refreshed.
	now = base.Add(25 * time.Hour)
	if _, err := svc.GetStockDetails(context.Background(), "AAPL"); err != nil {
		t.Fatalf("details failed: %v", err)
	}
	if backend.detailCalls != 2 {
		t.Errorf("expected a refetch after expiry, got %d calls", backend.detailCalls)
	}
}

func TestGetStockDetails_EmptySymbol(t *testing.T) {
	svc := NewService(&mockBackend{}, nil, common.NewSilentLogger())
	if _, err := svc.GetStockDetails(context.Background(), "  "); err == nil {
		t.Error("expected an error for a blank symbol")
	}
}

func TestGetQuotes_EmptyInput(t *testing.T) {
	backend := &mockBackend{}
	svc := NewService(backend, nil, common.NewSilentLogger())

	if got := svc.GetQuotes(context.Background(), nil); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
	if backend.batchCalls != 0 {
		t.Error("empty symbol set must not hit the network")
	}
}

func TestGetQuotes_FallbackFillsGaps(t *testing.T) {
	backend := &mockBackend{quotes: map[string]models.Quote{
		"AAPL": {Symbol: "AAPL", Price: 185.50},
	}}
	fallback := &mockFallback{quotes: map[string]*models.Quote{
		"TSLA": {Symbol: "TSLA", Price: 242.10, Source: "alphavantage"},
	}}
	svc := NewService(backend, fallback, common.NewSilentLogger())

	got := svc.GetQuotes(context.Background(), []string{"TSLA", "AAPL"})
	if len(got) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(got))
	}
	// Results follow normalized (sorted) order.
	if got[0].Symbol != "AAPL" || got[1].Symbol != "TSLA" {
		t.Errorf("unexpected order: %s, %s", got[0].Symbol, got[1].Symbol)
	}
	if got[1].Source != "alphavantage" {
		t.Errorf("TSLA should come from fallback, got source %q", got[1].Source)
	}
}

func TestGetQuotes_DropsUnavailableSymbols(t *testing.T) {
	backend := &mockBackend{quotes: map[string]models.Quote{
		"AAPL": {Symbol: "AAPL", Price: 185.50},
	}}
	svc := NewService(backend, nil, common.NewSilentLogger())

	got := svc.GetQuotes(context.Background(), []string{"AAPL", "INVALIDTICKER"})
	if len(got) != 1 {
		t.Fatalf("expected 1 quote, got %d", len(got))
	}
	if got[0].Symbol != "AAPL" {
		t.Errorf("expected AAPL, got %s", got[0].Symbol)
	}
}
