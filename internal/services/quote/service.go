// Package quote provides quote retrieval with automatic fallback and a
// polling watcher that keeps a symbol set's prices fresh.
package quote

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/finlet-app/finlet/internal/common"
	"github.com/finlet-app/finlet/internal/interfaces"
	"github.com/finlet-app/finlet/internal/models"
)

// Service implements QuoteService with backend-primary and an optional
// direct market-data fallback.
type Service struct {
	backend  interfaces.TradeDeskClient
	fallback interfaces.FallbackQuoteClient
	logger   *common.Logger
	now      func() time.Time // injectable clock for testing

	detailsMu sync.Mutex
	details   map[string]cachedDetails
}

type cachedDetails struct {
	details *models.StockDetails
	at      time.Time
}

// NewService creates a new quote service.
// fallback may be nil — zero quotes are then returned as-is.
func NewService(backend interfaces.TradeDeskClient, fallback interfaces.FallbackQuoteClient, logger *common.Logger) *Service {
	return &Service{
		backend:  backend,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
		details:  make(map[string]cachedDetails),
	}
}

// NormalizeSymbols upper-cases, deduplicates, and sorts a symbol list.
// Two permutations of the same set normalize to the same slice, which is
// what makes watcher cache keys order-independent.
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// CacheKey returns the identity of a symbol set: sort-then-join.
func CacheKey(symbols []string) string {
	return strings.Join(NormalizeSymbols(symbols), ",")
}

// GetQuote retrieves a single quote. The fallback source is consulted when
// the backend proxy yields a zero quote, or when the backend served a
// cached price older than the freshness window; the backend's answer is
// still the terminal one when the fallback cannot do better.
func (s *Service) GetQuote(ctx context.Context, symbol string) models.Quote {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return models.ZeroQuote(symbol)
	}

	q := s.backend.GetQuote(ctx, symbol)
	if s.fallback == nil {
		return q
	}
	if !q.IsZero() && !s.isStale(q) {
		return q
	}

	s.logger.Debug().Str("symbol", symbol).Bool("stale", !q.IsZero()).Msg("Backend quote unusable, trying fallback source")

	fq, err := s.fallback.GetQuote(ctx, symbol)
	if err != nil || fq == nil || fq.IsZero() {
		if err != nil {
			s.logger.Debug().Err(err).Str("symbol", symbol).Msg("Fallback quote failed")
		}
		return q
	}
	return *fq
}

// isStale reports whether a quote's fetch time has aged out of the quote
// freshness window. Quotes without a timestamp are taken at face value.
func (s *Service) isStale(q models.Quote) bool {
	if q.FetchedAt.IsZero() {
		return false
	}
	return s.now().Sub(q.FetchedAt) >= common.FreshnessQuote
}

// GetStockDetails retrieves extended metadata for a symbol, cached in
// memory. Metadata moves slowly, so a long TTL saves backend round trips.
func (s *Service) GetStockDetails(ctx context.Context, symbol string) (*models.StockDetails, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	s.detailsMu.Lock()
	if c, ok := s.details[symbol]; ok && s.now().Sub(c.at) < common.FreshnessDetails {
		s.detailsMu.Unlock()
		d := *c.details
		return &d, nil
	}
	s.detailsMu.Unlock()

	details, err := s.backend.GetStockDetails(ctx, symbol)
	if err != nil {
		return nil, err
	}

	s.detailsMu.Lock()
	s.details[symbol] = cachedDetails{details: details, at: s.now()}
	s.detailsMu.Unlock()

	d := *details
	return &d, nil
}

// GetQuotes retrieves quotes for a symbol set. The result keeps only
// requested symbols with price > 0; errored symbols are dropped, never
// represented as placeholder entries.
func (s *Service) GetQuotes(ctx context.Context, symbols []string) []models.Quote {
	normalized := NormalizeSymbols(symbols)
	if len(normalized) == 0 {
		return nil
	}

	got := make(map[string]models.Quote, len(normalized))
	for _, q := range s.backend.GetQuotes(ctx, normalized) {
		sym := strings.ToUpper(q.Symbol)
		if q.IsZero() {
			continue
		}
		// Keep only symbols that were actually requested.
		if !containsSymbol(normalized, sym) {
			continue
		}
		got[sym] = q
	}

	// Per-symbol fallback for anything the batch dropped.
	if s.fallback != nil {
		for _, sym := range normalized {
			if _, ok := got[sym]; ok {
				continue
			}
			fq, err := s.fallback.GetQuote(ctx, sym)
			if err != nil || fq == nil || fq.IsZero() {
				continue
			}
			got[sym] = *fq
		}
	}

	out := make([]models.Quote, 0, len(got))
	for _, sym := range normalized {
		if q, ok := got[sym]; ok {
			out = append(out, q)
		}
	}
	return out
}

// containsSymbol does a linear scan; watch sets are small.
func containsSymbol(sorted []string, sym string) bool {
	for _, s := range sorted {
		if s == sym {
			return true
		}
	}
	return false
}

// Ensure Service implements QuoteService
var _ interfaces.QuoteService = (*Service)(nil)
