package quote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/finlet-app/finlet/internal/common"
	"github.com/finlet-app/finlet/internal/models"
)

// Watcher polls quotes for a mutable symbol set on a fixed interval and
// keeps the latest snapshot in memory.
//
// Every change to the watched set bumps a generation counter; in-flight
// fetches carry the generation they were launched under and their results
// are discarded if the set changed while the request was outstanding. A
// slow response for an old symbol set can therefore never overwrite data
// belonging to the current one.
type Watcher struct {
	service  batchFetcher
	logger   *common.Logger
	interval time.Duration

	mu         sync.Mutex
	symbols    []string // normalized, sorted
	key        string
	generation uint64
	quotes     map[string]models.Quote
	updatedAt  time.Time
	lastErr    error
	subs       []chan struct{}

	runCtx context.Context
	cancel context.CancelFunc
	done   chan struct{}
	now    func() time.Time
}

// batchFetcher is the slice of QuoteService the watcher needs.
type batchFetcher interface {
	GetQuotes(ctx context.Context, symbols []string) []models.Quote
}

// NewWatcher creates a watcher. interval <= 0 falls back to the standard
// quote freshness window.
func NewWatcher(service batchFetcher, logger *common.Logger, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = common.FreshnessQuote
	}
	return &Watcher{
		service:  service,
		logger:   logger,
		interval: interval,
		quotes:   make(map[string]models.Quote),
		done:     make(chan struct{}),
		now:      time.Now,
	}
}

// Start launches the polling loop. It returns immediately.
func (w *Watcher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	w.mu.Lock()
	w.runCtx = ctx
	w.cancel = cancel
	w.mu.Unlock()

	go w.run(ctx)
}

// Stop terminates the polling loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-w.done
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug().Msg("Quote watcher stopped")
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// SetSymbols replaces the watched set. The set identity is the sorted,
// deduplicated symbol list; setting a permutation of the current set is a
// no-op. A genuine change bumps the generation, clears stale prices for
// removed symbols, and triggers an immediate refresh.
func (w *Watcher) SetSymbols(ctx context.Context, symbols []string) {
	normalized := NormalizeSymbols(symbols)
	key := CacheKey(normalized)

	w.mu.Lock()
	if key == w.key {
		w.mu.Unlock()
		return
	}
	w.key = key
	w.symbols = normalized
	w.generation++
	runCtx := w.runCtx

	// Drop quotes for symbols no longer watched.
	keep := make(map[string]models.Quote, len(normalized))
	for _, sym := range normalized {
		if q, ok := w.quotes[sym]; ok {
			keep[sym] = q
		}
	}
	w.quotes = keep
	w.mu.Unlock()

	w.logger.Debug().Str("symbols", key).Msg("Quote watch set changed")

	// The triggered refresh must outlive the caller: the trigger is usually
	// a request handler whose context dies when the response is written.
	if runCtx == nil {
		runCtx = context.WithoutCancel(ctx)
	}
	go w.poll(runCtx)
}

// poll fetches the current set and applies the result only if the set is
// still the one the fetch was launched for.
func (w *Watcher) poll(ctx context.Context) {
	w.mu.Lock()
	symbols := w.symbols
	gen := w.generation
	w.mu.Unlock()

	if len(symbols) == 0 {
		return
	}

	quotes := w.service.GetQuotes(ctx, symbols)

	// An empty result for a non-empty set means the fetch failed outright:
	// the service never fabricates placeholder entries, and the clients
	// swallow transport errors into empty lists.
	var fetchErr error
	if len(quotes) == 0 {
		if err := ctx.Err(); err != nil {
			fetchErr = fmt.Errorf("quote fetch aborted: %w", err)
		} else {
			fetchErr = fmt.Errorf("no quotes available for %s", CacheKey(symbols))
		}
	}

	w.mu.Lock()
	if gen != w.generation {
		w.mu.Unlock()
		w.logger.Debug().Uint64("generation", gen).Msg("Discarding stale quote fetch")
		return
	}
	if fetchErr != nil {
		// Keep the old snapshot and its timestamp so readers can see the
		// data is stale rather than mistaking it for a fresh poll.
		w.lastErr = fetchErr
		w.mu.Unlock()
		w.logger.Debug().Err(fetchErr).Msg("Quote poll failed")
		return
	}
	for _, q := range quotes {
		w.quotes[q.Symbol] = q
	}
	w.updatedAt = w.now()
	w.lastErr = nil
	subs := make([]chan struct{}, len(w.subs))
	copy(subs, w.subs)
	w.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Snapshot returns a copy of the current quote map, the time it was last
// successfully refreshed, and the error from the most recent poll (nil
// when it succeeded). A failed poll never advances the update time.
func (w *Watcher) Snapshot() (map[string]models.Quote, time.Time, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make(map[string]models.Quote, len(w.quotes))
	for k, v := range w.quotes {
		out[k] = v
	}
	return out, w.updatedAt, w.lastErr
}

// Subscribe returns a channel that receives a signal after each successful
// poll. The channel has a buffer of one; slow consumers miss intermediate
// signals, never block the watcher.
func (w *Watcher) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	w.mu.Lock()
	w.subs = append(w.subs, ch)
	w.mu.Unlock()
	return ch
}
