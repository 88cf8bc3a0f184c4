package quote

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/finlet-app/finlet/internal/common"
	"github.com/finlet-app/finlet/internal/models"
)

// blockingFetcher serves canned quotes and can hold a request open until
// released, to simulate a slow in-flight response.
type blockingFetcher struct {
	mu      sync.Mutex
	quotes  map[string]models.Quote
	block   chan struct{} // when non-nil, the next call waits on it
	calls   [][]string
	ctxErrs []error       // ctx.Err() observed per call
	blocked chan struct{} // signalled when a call starts waiting
}

func (f *blockingFetcher) GetQuotes(ctx context.Context, symbols []string) []models.Quote {
	f.mu.Lock()
	f.calls = append(f.calls, symbols)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	block := f.block
	f.block = nil
	quotes := f.quotes
	f.mu.Unlock()

	if block != nil {
		f.blocked <- struct{}{}
		<-block
	}

	var out []models.Quote
	for _, s := range symbols {
		if q, ok := quotes[s]; ok {
			out = append(out, q)
		}
	}
	return out
}

func (f *blockingFetcher) setQuotes(quotes map[string]models.Quote) {
	f.mu.Lock()
	f.quotes = quotes
	f.mu.Unlock()
}

func newTestWatcher(f *blockingFetcher) *Watcher {
	return NewWatcher(f, common.NewSilentLogger(), time.Hour)
}

func TestWatcher_EmptySetNoFetch(t *testing.T) {
	f := &blockingFetcher{}
	w := newTestWatcher(f)

	w.poll(context.Background())

	if len(f.calls) != 0 {
		t.Errorf("empty watch set must not fetch, got %d calls", len(f.calls))
	}
}

func TestWatcher_PollUpdatesSnapshot(t *testing.T) {
	f := &blockingFetcher{quotes: map[string]models.Quote{
		"AAPL": {Symbol: "AAPL", Price: 185.50},
	}}
	w := newTestWatcher(f)

	w.SetSymbols(context.Background(), []string{"aapl"})
	waitForQuote(t, w, "AAPL")

	quotes, updatedAt, err := w.Snapshot()
	if quotes["AAPL"].Price != 185.50 {
		t.Errorf("expected 185.50, got %f", quotes["AAPL"].Price)
	}
	if updatedAt.IsZero() {
		t.Error("expected updatedAt to be set after a poll")
	}
	if err != nil {
		t.Errorf("unexpected poll error: %v", err)
	}
}

func TestWatcher_PermutationIsNoOp(t *testing.T) {
	f := &blockingFetcher{quotes: map[string]models.Quote{
		"AAPL": {Symbol: "AAPL", Price: 185.50},
		"TSLA": {Symbol: "TSLA", Price: 242.10},
	}}
	w := newTestWatcher(f)

	w.SetSymbols(context.Background(), []string{"AAPL", "TSLA"})
	waitForQuote(t, w, "TSLA")

	callsBefore := countCalls(f)
	w.SetSymbols(context.Background(), []string{"tsla", "aapl"})

	// Give an erroneous refetch a moment to happen.
	time.Sleep(50 * time.Millisecond)
	if countCalls(f) != callsBefore {
		t.Error("reordered symbol set must not trigger a refetch")
	}
}

func TestWatcher_StaleFetchDiscarded(t *testing.T) {
	f := &blockingFetcher{
		quotes:  map[string]models.Quote{"AAPL": {Symbol: "AAPL", Price: 100}},
		blocked: make(chan struct{}, 1),
	}
	w := newTestWatcher(f)

	// First fetch blocks mid-flight.
	release := make(chan struct{})
	f.mu.Lock()
	f.block = release
	f.mu.Unlock()

	w.SetSymbols(context.Background(), []string{"AAPL"})
	<-f.blocked

	// The set changes while the old fetch is outstanding.
	f.setQuotes(map[string]models.Quote{"TSLA": {Symbol: "TSLA", Price: 242.10}})
	w.SetSymbols(context.Background(), []string{"TSLA"})
	waitForQuote(t, w, "TSLA")

	// Let the stale fetch finish; its AAPL result must be discarded.
	close(release)
	time.Sleep(50 * time.Millisecond)

	quotes, _, _ := w.Snapshot()
	if _, ok := quotes["AAPL"]; ok {
		t.Error("stale fetch for a replaced symbol set must not land in the snapshot")
	}
	if quotes["TSLA"].Price != 242.10 {
		t.Errorf("current set quote missing, got %v", quotes)
	}
}

func TestWatcher_RemovedSymbolsCleared(t *testing.T) {
	f := &blockingFetcher{quotes: map[string]models.Quote{
		"AAPL": {Symbol: "AAPL", Price: 185.50},
		"TSLA": {Symbol: "TSLA", Price: 242.10},
	}}
	w := newTestWatcher(f)

	w.SetSymbols(context.Background(), []string{"AAPL", "TSLA"})
	waitForQuote(t, w, "TSLA")

	w.SetSymbols(context.Background(), []string{"AAPL"})
	waitForCondition(t, func() bool {
		quotes, _, _ := w.Snapshot()
		_, gone := quotes["TSLA"]
		return !gone
	})
}

func TestWatcher_SubscribeNotified(t *testing.T) {
	f := &blockingFetcher{quotes: map[string]models.Quote{
		"AAPL": {Symbol: "AAPL", Price: 185.50},
	}}
	w := newTestWatcher(f)
	ch := w.Subscribe()

	w.SetSymbols(context.Background(), []string{"AAPL"})

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a notification after poll")
	}
}

func TestWatcher_FailedPollKeepsTimestampAndRecordsError(t *testing.T) {
	// No quotes at all: every requested symbol gets dropped, which is how
	// a backend outage or cancelled fetch surfaces from the service layer.
	f := &blockingFetcher{}
	w := newTestWatcher(f)
	ch := w.Subscribe()

	w.SetSymbols(context.Background(), []string{"AAPL"})
	waitForCondition(t, func() bool {
		_, _, err := w.Snapshot()
		return err != nil
	})

	_, updatedAt, err := w.Snapshot()
	if !updatedAt.IsZero() {
		t.Error("a failed poll must not advance the update time")
	}
	if err == nil {
		t.Error("expected the poll failure to be recorded")
	}
	select {
	case <-ch:
		t.Error("a failed poll must not signal subscribers")
	default:
	}

	// Once quotes come back, the next poll recovers and clears the error.
	f.setQuotes(map[string]models.Quote{"AAPL": {Symbol: "AAPL", Price: 185.50}})
	w.poll(context.Background())

	quotes, updatedAt, err := w.Snapshot()
	if err != nil {
		t.Errorf("expected the error to clear after a successful poll, got %v", err)
	}
	if updatedAt.IsZero() {
		t.Error("expected the update time to advance on recovery")
	}
	if quotes["AAPL"].Price != 185.50 {
		t.Errorf("expected recovered quote, got %v", quotes)
	}
	select {
	case <-ch:
	default:
		t.Error("expected a notification after the successful poll")
	}
}

func TestWatcher_TriggeredRefreshOutlivesCaller(t *testing.T) {
	f := &blockingFetcher{quotes: map[string]models.Quote{
		"AAPL": {Symbol: "AAPL", Price: 185.50},
	}}
	w := newTestWatcher(f)
	w.Start(context.Background())
	defer w.Stop()

	// The caller's context is already dead, as it is when a request
	// handler returns before the triggered refresh runs.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.SetSymbols(ctx, []string{"AAPL"})
	waitForQuote(t, w, "AAPL")

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, err := range f.ctxErrs {
		if err != nil {
			t.Errorf("fetch %d ran on a cancelled context: %v", i, err)
		}
	}
}

func TestWatcher_StartStop(t *testing.T) {
	f := &blockingFetcher{quotes: map[string]models.Quote{
		"AAPL": {Symbol: "AAPL", Price: 185.50},
	}}
	w := newTestWatcher(f)

	w.Start(context.Background())
	w.SetSymbols(context.Background(), []string{"AAPL"})
	waitForQuote(t, w, "AAPL")
	w.Stop()
}

// --- helpers ---

func countCalls(f *blockingFetcher) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func waitForQuote(t *testing.T, w *Watcher, symbol string) {
	t.Helper()
	waitForCondition(t, func() bool {
		quotes, _, _ := w.Snapshot()
		_, ok := quotes[symbol]
		return ok
	})
}

func waitForCondition(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}
