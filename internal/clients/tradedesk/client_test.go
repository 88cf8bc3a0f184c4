package tradedesk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finlet-app/finlet/internal/models"
)

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{"success": true, "data": data}
}

func TestGetQuote_ParsesResponse(t *testing.T) {
	var capturedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(envelope(map[string]interface{}{
			"symbol":         "AAPL",
			"price":          189.50,
			"change":         1.25,
			"change_percent": 0.66,
			"volume":         52000000,
			"previous_close": 188.25,
		}))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	quote := client.GetQuote(context.Background(), "aapl")

	if capturedPath != "/auth/stock-quote/aapl" {
		t.Errorf("expected path /auth/stock-quote/aapl, got %s", capturedPath)
	}
	if quote.Symbol != "AAPL" {
		t.Errorf("expected symbol AAPL, got %s", quote.Symbol)
	}
	if quote.Price != 189.50 {
		t.Errorf("expected price 189.50, got %.2f", quote.Price)
	}
	if quote.Source != "tradedesk" {
		t.Errorf("expected source tradedesk, got %s", quote.Source)
	}
	if quote.FetchedAt.IsZero() {
		t.Error("expected fetched_at to be set")
	}
}

func TestGetQuote_FailureReturnsZeroQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	quote := client.GetQuote(context.Background(), "INVALIDTICKER")

	if !quote.IsZero() {
		t.Errorf("expected zero quote, got price %.2f", quote.Price)
	}
	if quote.Symbol != "INVALIDTICKER" {
		t.Errorf("expected symbol preserved, got %s", quote.Symbol)
	}
}

func TestGetQuote_EnvelopeFailureReturnsZeroQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "unknown symbol"})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	quote := client.GetQuote(context.Background(), "ZZZZ")

	if !quote.IsZero() {
		t.Errorf("expected zero quote on success:false, got price %.2f", quote.Price)
	}
}

func TestGetQuotes_FiltersZeroPriceEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(envelope([]map[string]interface{}{
			{"symbol": "AAPL", "price": 189.50},
			{"symbol": "BADTICK", "price": 0},
			{"symbol": "MSFT", "price": 420.10},
		}))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	quotes := client.GetQuotes(context.Background(), []string{"AAPL", "BADTICK", "MSFT"})

	if len(quotes) != 2 {
		t.Fatalf("expected 2 quotes after filtering, got %d", len(quotes))
	}
	for _, q := range quotes {
		if q.IsZero() {
			t.Errorf("zero-price quote %s should have been filtered", q.Symbol)
		}
	}
}

func TestGetQuotes_EmptyInputShortCircuits(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	quotes := client.GetQuotes(context.Background(), nil)

	if quotes != nil {
		t.Errorf("expected nil quotes for empty input, got %v", quotes)
	}
	if called {
		t.Error("expected no network call for empty symbol list")
	}
}

func TestBuy_SendsIdempotencyKeyAndReturnsBalance(t *testing.T) {
	var capturedKey string
	var capturedReq tradeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedKey = r.Header.Get("Idempotency-Key")
		json.NewDecoder(r.Body).Decode(&capturedReq)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(envelope(map[string]interface{}{
			"ticker":      "AAPL",
			"quantity":    5,
			"price":       189.50,
			"total":       947.50,
			"new_balance": 9052.50,
		}))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	result, err := client.Buy(context.Background(), "user@x.com", "AAPL", 5, "idem-123")
	if err != nil {
		t.Fatalf("Buy failed: %v", err)
	}

	if capturedKey != "idem-123" {
		t.Errorf("expected Idempotency-Key header idem-123, got %q", capturedKey)
	}
	if capturedReq.ClientRef != "idem-123" {
		t.Errorf("expected client_ref idem-123 in body, got %q", capturedReq.ClientRef)
	}
	if result.NewBalance != 9052.50 {
		t.Errorf("expected new balance 9052.50, got %.2f", result.NewBalance)
	}
	if result.Side != models.OrderSideBuy {
		t.Errorf("expected side buy, got %s", result.Side)
	}
}

func TestBuy_BackendFailureSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "insufficient funds"})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.Buy(context.Background(), "user@x.com", "AAPL", 500000, "idem-456")
	if err == nil {
		t.Fatal("expected error for backend failure")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Message != "insufficient funds" {
		t.Errorf("expected backend message preserved, got %q", apiErr.Message)
	}
}

func TestGetPortfolio_DropsZeroQuantityPositions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(envelope(map[string]interface{}{
			"portfolio": []map[string]interface{}{
				{"ticker": "AAPL", "quantity": 5, "avg_price": 180.0},
				{"ticker": "SOLD", "quantity": 0, "avg_price": 50.0},
			},
			"total_value":  947.50,
			"cash_balance": 9052.50,
		}))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	summary, err := client.GetPortfolio(context.Background(), "user@x.com")
	if err != nil {
		t.Fatalf("GetPortfolio failed: %v", err)
	}

	if len(summary.Items) != 1 {
		t.Fatalf("expected 1 position after dropping zero quantity, got %d", len(summary.Items))
	}
	if summary.Items[0].Ticker != "AAPL" {
		t.Errorf("expected AAPL retained, got %s", summary.Items[0].Ticker)
	}
	if summary.CashBalance != 9052.50 {
		t.Errorf("expected cash balance 9052.50, got %.2f", summary.CashBalance)
	}
}

func TestVerifyToken_MapsProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/verify-token" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(envelope(map[string]interface{}{
			"id":        "u-1",
			"email":     "user@x.com",
			"name":      "Jamie",
			"goal":      "save for a home",
			"language":  "en",
			"onboarded": true,
		}))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	user, err := client.VerifyToken(context.Background(), "google-id-token")
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if user.Email != "user@x.com" {
		t.Errorf("expected email user@x.com, got %s", user.Email)
	}
	if user.Onboarding == nil || !user.Onboarding.Completed {
		t.Error("expected completed onboarding profile")
	}
}
