package server

import (
	"net/http"
	"strconv"

	"github.com/finlet-app/finlet/internal/clients/tradedesk"
	"github.com/finlet-app/finlet/internal/models"
)

type tradeIntent struct {
	Ticker   string `json:"ticker"`
	Quantity int64  `json:"quantity"`
}

// handleBuy handles POST /api/trade/buy.
func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, models.OrderSideBuy)
}

// handleSell handles POST /api/trade/sell.
func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, models.OrderSideSell)
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request, side models.OrderSide) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var intent tradeIntent
	if !DecodeJSON(w, r, &intent) {
		return
	}

	var (
		result *models.TradeResult
		err    error
	)
	if side == models.OrderSideBuy {
		result, err = s.app.TradingService.ExecuteBuy(r.Context(), intent.Ticker, intent.Quantity)
	} else {
		result, err = s.app.TradingService.ExecuteSell(r.Context(), intent.Ticker, intent.Quantity)
	}
	if err != nil {
		WriteError(w, tradeStatus(err), err.Error())
		return
	}
	WriteData(w, http.StatusOK, result)
}

// tradeStatus maps trade failures onto HTTP codes: backend rejections keep
// their status, everything else is a bad request.
func tradeStatus(err error) int {
	if apiErr, ok := err.(*tradedesk.APIError); ok && apiErr.StatusCode > 0 {
		return apiErr.StatusCode
	}
	return http.StatusBadRequest
}

// handleTradeHistory handles GET /api/trade/history?limit=N.
func (s *Server) handleTradeHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	txns, err := s.app.TradingService.History(r.Context(), limit)
	if err != nil {
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	WriteData(w, http.StatusOK, txns)
}

// handleBalance handles GET /api/trade/balance.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	balance, err := s.app.TradingService.Balance(r.Context())
	if err != nil {
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	WriteData(w, http.StatusOK, map[string]float64{"balance": balance})
}
