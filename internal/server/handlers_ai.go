package server

import (
	"net/http"

	"github.com/finlet-app/finlet/internal/models"
)

// handleDailyBrief handles GET /api/ai/daily-brief.
func (s *Server) handleDailyBrief(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	brief, err := s.app.AdvisorService.DailyBrief(r.Context())
	if err != nil {
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	WriteData(w, http.StatusOK, brief)
}

// handleStockIntelligence handles GET /api/ai/intelligence/{symbol}.
func (s *Server) handleStockIntelligence(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := PathParam(r, "/api/ai/intelligence/", "")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	intel, err := s.app.AdvisorService.StockIntelligence(r.Context(), symbol)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteData(w, http.StatusOK, intel)
}

// handleTrending handles GET /api/ai/trending.
func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	stocks, err := s.app.AdvisorService.TrendingStocks(r.Context())
	if err != nil {
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	WriteData(w, http.StatusOK, stocks)
}

// handleInternational handles GET /api/ai/international?region=asia.
func (s *Server) handleInternational(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	stocks, err := s.app.AdvisorService.InternationalStocks(r.Context(), r.URL.Query().Get("region"))
	if err != nil {
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	WriteData(w, http.StatusOK, stocks)
}

type chatRequest struct {
	Message string               `json:"message"`
	History []models.ChatMessage `json:"history,omitempty"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// handleChat handles POST /api/ai/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req chatRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	reply, err := s.app.AdvisorService.Chat(r.Context(), req.History, req.Message)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteData(w, http.StatusOK, chatResponse{Reply: reply})
}
