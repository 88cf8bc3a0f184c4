package server

import (
	"net/http"
	"time"

	"github.com/finlet-app/finlet/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	tokens := s.app.Tokens

	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Session
	mux.HandleFunc("/api/session/sign-in", s.handleSignIn)
	mux.HandleFunc("/api/session", s.handleSession)
	mux.HandleFunc("/api/session/sign-out", requireSession(tokens, s.handleSignOut))
	mux.HandleFunc("/api/session/refresh", requireSession(tokens, s.handleSessionRefresh))
	mux.HandleFunc("/api/session/onboarding", requireSession(tokens, s.handleOnboarding))

	// Dashboard
	mux.HandleFunc("/api/dashboard", requireSession(tokens, s.handleDashboard))
	mux.HandleFunc("/api/dashboard/chart.png", requireSession(tokens, s.handleDashboardChart))

	// Market data
	mux.HandleFunc("/api/quotes", s.handleQuotes)
	mux.HandleFunc("/api/stocks/", s.handleStockDetails)

	// Trading
	mux.HandleFunc("/api/trade/buy", requireSession(tokens, s.handleBuy))
	mux.HandleFunc("/api/trade/sell", requireSession(tokens, s.handleSell))
	mux.HandleFunc("/api/trade/history", requireSession(tokens, s.handleTradeHistory))
	mux.HandleFunc("/api/trade/balance", requireSession(tokens, s.handleBalance))

	// Education
	mux.HandleFunc("/api/education/islands", requireSession(tokens, s.handleIslands))
	mux.HandleFunc("/api/education/progress", requireSession(tokens, s.handleProgress))
	mux.HandleFunc("/api/education/complete", requireSession(tokens, s.handleCompleteLesson))

	// AI advisor
	mux.HandleFunc("/api/ai/daily-brief", s.handleDailyBrief)
	mux.HandleFunc("/api/ai/intelligence/", s.handleStockIntelligence)
	mux.HandleFunc("/api/ai/trending", s.handleTrending)
	mux.HandleFunc("/api/ai/international", s.handleInternational)
	mux.HandleFunc("/api/ai/chat", requireSession(tokens, s.handleChat))

	// Preferences
	mux.HandleFunc("/api/theme", s.handleTheme)
}

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteData(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": common.GetVersion(),
		"uptime":  time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}

// handleVersion handles GET /api/version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteData(w, http.StatusOK, map[string]string{
		"version": common.Version,
		"build":   common.Build,
		"commit":  common.GitCommit,
	})
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")
	WriteData(w, http.StatusOK, map[string]string{"status": "shutting down"})

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}
