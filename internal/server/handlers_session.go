package server

import (
	"net/http"

	"github.com/finlet-app/finlet/internal/models"
)

type signInRequest struct {
	IDToken string `json:"id_token"`
}

type sessionResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token,omitempty"`
}

// handleSignIn handles POST /api/session/sign-in.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req signInRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.IDToken == "" {
		WriteError(w, http.StatusBadRequest, "id_token is required")
		return
	}

	user, err := s.app.SessionService.SignIn(r.Context(), req.IDToken)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, err.Error())
		return
	}

	token, err := s.app.Tokens.Issue(user)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to issue session token")
		return
	}

	WriteData(w, http.StatusOK, sessionResponse{User: user, Token: token})
}

// handleSession handles GET /api/session: the current user, or null when
// signed out. Open so the UI can check session state before authenticating.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteData(w, http.StatusOK, sessionResponse{User: s.app.SessionService.User()})
}

// handleSessionRefresh handles POST /api/session/refresh.
func (s *Server) handleSessionRefresh(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	user, err := s.app.SessionService.RefreshUserData(r.Context())
	if err != nil {
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	WriteData(w, http.StatusOK, sessionResponse{User: user})
}

// handleOnboarding handles POST /api/session/onboarding.
func (s *Server) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var profile models.OnboardingProfile
	if !DecodeJSON(w, r, &profile) {
		return
	}

	if err := s.app.SessionService.SaveOnboarding(r.Context(), &profile); err != nil {
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	WriteData(w, http.StatusOK, sessionResponse{User: s.app.SessionService.User()})
}

// handleSignOut handles POST /api/session/sign-out.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := s.app.SessionService.SignOut(r.Context()); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteData(w, http.StatusOK, map[string]string{"status": "signed out"})
}

type themeRequest struct {
	Theme string `json:"theme"`
}

// handleTheme handles GET and PUT /api/theme.
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		theme, err := s.app.Store.GetTheme(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if theme == "" {
			theme = "light"
		}
		WriteData(w, http.StatusOK, themeRequest{Theme: theme})
	case http.MethodPut:
		var req themeRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		if req.Theme != "light" && req.Theme != "dark" {
			WriteError(w, http.StatusBadRequest, "theme must be light or dark")
			return
		}
		if err := s.app.Store.SetTheme(r.Context(), req.Theme); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteData(w, http.StatusOK, req)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut)
	}
}
