package tradedesk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/finlet-app/finlet/internal/models"
)

// Ping checks backend liveness via GET /api/health. Errors are returned so
// the caller can log them, but the warm-up path treats this as fire-and-forget.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: "unhealthy", Endpoint: "/api/health"}
	}
	return nil
}

// VerifyToken exchanges a Google ID token for the backend user record.
// The budget is deliberately long: the backend may be cold-starting.
func (c *Client) VerifyToken(ctx context.Context, idToken string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, c.verifyTimeout)
	defer cancel()

	payload := struct {
		Token string `json:"token"`
	}{Token: idToken}

	var resp userResponse
	if err := c.post(ctx, "/auth/verify-token", payload, &resp); err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}
	return resp.toUser(), nil
}

// GetUser fetches the full user profile by email or internal ID.
func (c *Client) GetUser(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, fmt.Errorf("user identifier is required")
	}
	var resp userResponse
	if err := c.get(ctx, "/auth/user/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return resp.toUser(), nil
}

// SaveOnboarding persists the first-run answers.
func (c *Client) SaveOnboarding(ctx context.Context, id string, profile *models.OnboardingProfile) error {
	payload := struct {
		UserID        string   `json:"user_id"`
		Goal          string   `json:"goal"`
		Language      string   `json:"language"`
		LifestyleTags []string `json:"lifestyle_tags,omitempty"`
		VisaStatus    string   `json:"visa_status,omitempty"`
		HomeCountry   string   `json:"home_country,omitempty"`
	}{
		UserID:        id,
		Goal:          profile.Goal,
		Language:      profile.Language,
		LifestyleTags: profile.LifestyleTags,
		VisaStatus:    profile.VisaStatus,
		HomeCountry:   profile.HomeCountry,
	}
	return c.post(ctx, "/auth/onboarding", payload, nil)
}

// userResponse mirrors the backend's user payload. The portfolio fields here
// come from the profile record and are ignored by the session layer, which
// only trusts the trading endpoints for holdings.
type userResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Picture     string   `json:"picture"`
	Goal        string   `json:"goal"`
	Language    string   `json:"language"`
	Lifestyle   []string `json:"lifestyle_tags"`
	VisaStatus  string   `json:"visa_status"`
	HomeCountry string   `json:"home_country"`
	Onboarded   bool     `json:"onboarded"`
	CreatedAt   string   `json:"created_at"`
}

func (r *userResponse) toUser() *models.User {
	u := &models.User{
		ID:      r.ID,
		Email:   r.Email,
		Name:    r.Name,
		Picture: r.Picture,
	}
	if r.Goal != "" || r.Language != "" || r.Onboarded {
		u.Onboarding = &models.OnboardingProfile{
			Goal:          r.Goal,
			Language:      r.Language,
			LifestyleTags: r.Lifestyle,
			VisaStatus:    r.VisaStatus,
			HomeCountry:   r.HomeCountry,
			Completed:     r.Onboarded,
		}
	}
	if r.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, r.CreatedAt); err == nil {
			u.CreatedAt = t
		}
	}
	return u
}
