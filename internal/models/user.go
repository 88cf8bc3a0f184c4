// Package models defines data structures for Finlet
package models

import "time"

// User represents the signed-in user with their onboarding profile and the
// portfolio as last reported by the trading backend. Portfolio, TotalValue
// and CashBalance always come from the trading backend — never from a cached
// profile — so stale or fabricated holdings are never displayed.
type User struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`

	Onboarding *OnboardingProfile `json:"onboarding,omitempty"`

	Portfolio   []PortfolioItem `json:"portfolio"`
	TotalValue  float64         `json:"total_value"`
	CashBalance float64         `json:"cash_balance"`

	CreatedAt   time.Time `json:"created_at,omitempty"`
	RefreshedAt time.Time `json:"refreshed_at,omitempty"`
}

// Identifier returns the identifier to address backend calls with.
// Email is preferred over the internal ID; an empty result means the
// caller must abort rather than guess.
func (u *User) Identifier() string {
	if u == nil {
		return ""
	}
	if u.Email != "" {
		return u.Email
	}
	return u.ID
}

// OnboardingProfile holds the answers collected by the first-run flow.
type OnboardingProfile struct {
	Goal          string   `json:"goal"`
	Language      string   `json:"language"`
	LifestyleTags []string `json:"lifestyle_tags,omitempty"`
	VisaStatus    string   `json:"visa_status,omitempty"`
	HomeCountry   string   `json:"home_country,omitempty"`
	Completed     bool     `json:"completed"`
}
