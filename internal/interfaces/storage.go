// Package interfaces defines service contracts for Finlet
package interfaces

import (
	"context"

	"github.com/finlet-app/finlet/internal/models"
)

// LocalStore persists session-scoped state across agent restarts: the cached
// user, the sign-in token, UI theme, education progress, and the portfolio
// value history behind the dashboard chart.
type LocalStore interface {
	// Cached user
	GetCachedUser(ctx context.Context) (*models.User, error)
	SaveCachedUser(ctx context.Context, user *models.User) error
	DeleteCachedUser(ctx context.Context) error

	// Sign-in token
	GetToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	DeleteToken(ctx context.Context) error

	// UI theme ("dark" or "light"; empty means unset)
	GetTheme(ctx context.Context) (string, error)
	SetTheme(ctx context.Context, theme string) error

	// Education progress
	GetProgress(ctx context.Context, userID string) (*models.Progress, error)
	SaveProgress(ctx context.Context, progress *models.Progress) error

	// Portfolio value history (bounded; oldest entries pruned)
	AppendValuePoint(ctx context.Context, userID string, point models.ValuePoint) error
	GetValueHistory(ctx context.Context, userID string, limit int) ([]models.ValuePoint, error)

	Close() error
}
