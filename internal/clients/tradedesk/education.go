package tradedesk

import (
	"context"
	"net/url"

	"github.com/finlet-app/finlet/internal/models"
)

// GetProgress retrieves education progress from the backend.
func (c *Client) GetProgress(ctx context.Context, userID string) (*models.Progress, error) {
	var progress models.Progress
	if err := c.get(ctx, "/api/education/progress?user_id="+url.QueryEscape(userID), &progress); err != nil {
		return nil, err
	}
	if progress.Completed == nil {
		progress.Completed = map[string]bool{}
	}
	if progress.UserID == "" {
		progress.UserID = userID
	}
	return &progress, nil
}

// SaveProgress persists education progress. The budget is short: a slow save
// must not stall lesson completion, the local copy is already durable.
func (c *Client) SaveProgress(ctx context.Context, progress *models.Progress) error {
	ctx, cancel := context.WithTimeout(ctx, c.saveTimeout)
	defer cancel()
	return c.post(ctx, "/api/education/progress", progress, nil)
}
