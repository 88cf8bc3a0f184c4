// Package education manages the gamified learning map: islands unlock in
// order, lessons award XP once, and streaks track consecutive active days.
// Progress lives in the local store and syncs to the backend best-effort.
package education

import (
	"context"
	"fmt"
	"time"

	"github.com/finlet-app/finlet/internal/common"
	"github.com/finlet-app/finlet/internal/interfaces"
	"github.com/finlet-app/finlet/internal/models"
)

const xpPerLevel = 100

// Service implements EducationService.
type Service struct {
	backend interfaces.TradeDeskClient
	session interfaces.SessionService
	store   interfaces.LocalStore
	logger  *common.Logger
	now     func() time.Time
}

// NewService creates an education service.
func NewService(backend interfaces.TradeDeskClient, session interfaces.SessionService, store interfaces.LocalStore, logger *common.Logger) *Service {
	return &Service{
		backend: backend,
		session: session,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
}

// Islands returns the learning map with per-island unlock state. The first
// island is always unlocked; each later island unlocks once the previous
// one is fully complete.
func (s *Service) Islands(ctx context.Context) ([]interfaces.IslandView, error) {
	progress, err := s.Progress(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]interfaces.IslandView, 0, len(islands))
	unlocked := true
	for _, island := range islands {
		done := 0
		for _, lesson := range island.Lessons {
			if progress.Completed[lesson.ID] {
				done++
			}
		}
		views = append(views, interfaces.IslandView{
			Island:   island,
			Unlocked: unlocked,
			Done:     done,
		})
		unlocked = unlocked && done == len(island.Lessons)
	}
	return views, nil
}

// Progress returns the user's progress: local store first, backend as the
// recovery source on a fresh install, zero-state as the last resort.
func (s *Service) Progress(ctx context.Context) (*models.Progress, error) {
	userID, err := s.userID()
	if err != nil {
		return nil, err
	}

	progress, err := s.store.GetProgress(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	if progress != nil {
		return progress, nil
	}

	remote, err := s.backend.GetProgress(ctx, userID)
	if err == nil && remote != nil && remote.CompletedCount() > 0 {
		if err := s.store.SaveProgress(ctx, remote); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to cache recovered progress")
		}
		return remote, nil
	}
	if err != nil {
		s.logger.Debug().Err(err).Msg("No remote progress available")
	}

	return models.NewProgress(userID), nil
}

// CompleteLesson records a completion. Completing an already-done lesson
// is a no-op: XP is only ever awarded once per lesson.
func (s *Service) CompleteLesson(ctx context.Context, lessonID string) (*models.Progress, error) {
	lesson := findLesson(lessonID)
	if lesson == nil {
		return nil, fmt.Errorf("unknown lesson %q", lessonID)
	}

	progress, err := s.Progress(ctx)
	if err != nil {
		return nil, err
	}
	if progress.Completed[lessonID] {
		return progress, nil
	}

	now := s.now()
	progress.Completed[lessonID] = true
	progress.XP += lesson.XP
	progress.Level = 1 + progress.XP/xpPerLevel
	progress.Streak = nextStreak(progress.Streak, progress.LastActive, now)
	progress.LastActive = now
	progress.UpdatedAt = now

	s.awardAchievements(progress)

	if err := s.store.SaveProgress(ctx, progress); err != nil {
		return nil, fmt.Errorf("failed to save progress: %w", err)
	}

	// Backend sync is best-effort; local progress is never blocked on it.
	if err := s.backend.SaveProgress(ctx, progress); err != nil {
		s.logger.Warn().Err(err).Msg("Progress sync failed, will retry on next completion")
	}

	s.logger.Info().
		Str("lesson", lessonID).
		Int("xp", progress.XP).
		Int("level", progress.Level).
		Msg("Lesson completed")

	return progress, nil
}

// Achievements returns the full badge catalog.
func Achievements() []models.Achievement {
	out := make([]models.Achievement, len(achievements))
	copy(out, achievements)
	return out
}

func (s *Service) awardAchievements(p *models.Progress) {
	award := func(id string) {
		if !p.HasAchievement(id) {
			p.Achievements = append(p.Achievements, id)
			s.logger.Info().Str("achievement", id).Msg("Achievement earned")
		}
	}

	if p.CompletedCount() >= 1 {
		award("first-steps")
	}
	if p.CompletedCount() >= 5 {
		award("getting-serious")
	}
	if p.Streak >= 7 {
		award("week-streak")
	}
	if p.Level >= 5 {
		award("level-five")
	}
	if p.CompletedCount() >= totalLessons() {
		award("graduate")
	}
}

// nextStreak continues the streak on consecutive calendar days, holds it
// within the same day, and resets after a gap.
func nextStreak(streak int, lastActive, now time.Time) int {
	if lastActive.IsZero() {
		return 1
	}
	last := lastActive.Truncate(24 * time.Hour)
	today := now.Truncate(24 * time.Hour)
	switch today.Sub(last) {
	case 0:
		if streak < 1 {
			return 1
		}
		return streak
	case 24 * time.Hour:
		return streak + 1
	default:
		return 1
	}
}

func (s *Service) userID() (string, error) {
	user := s.session.User()
	if user == nil {
		return "", fmt.Errorf("not signed in")
	}
	if user.ID == "" {
		return "", fmt.Errorf("no user identifier available")
	}
	return user.ID, nil
}

// Ensure Service implements EducationService
var _ interfaces.EducationService = (*Service)(nil)
