// Package localdb implements LocalStore using BadgerHold. It holds the
// agent's session-scoped state: the cached user, the sign-in token, the UI
// theme, education progress, and the portfolio value history.
package localdb

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/finlet-app/finlet/internal/common"
	"github.com/finlet-app/finlet/internal/interfaces"
	"github.com/finlet-app/finlet/internal/models"
)

// Store implements interfaces.LocalStore using BadgerHold.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// Single-session records live under fixed keys; the agent serves one
// signed-in user at a time.
const (
	keyCachedUser = "cached_user"
	keyToken      = "session_token"
	keyTheme      = "theme"
)

// kvSep separates composite key parts. A null byte cannot appear in user
// IDs, so distinct (user, suffix) pairs always map to distinct keys.
const kvSep = "\x00"

// maxValuePoints bounds the stored value history; the oldest samples are
// pruned once the limit is exceeded.
const maxValuePoints = 2000

// kvRecord is a plain string cell for tokens and settings.
type kvRecord struct {
	Key      string
	Value    string
	DateTime time.Time
}

// userRecord wraps the cached user for storage.
type userRecord struct {
	Key  string
	User *models.User
}

// progressRecord wraps per-user education progress.
type progressRecord struct {
	UserID   string
	Progress *models.Progress
}

// valueRecord is one stored portfolio valuation sample.
type valueRecord struct {
	UserID string
	Time   time.Time
	Value  float64
}

// NewStore creates a LocalStore backed by BadgerHold.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create local db path %s: %w", path, err)
	}
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil
	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open local db at %s: %w", path, err)
	}
	logger.Info().Str("path", path).Msg("LocalDB opened")
	return &Store{db: db, logger: logger}, nil
}

// --- Cached user ---

func (s *Store) GetCachedUser(_ context.Context) (*models.User, error) {
	var rec userRecord
	if err := s.db.Get(keyCachedUser, &rec); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached user: %w", err)
	}
	return rec.User, nil
}

func (s *Store) SaveCachedUser(_ context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("cannot cache a nil user")
	}
	rec := userRecord{Key: keyCachedUser, User: user}
	if err := s.db.Upsert(keyCachedUser, &rec); err != nil {
		return fmt.Errorf("failed to save cached user: %w", err)
	}
	s.logger.Debug().Str("user", user.Identifier()).Msg("User cached")
	return nil
}

func (s *Store) DeleteCachedUser(_ context.Context) error {
	if err := s.db.Delete(keyCachedUser, userRecord{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete cached user: %w", err)
	}
	return nil
}

// --- Sign-in token ---

func (s *Store) GetToken(ctx context.Context) (string, error) {
	return s.getKV(keyToken)
}

func (s *Store) SaveToken(_ context.Context, token string) error {
	return s.setKV(keyToken, token)
}

func (s *Store) DeleteToken(_ context.Context) error {
	return s.deleteKV(keyToken)
}

// --- UI theme ---

func (s *Store) GetTheme(_ context.Context) (string, error) {
	return s.getKV(keyTheme)
}

func (s *Store) SetTheme(_ context.Context, theme string) error {
	return s.setKV(keyTheme, theme)
}

// --- Education progress ---

func (s *Store) GetProgress(_ context.Context, userID string) (*models.Progress, error) {
	var rec progressRecord
	if err := s.db.Get(userID, &rec); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get progress for '%s': %w", userID, err)
	}
	return rec.Progress, nil
}

func (s *Store) SaveProgress(_ context.Context, progress *models.Progress) error {
	if progress == nil || progress.UserID == "" {
		return fmt.Errorf("progress requires a user ID")
	}
	rec := progressRecord{UserID: progress.UserID, Progress: progress}
	if err := s.db.Upsert(progress.UserID, &rec); err != nil {
		return fmt.Errorf("failed to save progress for '%s': %w", progress.UserID, err)
	}
	return nil
}

// --- Portfolio value history ---

func (s *Store) AppendValuePoint(_ context.Context, userID string, point models.ValuePoint) error {
	if userID == "" {
		return fmt.Errorf("value point requires a user ID")
	}
	key := userID + kvSep + point.Time.UTC().Format(time.RFC3339Nano)
	rec := valueRecord{UserID: userID, Time: point.Time, Value: point.Value}
	if err := s.db.Upsert(key, &rec); err != nil {
		return fmt.Errorf("failed to append value point: %w", err)
	}
	return s.pruneValueHistory(userID)
}

func (s *Store) GetValueHistory(_ context.Context, userID string, limit int) ([]models.ValuePoint, error) {
	records, err := s.findValueRecords(userID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	points := make([]models.ValuePoint, len(records))
	for i, r := range records {
		points[i] = models.ValuePoint{Time: r.Time, Value: r.Value}
	}
	return points, nil
}

// findValueRecords returns a user's samples sorted oldest first.
func (s *Store) findValueRecords(userID string) ([]valueRecord, error) {
	var records []valueRecord
	if err := s.db.Find(&records, badgerhold.Where("UserID").Eq(userID)); err != nil {
		return nil, fmt.Errorf("failed to load value history for '%s': %w", userID, err)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Time.Before(records[j].Time)
	})
	return records, nil
}

func (s *Store) pruneValueHistory(userID string) error {
	records, err := s.findValueRecords(userID)
	if err != nil {
		return err
	}
	if len(records) <= maxValuePoints {
		return nil
	}
	for _, r := range records[:len(records)-maxValuePoints] {
		key := r.UserID + kvSep + r.Time.UTC().Format(time.RFC3339Nano)
		if err := s.db.Delete(key, valueRecord{}); err != nil && err != badgerhold.ErrNotFound {
			return fmt.Errorf("failed to prune value history: %w", err)
		}
	}
	return nil
}

// --- string KV helpers ---

func (s *Store) getKV(key string) (string, error) {
	var rec kvRecord
	if err := s.db.Get(key, &rec); err != nil {
		if err == badgerhold.ErrNotFound {
			return "", nil
		}
		return "", fmt.Errorf("failed to get '%s': %w", key, err)
	}
	return rec.Value, nil
}

func (s *Store) setKV(key, value string) error {
	rec := kvRecord{Key: key, Value: value, DateTime: time.Now()}
	if err := s.db.Upsert(key, &rec); err != nil {
		return fmt.Errorf("failed to set '%s': %w", key, err)
	}
	return nil
}

func (s *Store) deleteKV(key string) error {
	if err := s.db.Delete(key, kvRecord{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete '%s': %w", key, err)
	}
	return nil
}

// Close shuts down the BadgerHold database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ensure Store implements LocalStore
var _ interfaces.LocalStore = (*Store)(nil)
