package models

import "time"

// Lesson is a single unit within an island.
type Lesson struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	XP       int    `json:"xp"` // XP awarded on first completion
	IslandID string `json:"island_id"`
}

// Island groups lessons into a themed stage of the learning map.
// Islands unlock in order: an island is available once every lesson of the
// previous island is complete.
type Island struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Order   int      `json:"order"`
	Lessons []Lesson `json:"lessons"`
}

// Achievement is a badge earned when its predicate first becomes true.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Progress is the user's gamification state. Persisted locally on every
// change and synced to the backend on a best-effort basis.
type Progress struct {
	UserID       string          `json:"user_id"`
	Completed    map[string]bool `json:"completed"` // lesson ID → done
	XP           int             `json:"xp"`
	Level        int             `json:"level"`
	Streak       int             `json:"streak"`
	LastActive   time.Time       `json:"last_active"`
	Achievements []string        `json:"achievements,omitempty"` // earned achievement IDs
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewProgress returns the default zero-state progress for a user.
func NewProgress(userID string) *Progress {
	return &Progress{
		UserID:    userID,
		Completed: map[string]bool{},
		Level:     1,
	}
}

// CompletedCount returns the number of completed lessons.
func (p *Progress) CompletedCount() int {
	n := 0
	for _, done := range p.Completed {
		if done {
			n++
		}
	}
	return n
}

// HasAchievement reports whether the achievement has been earned.
func (p *Progress) HasAchievement(id string) bool {
	for _, a := range p.Achievements {
		if a == id {
			return true
		}
	}
	return false
}
