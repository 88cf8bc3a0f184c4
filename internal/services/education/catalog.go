package education

import "github.com/finlet-app/finlet/internal/models"

// The learning map ships with the agent. Lesson IDs are stable; progress
// is keyed on them.
var islands = []models.Island{
	{
		ID:    "money-basics",
		Title: "Money Basics",
		Order: 1,
		Lessons: []models.Lesson{
			{ID: "what-is-money", Title: "What Is Money?", XP: 20, IslandID: "money-basics"},
			{ID: "earning-income", Title: "Earning an Income", XP: 20, IslandID: "money-basics"},
			{ID: "needs-vs-wants", Title: "Needs vs Wants", XP: 25, IslandID: "money-basics"},
			{ID: "banks-and-accounts", Title: "Banks and Accounts", XP: 25, IslandID: "money-basics"},
		},
	},
	{
		ID:    "budgeting-bay",
		Title: "Budgeting Bay",
		Order: 2,
		Lessons: []models.Lesson{
			{ID: "building-a-budget", Title: "Building a Budget", XP: 30, IslandID: "budgeting-bay"},
			{ID: "emergency-funds", Title: "Emergency Funds", XP: 30, IslandID: "budgeting-bay"},
			{ID: "credit-and-debt", Title: "Credit and Debt", XP: 35, IslandID: "budgeting-bay"},
		},
	},
	{
		ID:    "investing-island",
		Title: "Investing Island",
		Order: 3,
		Lessons: []models.Lesson{
			{ID: "what-is-a-stock", Title: "What Is a Stock?", XP: 40, IslandID: "investing-island"},
			{ID: "risk-and-reward", Title: "Risk and Reward", XP: 40, IslandID: "investing-island"},
			{ID: "diversification", Title: "Diversification", XP: 45, IslandID: "investing-island"},
			{ID: "reading-a-quote", Title: "Reading a Stock Quote", XP: 45, IslandID: "investing-island"},
		},
	},
	{
		ID:    "market-mountain",
		Title: "Market Mountain",
		Order: 4,
		Lessons: []models.Lesson{
			{ID: "placing-a-trade", Title: "Placing Your First Trade", XP: 50, IslandID: "market-mountain"},
			{ID: "market-movements", Title: "Why Markets Move", XP: 50, IslandID: "market-mountain"},
			{ID: "long-term-thinking", Title: "Thinking Long Term", XP: 60, IslandID: "market-mountain"},
		},
	},
}

var achievements = []models.Achievement{
	{ID: "first-steps", Title: "First Steps", Description: "Complete your first lesson"},
	{ID: "getting-serious", Title: "Getting Serious", Description: "Complete five lessons"},
	{ID: "week-streak", Title: "On a Roll", Description: "Learn seven days in a row"},
	{ID: "level-five", Title: "Scholar", Description: "Reach level 5"},
	{ID: "graduate", Title: "Graduate", Description: "Complete every lesson"},
}

// findLesson looks a lesson up by ID across all islands.
func findLesson(id string) *models.Lesson {
	for i := range islands {
		for j := range islands[i].Lessons {
			if islands[i].Lessons[j].ID == id {
				return &islands[i].Lessons[j]
			}
		}
	}
	return nil
}

// totalLessons is the catalog size, used by the graduate achievement.
func totalLessons() int {
	n := 0
	for i := range islands {
		n += len(islands[i].Lessons)
	}
	return n
}

// islandDone reports whether every lesson of the island is complete.
func islandDone(island models.Island, progress *models.Progress) bool {
	for _, lesson := range island.Lessons {
		if !progress.Completed[lesson.ID] {
			return false
		}
	}
	return true
}
