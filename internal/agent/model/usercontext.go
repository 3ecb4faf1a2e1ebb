package model

import (
	"context"
	"time"
)

// UserContext is everything the caller knows about the user for this turn.
// The engine never mutates it.
type UserContext struct {
	UserID            string       `json:"user_id"`
	Profile           *UserProfile `json:"profile,omitempty"`
	Goal              *Goal        `json:"goal,omitempty"`
	RecentLogs        []DailyLog   `json:"recent_logs,omitempty"`
	RecentFoodEntries []FoodEntry  `json:"recent_food_entries,omitempty"`
}

type UserProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Goal is the persisted, authoritative goal record of a user.
type Goal struct {
	Type            GoalKind       `json:"goal_type"`
	Description     string         `json:"goal_text"`
	TargetWeightKg  float64        `json:"target_weight,omitempty"`
	Timeframe       string         `json:"timeframe,omitempty"`
	ActivityLevel   string         `json:"activity_level,omitempty"`
	Preferences     string         `json:"preferences,omitempty"`
	Allergies       string         `json:"allergies,omitempty"`
	CurrentWeightKg float64        `json:"current_weight,omitempty"`
	HeightCm        float64        `json:"height,omitempty"`
	Age             int            `json:"age,omitempty"`
	Gender          string         `json:"gender,omitempty"`
	Analysis        map[string]any `json:"analysis_result,omitempty"`
}

type DailyLog struct {
	Steps             int       `json:"steps"`
	SleepHours        float64   `json:"sleep_hours"`
	WaterIntakeLiters float64   `json:"water_intake"`
	Calories          float64   `json:"calories"`
	CreatedAt         time.Time `json:"created_at"`
}

type FoodEntry struct {
	ItemName  string    `json:"item_name"`
	Calories  int       `json:"calories"`
	Confirmed bool      `json:"confirmed"`
	CreatedAt time.Time `json:"created_at"`
}

// LogRepository reads and writes a user's health logs.
type LogRepository interface {
	AddDailyLog(ctx context.Context, userID string, log DailyLog) error
	AddFoodEntry(ctx context.Context, userID string, entry FoodEntry) error
	RecentDailyLogs(ctx context.Context, userID string, since time.Time) ([]DailyLog, error)
	RecentFoodEntries(ctx context.Context, userID string, since time.Time) ([]FoodEntry, error)
}
