package tools

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/health-assistant-core/server/internal/agent/model"
	errx "github.com/health-assistant-core/server/internal/core/error"
)

// ===================================
// User Log Summary Tool
// ===================================

const (
	DefaultSummaryDays = 7
	MaxSummaryDays     = 90

	targetWaterLiters = 2.0
	targetSleepHours  = 7.0
	targetDailySteps  = 8000
)

const (
	tipDefault = "Keep up the great work! Consistency is key to achieving your health goals."
	tipWater   = "Remember to drink more water throughout the day to stay hydrated!"
	tipSleep   = "Aim for consistent sleep to support your overall health and energy levels."
	tipSteps   = "Try to incorporate more movement into your day to reach your step goal!"
)

type LogSummaryInput struct {
	UserID string `json:"user_id"`
	Days   int    `json:"days,omitempty"`
}

// LogSummary aggregates the daily logs and food entries of a window.
type LogSummary struct {
	Days           int
	Entries        int
	TotalSteps     int
	AvgSleepHours  float64
	AvgWaterLiters float64
	TotalCalories  float64
	Tip            string
}

// Summarize computes the metrics and the most relevant tip. Later checks win,
// so movement is suggested over sleep, and sleep over hydration.
func Summarize(days int, logs []model.DailyLog, food []model.FoodEntry) LogSummary {
	s := LogSummary{Days: days, Entries: len(logs), Tip: tipDefault}
	if len(logs) == 0 && len(food) == 0 {
		return s
	}

	var sleep, water float64
	for _, l := range logs {
		s.TotalSteps += l.Steps
		sleep += l.SleepHours
		water += l.WaterIntakeLiters
		s.TotalCalories += l.Calories
	}
	for _, f := range food {
		s.TotalCalories += float64(f.Calories)
	}
	if len(logs) == 0 {
		return s
	}

	s.AvgSleepHours = round1(sleep / float64(len(logs)))
	s.AvgWaterLiters = round1(water / float64(len(logs)))

	if s.AvgWaterLiters < targetWaterLiters {
		s.Tip = tipWater
	}
	if s.AvgSleepHours < targetSleepHours {
		s.Tip = tipSleep
	}
	if s.TotalSteps/len(logs) < targetDailySteps {
		s.Tip = tipSteps
	}
	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func (s LogSummary) String() string {
	if s.Entries == 0 && s.TotalCalories == 0 {
		return fmt.Sprintf("No health logs were found for the past %d days.", s.Days)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Summary of the past %d days (%d log entries): ", s.Days, s.Entries)
	fmt.Fprintf(&b, "total steps %d, average sleep %.1f hours, average water intake %.1f liters, total calories consumed %.0f. ",
		s.TotalSteps, s.AvgSleepHours, s.AvgWaterLiters, s.TotalCalories)
	b.WriteString(s.Tip)
	return b.String()
}

// LogSummaryTool reads recent logs from a repository. A nil repository reports no logs.
type LogSummaryTool struct {
	Logs model.LogRepository
	Now  func() time.Time
}

func (t *LogSummaryTool) summarize(ctx context.Context, in *LogSummaryInput) (string, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return "", errx.Invalid("user_id is required")
	}
	days := in.Days
	if days <= 0 {
		days = DefaultSummaryDays
	}
	if days > MaxSummaryDays {
		days = MaxSummaryDays
	}

	if t.Logs == nil {
		return fmt.Sprintf("No health logs are available for user %s in the past %d days.", userID, days), nil
	}

	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	since := now().AddDate(0, 0, -days)

	logs, err := t.Logs.RecentDailyLogs(ctx, userID, since)
	if err != nil {
		return "", fmt.Errorf("load daily logs: %w", err)
	}
	food, err := t.Logs.RecentFoodEntries(ctx, userID, since)
	if err != nil {
		return "", fmt.Errorf("load food entries: %w", err)
	}
	return Summarize(days, logs, food).String(), nil
}

func (t *LogSummaryTool) Tool() tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: LogSummaryName,
			Desc: "Analyzes and summarizes the user's recent health logs (steps, water intake, sleep, calories) from the past few days and gives a tip.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"user_id": {
					Type:     schema.String,
					Desc:     "The ID of the user whose logs are to be summarized",
					Required: true,
				},
				"days": {
					Type: schema.Integer,
					Desc: "Number of past days to summarize, e.g. 3 or 7 (default 7, max 90)",
				},
			}),
		},
		t.summarize,
	)
}
