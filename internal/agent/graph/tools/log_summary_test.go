package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/health-assistant-core/server/internal/agent/model"
)

type fakeLogs struct {
	logs  []model.DailyLog
	food  []model.FoodEntry
	since time.Time
	err   error
}

func (f *fakeLogs) AddDailyLog(context.Context, string, model.DailyLog) error   { return nil }
func (f *fakeLogs) AddFoodEntry(context.Context, string, model.FoodEntry) error { return nil }

func (f *fakeLogs) RecentDailyLogs(_ context.Context, _ string, since time.Time) ([]model.DailyLog, error) {
	f.since = since
	return f.logs, f.err
}

func (f *fakeLogs) RecentFoodEntries(context.Context, string, time.Time) ([]model.FoodEntry, error) {
	return f.food, nil
}

func TestSummarize(t *testing.T) {
	s := Summarize(7, nil, nil)
	assert.Equal(t, "No health logs were found for the past 7 days.", s.String())

	s = Summarize(2, []model.DailyLog{
		{Steps: 10000, SleepHours: 8, WaterIntakeLiters: 2.5, Calories: 1800},
		{Steps: 9000, SleepHours: 7.5, WaterIntakeLiters: 2.1, Calories: 1900},
	}, []model.FoodEntry{{ItemName: "apple", Calories: 95}})
	assert.Equal(t, 19000, s.TotalSteps)
	assert.InDelta(t, 7.8, s.AvgSleepHours, 1e-9)
	assert.InDelta(t, 2.3, s.AvgWaterLiters, 1e-9)
	assert.InDelta(t, 3795, s.TotalCalories, 1e-9)
	assert.Equal(t, tipDefault, s.Tip)

	s = Summarize(1, []model.DailyLog{{Steps: 12000, SleepHours: 8, WaterIntakeLiters: 1.0}}, nil)
	assert.Equal(t, tipWater, s.Tip)

	s = Summarize(1, []model.DailyLog{{Steps: 2000, SleepHours: 5, WaterIntakeLiters: 1.0}}, nil)
	assert.Equal(t, tipSteps, s.Tip)
}

func TestLogSummaryTool(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakeLogs{logs: []model.DailyLog{{Steps: 9000, SleepHours: 6, WaterIntakeLiters: 2.2}}}
	lt := &LogSummaryTool{Logs: repo, Now: func() time.Time { return now }}

	out, err := lt.summarize(ctx, &LogSummaryInput{UserID: "u1", Days: 3})
	require.NoError(t, err)
	assert.Contains(t, out, "Summary of the past 3 days (1 log entries)")
	assert.Contains(t, out, tipSleep)
	assert.Equal(t, now.AddDate(0, 0, -3), repo.since)

	_, err = lt.summarize(ctx, &LogSummaryInput{UserID: "u1", Days: 1000})
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, -MaxSummaryDays), repo.since)

	_, err = lt.summarize(ctx, &LogSummaryInput{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, -DefaultSummaryDays), repo.since)

	_, err = lt.summarize(ctx, &LogSummaryInput{})
	assert.Error(t, err)

	repo.err = errors.New("redis down")
	_, err = lt.summarize(ctx, &LogSummaryInput{UserID: "u1"})
	assert.ErrorContains(t, err, "redis down")

	empty := &LogSummaryTool{}
	out, err = empty.summarize(ctx, &LogSummaryInput{UserID: "u2"})
	require.NoError(t, err)
	assert.Equal(t, "No health logs are available for user u2 in the past 7 days.", out)
}
