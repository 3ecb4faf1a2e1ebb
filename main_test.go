package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/health-assistant-core/server/internal/agent/repo"
)

func TestSeedLogsOnlyOnce(t *testing.T) {
	ctx := context.Background()
	logs := repo.NewMemoryLogRepository()

	require.NoError(t, seedLogs(ctx, logs, "demo-user"))
	require.NoError(t, seedLogs(ctx, logs, "demo-user"))

	since := time.Now().UTC().AddDate(0, 0, -7)
	daily, err := logs.RecentDailyLogs(ctx, "demo-user", since)
	require.NoError(t, err)
	assert.Len(t, daily, 3)
	food, err := logs.RecentFoodEntries(ctx, "demo-user", since)
	require.NoError(t, err)
	assert.Len(t, food, 1)
}
