package nodes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/health-assistant-core/server/internal/agent/graph/tools"
	"github.com/health-assistant-core/server/internal/agent/model"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	m := map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestSanitizeArguments(t *testing.T) {
	got := decode(t, SanitizeArguments(model.ToolCall{
		Name:      tools.BMRCalculatorName,
		Arguments: map[string]any{"age_years": "30.4", "gender": " Male ", "weight_kg": "70", "height_cm": 175.0},
	}, ""))
	assert.Equal(t, 30.0, got["age_years"])
	assert.Equal(t, "male", got["gender"])
	assert.Equal(t, 70.0, got["weight_kg"])

	got = decode(t, SanitizeArguments(model.ToolCall{
		Name:      tools.CalorieEstimatorName,
		Arguments: map[string]any{"bmr": 1600.0, "activity_level": "Very Active", "goal": "lose"},
	}, ""))
	assert.Equal(t, "very_active", got["activity_level"])
	assert.Equal(t, "lose_weight", got["goal"])

	got = decode(t, SanitizeArguments(model.ToolCall{
		Name:      tools.LogSummaryName,
		Arguments: map[string]any{"days": 365.0},
	}, "u1"))
	assert.Equal(t, "u1", got["user_id"])
	assert.Equal(t, float64(tools.MaxSummaryDays), got["days"])

	got = decode(t, SanitizeArguments(model.ToolCall{
		Name:      tools.LogSummaryName,
		Arguments: map[string]any{"user_id": 42.0, "days": "soon"},
	}, ""))
	assert.Equal(t, "42", got["user_id"])
	_, hasDays := got["days"]
	assert.False(t, hasDays)
}

func TestSanitizeArgumentsPinsContextUser(t *testing.T) {
	got := decode(t, SanitizeArguments(model.ToolCall{
		Name:      tools.LogSummaryName,
		Arguments: map[string]any{"user_id": "someone-else", "days": 7.0},
	}, "u-1"))
	assert.Equal(t, "u-1", got["user_id"])
	assert.Equal(t, 7.0, got["days"])

	got = decode(t, SanitizeArguments(model.ToolCall{
		Name:         tools.LogSummaryName,
		Arguments:    map[string]any{"user_id": 7.0},
		RawArguments: `{"user_id":7}`,
	}, "u-1"))
	assert.Equal(t, "u-1", got["user_id"])
}

func TestSanitizeArgumentsKeepsUndecodableInput(t *testing.T) {
	assert.Equal(t, "not json", SanitizeArguments(model.ToolCall{Name: tools.BMICalculatorName, RawArguments: "not json"}, ""))
	assert.Equal(t, "{}", SanitizeArguments(model.ToolCall{Name: tools.BMICalculatorName}, ""))
}

func TestClampInt(t *testing.T) {
	assert.Equal(t, 1, clampInt(-3, 1, 10))
	assert.Equal(t, 10, clampInt(30, 1, 10))
	assert.Equal(t, 5, clampInt(5, 1, 10))
	assert.Equal(t, DefaultMaxToolRounds, NormalizeMaxToolRounds(0))
	assert.Equal(t, 3, NormalizeMaxToolRounds(3))
}
