package conversations

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/health-assistant-core/server/internal/agent/model"
)

func TestToMessagesTrimsToRecentTurns(t *testing.T) {
	turns := []model.Turn{
		{User: "u1", Assistant: "a1"},
		{User: "u2", Assistant: "a2"},
		{User: "u3", Assistant: ""},
	}

	msgs := NewMessagesManager(2).ToMessages(turns)
	require.Len(t, msgs, 3)
	assert.Equal(t, schema.User, msgs[0].Role)
	assert.Equal(t, "u2", msgs[0].Content)
	assert.Equal(t, schema.Assistant, msgs[1].Role)
	assert.Equal(t, "u3", msgs[2].Content)

	assert.Len(t, NewMessagesManager(0).ToMessages(turns), 5)
	assert.Empty(t, NewMessagesManager(3).ToMessages(nil))
}

func TestAppendTurnDoesNotMutateInput(t *testing.T) {
	base := make([]model.Turn, 1, 4)
	base[0] = model.Turn{User: "hi", Assistant: "hello"}

	a := AppendTurn(base, "q1", "r1")
	b := AppendTurn(base, "q2", "r2")

	assert.Len(t, base, 1)
	assert.Equal(t, model.Turn{User: "q1", Assistant: "r1"}, a[1])
	assert.Equal(t, model.Turn{User: "q2", Assistant: "r2"}, b[1])
}

func TestTranscript(t *testing.T) {
	got := Transcript([]*schema.Message{
		schema.SystemMessage("ignored"),
		schema.UserMessage("I want to lose weight"),
		nil,
		schema.AssistantMessage("Great goal!", nil),
	})
	assert.Equal(t, "user: I want to lose weight\nassistant: Great goal!", got)
	assert.Equal(t, "", Transcript(nil))
}

func TestBuildAgentContextGroupsRounds(t *testing.T) {
	history := []*schema.Message{schema.UserMessage("old"), schema.AssistantMessage("older reply", nil)}
	results := []model.ToolResult{
		{Call: model.ToolCall{ID: "c1", Name: "bmi_calculator", RawArguments: `{"weight_kg":70,"height_m":1.75}`, Round: 0}, Observation: "Your BMI is 22.9 (Normal weight)."},
		{Call: model.ToolCall{ID: "c2", Name: "bmr_calculator", Round: 0}, Observation: "Your estimated BMR is 1649 calories/day."},
		{Call: model.ToolCall{ID: "c3", Name: "calorie_estimator", Round: 1}, Observation: "To maintain ..."},
	}

	msgs := BuildAgentContext("sys", history, "what now", results)
	require.Len(t, msgs, 9)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, "what now", msgs[3].Content)

	require.Len(t, msgs[4].ToolCalls, 2)
	assert.Equal(t, "c1", msgs[4].ToolCalls[0].ID)
	assert.Equal(t, "bmi_calculator", msgs[4].ToolCalls[0].Function.Name)
	assert.Equal(t, schema.Tool, msgs[5].Role)
	assert.Equal(t, "c1", msgs[5].ToolCallID)
	assert.Equal(t, "bmi_calculator", msgs[5].ToolName)
	assert.Equal(t, "c2", msgs[6].ToolCallID)

	require.Len(t, msgs[7].ToolCalls, 1)
	assert.Equal(t, "c3", msgs[8].ToolCallID)
}

func TestBuildQAContext(t *testing.T) {
	msgs := BuildQAContext("sys", []*schema.Message{schema.UserMessage("a")}, "b")
	require.Len(t, msgs, 3)
	assert.Equal(t, "b", msgs[2].Content)
}
