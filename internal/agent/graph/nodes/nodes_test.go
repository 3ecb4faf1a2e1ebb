package nodes

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/health-assistant-core/server/internal/agent/graph/prompts"
	"github.com/health-assistant-core/server/internal/agent/graph/tools"
	"github.com/health-assistant-core/server/internal/agent/llm/llmtest"
	"github.com/health-assistant-core/server/internal/agent/model"
	errx "github.com/health-assistant-core/server/internal/core/error"
)

func testCatalog(t *testing.T) *prompts.Catalog {
	t.Helper()
	c, err := prompts.LoadCatalog()
	require.NoError(t, err)
	return c
}

func testRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	r, err := tools.NewDefaultRegistry(context.Background(), tools.Options{})
	require.NoError(t, err)
	return r
}

func TestGoalAnalysisSetsFlags(t *testing.T) {
	lm := llmtest.New().Extracts(model.GoalIdentification{Goal: model.GoalGainWeight, RequiresClarification: true})
	s := &model.ConversationState{
		Input:                 "I want to be healthier",
		History:               []*schema.Message{schema.UserMessage("hi"), schema.AssistantMessage("hello", nil)},
		ClarificationAttempts: 1,
		Context:               &model.UserContext{Goal: &model.Goal{Description: "Gain 3kg of muscle"}},
	}

	out, err := Wrap(NodeGoalAnalysis, GoalAnalysis(lm, testCatalog(t)))(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, out.ClarificationNeeded)
	assert.Equal(t, model.GoalGainWeight, out.IdentifiedGoal)
	assert.Equal(t, 1, out.ClarificationAttempts)
	assert.Equal(t, model.OutcomePending, out.Outcome.Kind)
	assert.Equal(t, []string{NodeGoalAnalysis}, out.Trace)

	req := lm.Requests()[0]
	assert.Equal(t, "*model.GoalIdentification", req.Target)
	assert.Contains(t, req.Messages[0].Content, "Gain 3kg of muscle")
	assert.Contains(t, req.Messages[0].Content, "user: hi")
}

func TestGoalAnalysisExtractionFailure(t *testing.T) {
	lm := llmtest.New().ExtractFails("not json")
	_, err := GoalAnalysis(lm, testCatalog(t))(context.Background(), &model.ConversationState{Input: "x"})
	assert.ErrorIs(t, err, errx.ErrExtraction)
}

func TestClarificationCountsAttempt(t *testing.T) {
	catalog := testCatalog(t)
	s := &model.ConversationState{ClarificationNeeded: true, ClarificationAttempts: 1}

	out, err := Clarification(catalog)(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 2, out.ClarificationAttempts)
	assert.True(t, out.Outcome.IsFinal())
	assert.Equal(t, model.ReasonClarificationAsked, out.Outcome.Reason)
	assert.Equal(t, catalog.ClarificationMessage(), out.Outcome.Text)
}

func TestForcedTermination(t *testing.T) {
	catalog := testCatalog(t)
	s := &model.ConversationState{ClarificationNeeded: true, ClarificationAttempts: 2}

	out, err := ForcedTermination(catalog)(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 2, out.ClarificationAttempts)
	assert.Equal(t, catalog.Rephrase, out.Outcome.Text)
	assert.Equal(t, model.ReasonMaxClarifications, out.Outcome.Reason)
}

func TestPlanningIsAdvisory(t *testing.T) {
	lm := llmtest.New().Extracts(model.PlanDecision{ShouldUseTools: true, Reasoning: "needs BMI"})
	out, err := Planning(lm, testRegistry(t))(context.Background(), &model.ConversationState{Input: "what's my bmi"})
	require.NoError(t, err)
	require.NotNil(t, out.Plan)
	assert.True(t, out.Plan.ShouldUseTools)
	assert.Equal(t, model.OutcomePending, out.Outcome.Kind)
	assert.Contains(t, lm.Requests()[0].Messages[0].Content, "- bmi_calculator:")
}

func TestAgentFinalAnswer(t *testing.T) {
	lm := llmtest.New().Replies("Drink more water.")
	s := &model.ConversationState{
		Input:   "tips?",
		Context: &model.UserContext{UserID: "u1"},
		Plan:    &model.PlanDecision{ShouldUseTools: false},
	}

	out, err := Agent(lm, testRegistry(t))(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, out.Outcome.IsFinal())
	assert.Equal(t, "Drink more water.", out.Outcome.Text)

	req := lm.Requests()[0]
	assert.Equal(t, "CompleteWithTools", req.Method)
	assert.Len(t, req.Tools, 4)
	assert.Contains(t, req.Messages[0].Content, "User ID: u1")
	assert.Contains(t, req.Messages[0].Content, "A direct answer is likely sufficient.")
}

func TestAgentToolCallsAreTaggedWithRound(t *testing.T) {
	lm := llmtest.New().CallsTools(model.ToolCall{ID: "c1", Name: tools.BMICalculatorName})
	s := &model.ConversationState{Input: "bmi", ToolRounds: 2}
	s.Outcome = model.ToolCallBatch(nil)

	out, err := Agent(lm, testRegistry(t))(context.Background(), s)
	require.NoError(t, err)
	require.True(t, out.Outcome.HasPendingCalls())
	assert.Equal(t, 2, out.Outcome.Calls[0].Round)
}

func TestToolExecutionPairsEveryCall(t *testing.T) {
	s := &model.ConversationState{Input: "bmi", Context: &model.UserContext{UserID: "u9"}}
	require.NoError(t, s.SetOutcome(model.ToolCallBatch([]model.ToolCall{
		{ID: "c1", Name: tools.BMICalculatorName, Arguments: map[string]any{"weight_kg": "70", "height_m": 1.75}},
		{ID: "c2", Name: "teleport"},
		{ID: "c3", Name: tools.BMICalculatorName, Arguments: map[string]any{"weight_kg": 70.0, "height_m": 0.0}},
		{ID: "c4", Name: tools.LogSummaryName, Arguments: map[string]any{}},
	})))

	out, err := ToolExecution(testRegistry(t))(context.Background(), s)
	require.NoError(t, err)

	require.Len(t, out.ToolResults, 4)
	assert.Contains(t, out.ToolResults[0].Observation, "Your BMI is 22.9 (Normal weight).")
	assert.Equal(t, "Tool teleport not found.", out.ToolResults[1].Observation)
	assert.Contains(t, out.ToolResults[2].Observation, "Error executing tool bmi_calculator:")
	assert.Contains(t, out.ToolResults[3].Observation, "user u9")
	for i, id := range []string{"c1", "c2", "c3", "c4"} {
		assert.Equal(t, id, out.ToolResults[i].Call.ID)
	}

	assert.Equal(t, 1, out.ToolRounds)
	assert.Equal(t, model.OutcomeToolCallBatch, out.Outcome.Kind)
	assert.False(t, out.Outcome.HasPendingCalls())
}

func TestRoundLimit(t *testing.T) {
	catalog := testCatalog(t)
	s := &model.ConversationState{ToolRounds: 5, MaxToolRounds: 5}
	require.NoError(t, s.SetOutcome(model.ToolCallBatch([]model.ToolCall{{ID: "c1", Name: "x"}})))

	out, err := RoundLimit(catalog)(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, catalog.RoundLimit, out.Outcome.Text)
	assert.Equal(t, model.ReasonMaxToolRounds, out.Outcome.Reason)
}

func TestQAAgent(t *testing.T) {
	lm := llmtest.New().Replies("Paris.")
	out, err := QAAgent(lm)(context.Background(), &model.ConversationState{Input: "capital of France?"})
	require.NoError(t, err)
	assert.Equal(t, "Paris.", out.Outcome.Text)
	assert.Equal(t, 0, lm.Count("CompleteWithTools"))
}

func TestWrapStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	s := &model.ConversationState{}
	_, err := Wrap("n", func(ctx context.Context, s *model.ConversationState) (*model.ConversationState, error) {
		called = true
		return s, nil
	})(ctx, s)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.Empty(t, s.Trace)
}

func TestNewLambdaRunsInGraph(t *testing.T) {
	g := compose.NewGraph[*model.ConversationState, *model.ConversationState]()
	require.NoError(t, g.AddLambdaNode(NodeClarification, NewClarificationNode(testCatalog(t))))
	require.NoError(t, g.AddEdge(compose.START, NodeClarification))
	require.NoError(t, g.AddEdge(NodeClarification, compose.END))
	r, err := g.Compile(context.Background())
	require.NoError(t, err)

	out, err := r.Invoke(context.Background(), &model.ConversationState{SessionID: "s-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{NodeClarification}, out.Trace)
	assert.Equal(t, 1, out.ClarificationAttempts)
	assert.Equal(t, model.ReasonClarificationAsked, out.Outcome.Reason)
}

func TestRouteAfterGoalAnalysis(t *testing.T) {
	cases := []struct {
		needed   bool
		attempts int
		want     string
	}{
		{false, 0, NodePlanning},
		{false, 2, NodePlanning},
		{true, 0, NodeClarification},
		{true, 1, NodeClarification},
		{true, 2, NodeForcedTermination},
	}
	for _, tc := range cases {
		got, err := RouteAfterGoalAnalysis(context.Background(), &model.ConversationState{ClarificationNeeded: tc.needed, ClarificationAttempts: tc.attempts})
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "needed=%v attempts=%d", tc.needed, tc.attempts)
	}
}

func TestRouteByOutcome(t *testing.T) {
	route := func(s *model.ConversationState) string {
		got, err := RouteByOutcome(context.Background(), s)
		require.NoError(t, err)
		assert.True(t, EndNodes(NodeAgent)[got] || got == NodeAgent, "unexpected target %s", got)
		return got
	}

	assert.Equal(t, NodeAgent, route(&model.ConversationState{}))
	assert.Equal(t, compose.END, route(&model.ConversationState{Outcome: model.FinalAnswer("x", model.ReasonAnswered)}))

	pending := model.ToolCallBatch([]model.ToolCall{{ID: "c1"}})
	assert.Equal(t, NodeToolExecution, route(&model.ConversationState{Outcome: pending, MaxToolRounds: 2, ToolRounds: 1}))
	assert.Equal(t, NodeRoundLimit, route(&model.ConversationState{Outcome: pending, MaxToolRounds: 2, ToolRounds: 2}))
	assert.Equal(t, NodeAgent, route(&model.ConversationState{Outcome: model.ToolCallBatch(nil)}))
}
