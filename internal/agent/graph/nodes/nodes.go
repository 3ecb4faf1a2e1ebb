package nodes

import (
	"context"
	"fmt"
	"strings"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"

	"github.com/health-assistant-core/server/internal/agent/graph/conversations"
	"github.com/health-assistant-core/server/internal/agent/graph/prompts"
	"github.com/health-assistant-core/server/internal/agent/graph/tools"
	"github.com/health-assistant-core/server/internal/agent/model"
	logx "github.com/health-assistant-core/server/pkg/logger"
)

// ===================================
// Goal Analysis
// ===================================

// GoalAnalysis extracts the goal and whether the input needs clarification.
// The persisted goal, when present, is passed to the model as a hint.
func GoalAnalysis(lm model.LanguageModel, catalog *prompts.Catalog) StateFunc {
	return func(ctx context.Context, s *model.ConversationState) (*model.ConversationState, error) {
		msgs, err := prompts.RenderGoalAnalysis(ctx, prompts.GoalAnalysisVars{
			GoalHint:  goalHint(s.Context),
			History:   conversations.Transcript(s.History),
			Input:     s.Input,
			Questions: catalog.Clarification.Questions,
		})
		if err != nil {
			return nil, err
		}

		var out model.GoalIdentification
		comp, err := lm.Extract(ctx, msgs, &out)
		if err != nil {
			return nil, fmt.Errorf("goal analysis: %w", err)
		}
		s.AddUsage(comp)

		s.ClarificationNeeded = out.RequiresClarification
		s.IdentifiedGoal = out.Goal
		logx.Debug().
			Str("session_id", s.SessionID).
			Str("goal", string(out.Goal)).
			Bool("requires_clarification", out.RequiresClarification).
			Str("reasoning", out.Reasoning).
			Msg("Goal analysis result")
		return s, nil
	}
}

func goalHint(uc *model.UserContext) string {
	if uc == nil || uc.Goal == nil {
		return ""
	}
	if d := strings.TrimSpace(uc.Goal.Description); d != "" {
		return d
	}
	return string(uc.Goal.Type)
}

func NewGoalAnalysisNode(lm model.LanguageModel, catalog *prompts.Catalog) *compose.Lambda {
	return NewLambda(NodeGoalAnalysis, GoalAnalysis(lm, catalog))
}

// ===================================
// Clarification / Forced termination
// ===================================

// Clarification answers with the fixed follow-up questions and counts the attempt.
func Clarification(catalog *prompts.Catalog) StateFunc {
	return func(ctx context.Context, s *model.ConversationState) (*model.ConversationState, error) {
		if err := s.SetOutcome(model.FinalAnswer(catalog.ClarificationMessage(), model.ReasonClarificationAsked)); err != nil {
			return nil, fmt.Errorf("clarification: %w", err)
		}
		s.ClarificationAttempts++
		return s, nil
	}
}

func NewClarificationNode(catalog *prompts.Catalog) *compose.Lambda {
	return NewLambda(NodeClarification, Clarification(catalog))
}

// ForcedTermination ends the turn after too many clarification rounds.
func ForcedTermination(catalog *prompts.Catalog) StateFunc {
	return func(ctx context.Context, s *model.ConversationState) (*model.ConversationState, error) {
		logx.Warn().
			Str("session_id", s.SessionID).
			Int("clarification_attempts", s.ClarificationAttempts).
			Msg("Clarification attempts exhausted - asking the user to rephrase")
		if err := s.SetOutcome(model.FinalAnswer(catalog.Rephrase, model.ReasonMaxClarifications)); err != nil {
			return nil, fmt.Errorf("forced termination: %w", err)
		}
		return s, nil
	}
}

func NewForcedTerminationNode(catalog *prompts.Catalog) *compose.Lambda {
	return NewLambda(NodeForcedTermination, ForcedTermination(catalog))
}

// ===================================
// Planning
// ===================================

// Planning records an advisory decision on tool use. It never sets the outcome.
func Planning(lm model.LanguageModel, registry *tools.Registry) StateFunc {
	return func(ctx context.Context, s *model.ConversationState) (*model.ConversationState, error) {
		msgs, err := prompts.RenderPlanning(ctx, prompts.PlanningVars{
			ContextSummary: prompts.SummarizeContext(s.Context),
			History:        conversations.Transcript(s.History),
			Input:          s.Input,
			Tools:          registry.Catalogue(),
		})
		if err != nil {
			return nil, err
		}

		var plan model.PlanDecision
		comp, err := lm.Extract(ctx, msgs, &plan)
		if err != nil {
			return nil, fmt.Errorf("planning: %w", err)
		}
		s.AddUsage(comp)
		s.Plan = &plan

		logx.Debug().
			Str("session_id", s.SessionID).
			Bool("should_use_tools", plan.ShouldUseTools).
			Str("reasoning", plan.Reasoning).
			Msg("Planning decision")
		return s, nil
	}
}

func NewPlanningNode(lm model.LanguageModel, registry *tools.Registry) *compose.Lambda {
	return NewLambda(NodePlanning, Planning(lm, registry))
}

// ===================================
// Agent
// ===================================

// Agent lets the model answer or request tools, given this turn's tool results.
func Agent(lm model.LanguageModel, registry *tools.Registry) StateFunc {
	return func(ctx context.Context, s *model.ConversationState) (*model.ConversationState, error) {
		var userID string
		if s.Context != nil {
			userID = s.Context.UserID
		}
		system, err := prompts.RenderAgentSystem(ctx, prompts.AgentVars{
			UserID:         userID,
			ContextSummary: prompts.SummarizeContext(s.Context),
			Goal:           s.ActiveGoal(),
			PlanHint:       planHint(s.Plan),
			Tools:          registry.Catalogue(),
		})
		if err != nil {
			return nil, err
		}

		msgs := conversations.BuildAgentContext(system, s.History, s.Input, s.ToolResults)
		logx.Debug().Str("session_id", s.SessionID).Int("messages", len(msgs)).Msg("AI thinking...")

		comp, err := lm.CompleteWithTools(ctx, msgs, registry.Infos())
		if err != nil {
			return nil, fmt.Errorf("agent: %w", err)
		}
		s.AddUsage(comp)

		if comp.HasToolCalls() {
			calls := make([]model.ToolCall, len(comp.ToolCalls))
			copy(calls, comp.ToolCalls)
			for i := range calls {
				calls[i].Round = s.ToolRounds
			}
			logx.Debug().Int("tool_count", len(calls)).Msg("Calling tools")
			if err := s.SetOutcome(model.ToolCallBatch(calls)); err != nil {
				return nil, fmt.Errorf("agent: %w", err)
			}
			return s, nil
		}

		logx.Debug().Msg("AI response ready")
		if err := s.SetOutcome(model.FinalAnswer(comp.Text, model.ReasonAnswered)); err != nil {
			return nil, fmt.Errorf("agent: %w", err)
		}
		return s, nil
	}
}

func planHint(p *model.PlanDecision) string {
	if p == nil {
		return ""
	}
	hint := "A direct answer is likely sufficient."
	if p.ShouldUseTools {
		hint = "Tools are likely needed to answer well."
	}
	if r := strings.TrimSpace(p.Reasoning); r != "" {
		hint += " " + r
	}
	return hint
}

func NewAgentNode(lm model.LanguageModel, registry *tools.Registry) *compose.Lambda {
	return NewLambda(NodeAgent, Agent(lm, registry))
}

// ===================================
// Tool Execution
// ===================================

// ToolExecution runs every pending call in order and appends exactly one
// result per call. The batch is consumed, so routing returns to Agent.
func ToolExecution(registry *tools.Registry) StateFunc {
	return func(ctx context.Context, s *model.ConversationState) (*model.ConversationState, error) {
		var userID string
		if s.Context != nil {
			userID = s.Context.UserID
		}

		for _, call := range s.Outcome.Calls {
			obs := executeTool(ctx, registry, call, userID)
			s.ToolResults = append(s.ToolResults, model.ToolResult{Call: call, Observation: obs})
		}

		if err := s.SetOutcome(model.ToolCallBatch(nil)); err != nil {
			return nil, fmt.Errorf("tool execution: %w", err)
		}
		s.ToolRounds++

		logx.Debug().
			Str("session_id", s.SessionID).
			Int("tool_rounds", s.ToolRounds).
			Int("tool_results", len(s.ToolResults)).
			Msg("Tool execution round done")
		return s, nil
	}
}

func executeTool(ctx context.Context, registry *tools.Registry, call model.ToolCall, userID string) string {
	t, err := registry.Lookup(call.Name)
	if err != nil {
		logx.Warn().
			Str("tool_name", call.Name).
			Str("arguments", call.RawArguments).
			Msg("Unknown or invalid tool call; returning not found observation")
		return tools.NotFoundObservation(call.Name)
	}

	args := SanitizeArguments(call, userID)

	ctx = einocb.ReuseHandlers(ctx, &einocb.RunInfo{Name: call.Name, Type: "Tool", Component: components.ComponentOfTool})
	ctx = einocb.OnStart(ctx, &tool.CallbackInput{ArgumentsInJSON: args})
	out, err := t.InvokableRun(ctx, args)
	if err != nil {
		einocb.OnError(ctx, err)
		return tools.ErrorObservation(call.Name, err)
	}
	einocb.OnEnd(ctx, &tool.CallbackOutput{Response: out})
	return out
}

func NewToolExecutionNode(registry *tools.Registry) *compose.Lambda {
	return NewLambda(NodeToolExecution, ToolExecution(registry))
}

// ===================================
// Round limit
// ===================================

// RoundLimit ends the turn with an apology once the tool round ceiling is hit.
// The pending batch is dropped without execution.
func RoundLimit(catalog *prompts.Catalog) StateFunc {
	return func(ctx context.Context, s *model.ConversationState) (*model.ConversationState, error) {
		logx.Warn().
			Str("session_id", s.SessionID).
			Int("tool_rounds", s.ToolRounds).
			Int("dropped_calls", len(s.Outcome.Calls)).
			Msg("Tool round limit exceeded - wrapping up")
		if err := s.SetOutcome(model.FinalAnswer(catalog.RoundLimit, model.ReasonMaxToolRounds)); err != nil {
			return nil, fmt.Errorf("round limit: %w", err)
		}
		return s, nil
	}
}

func NewRoundLimitNode(catalog *prompts.Catalog) *compose.Lambda {
	return NewLambda(NodeRoundLimit, RoundLimit(catalog))
}

// ===================================
// Q&A variant
// ===================================

// QAAgent answers with plain completion and no tools.
func QAAgent(lm model.LanguageModel) StateFunc {
	return func(ctx context.Context, s *model.ConversationState) (*model.ConversationState, error) {
		system, err := prompts.RenderQASystem(ctx)
		if err != nil {
			return nil, err
		}
		comp, err := lm.Complete(ctx, conversations.BuildQAContext(system, s.History, s.Input))
		if err != nil {
			return nil, fmt.Errorf("qa agent: %w", err)
		}
		s.AddUsage(comp)
		if err := s.SetOutcome(model.FinalAnswer(comp.Text, model.ReasonAnswered)); err != nil {
			return nil, fmt.Errorf("qa agent: %w", err)
		}
		return s, nil
	}
}

func NewQAAgentNode(lm model.LanguageModel) *compose.Lambda {
	return NewLambda(NodeQAAgent, QAAgent(lm))
}
