package nodes

import (
	"context"

	"github.com/cloudwego/eino/compose"

	"github.com/health-assistant-core/server/internal/agent/model"
	logx "github.com/health-assistant-core/server/pkg/logger"
)

// RouteAfterGoalAnalysis sends ambiguous input to Clarification until the
// attempt ceiling is reached, then to ForcedTermination. Clear input goes to Planning.
func RouteAfterGoalAnalysis(_ context.Context, s *model.ConversationState) (string, error) {
	if !s.ClarificationNeeded {
		return NodePlanning, nil
	}
	if s.ClarificationAttempts >= model.MaxClarificationAttempts {
		logx.Debug().Str("session_id", s.SessionID).Int("clarification_attempts", s.ClarificationAttempts).
			Msg("Clarification ceiling reached - forcing termination")
		return NodeForcedTermination, nil
	}
	return NodeClarification, nil
}

// RouteByOutcome is shared by Planning, Agent and ToolExecution.
func RouteByOutcome(_ context.Context, s *model.ConversationState) (string, error) {
	switch {
	case s.Outcome.IsFinal():
		return compose.END, nil
	case s.Outcome.HasPendingCalls():
		if s.ToolRounds >= NormalizeMaxToolRounds(s.MaxToolRounds) {
			logx.Warn().Str("session_id", s.SessionID).Int("tool_rounds", s.ToolRounds).
				Msg("Tool round limit reached - routing to round limit")
			return NodeRoundLimit, nil
		}
		return NodeToolExecution, nil
	default:
		return NodeAgent, nil
	}
}

// EndNodes lists the possible targets of the router attached after node.
func EndNodes(node string) map[string]bool {
	switch node {
	case NodeGoalAnalysis:
		return map[string]bool{NodeClarification: true, NodePlanning: true, NodeForcedTermination: true}
	case NodePlanning:
		return map[string]bool{NodeAgent: true, NodeToolExecution: true, NodeRoundLimit: true, compose.END: true}
	case NodeAgent:
		return map[string]bool{NodeToolExecution: true, NodeRoundLimit: true, compose.END: true}
	case NodeToolExecution:
		return map[string]bool{NodeAgent: true, NodeRoundLimit: true, compose.END: true}
	default:
		return nil
	}
}
