package model

import (
	"fmt"
)

// GoalKind is the closed set of goals the goal analysis may report.
type GoalKind string

const (
	GoalLoseWeight  GoalKind = "lose_weight"
	GoalGainWeight  GoalKind = "gain_weight"
	GoalStayHealthy GoalKind = "stay_healthy"
	GoalUnknown     GoalKind = "unknown"
)

// Valid reports whether g is one of the known goal kinds.
func (g GoalKind) Valid() bool {
	switch g {
	case GoalLoseWeight, GoalGainWeight, GoalStayHealthy, GoalUnknown:
		return true
	}
	return false
}

// GoalIdentification is the structured output of the goal analysis node.
type GoalIdentification struct {
	Goal                  GoalKind `json:"goal" jsonschema:"enum=lose_weight,enum=gain_weight,enum=stay_healthy,enum=unknown" jsonschema_description:"The user's primary health goal. Set to 'unknown' if unclear."`
	RequiresClarification bool     `json:"requires_clarification" jsonschema_description:"True if the user's input is ambiguous or incomplete and requires follow-up questions."`
	Reasoning             string   `json:"reasoning,omitempty" jsonschema_description:"Brief explanation for why clarification is or isn't needed."`
}

func (g *GoalIdentification) Validate() error {
	if g.Goal == "" {
		g.Goal = GoalUnknown
	}
	if !g.Goal.Valid() {
		return fmt.Errorf("goal %q is not one of lose_weight, gain_weight, stay_healthy, unknown", g.Goal)
	}
	return nil
}

// PlanDecision is the structured output of the planning node. Advisory only.
type PlanDecision struct {
	ShouldUseTools bool   `json:"should_use_tools" jsonschema_description:"True if tools are needed to answer the user's query, False otherwise."`
	Reasoning      string `json:"reasoning,omitempty" jsonschema_description:"Brief explanation for the decision."`
}

func (p *PlanDecision) Validate() error {
	return nil
}
