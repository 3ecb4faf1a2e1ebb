package model

import (
	"errors"
	"fmt"

	"github.com/cloudwego/eino/schema"
)

// OutcomeKind tags the variant held by Outcome.
type OutcomeKind int

const (
	OutcomePending OutcomeKind = iota
	OutcomeFinalAnswer
	OutcomeToolCallBatch
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomePending:
		return "pending"
	case OutcomeFinalAnswer:
		return "final_answer"
	case OutcomeToolCallBatch:
		return "tool_call_batch"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// TerminationReason says why a FinalAnswer ended the turn.
type TerminationReason string

const (
	ReasonAnswered           TerminationReason = "answered"
	ReasonClarificationAsked TerminationReason = "clarification_asked"
	ReasonMaxClarifications  TerminationReason = "max_clarifications"
	ReasonMaxToolRounds      TerminationReason = "max_tool_rounds"
	ReasonFallback           TerminationReason = "fallback"
)

// Outcome is the tagged union Pending | FinalAnswer(text) | ToolCallBatch(calls).
type Outcome struct {
	Kind   OutcomeKind
	Text   string
	Calls  []ToolCall
	Reason TerminationReason
}

func FinalAnswer(text string, reason TerminationReason) Outcome {
	return Outcome{Kind: OutcomeFinalAnswer, Text: text, Reason: reason}
}

func ToolCallBatch(calls []ToolCall) Outcome {
	return Outcome{Kind: OutcomeToolCallBatch, Calls: calls}
}

func (o Outcome) IsFinal() bool {
	return o.Kind == OutcomeFinalAnswer
}

// HasPendingCalls reports a ToolCallBatch that has not been executed yet.
func (o Outcome) HasPendingCalls() bool {
	return o.Kind == OutcomeToolCallBatch && len(o.Calls) > 0
}

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	ID           string         `json:"call_id"`
	Name         string         `json:"tool_name"`
	Arguments    map[string]any `json:"arguments"`
	RawArguments string         `json:"-"`
	Round        int            `json:"round"`
}

// ToolResult pairs a call with the observation fed back to the model.
type ToolResult struct {
	Call        ToolCall `json:"call"`
	Observation string   `json:"observation"`
}

// MaxClarificationAttempts is the ceiling after which the turn is force-terminated.
const MaxClarificationAttempts = 2

var (
	errOutcomeToPending = errors.New("outcome cannot return to pending")
	errOutcomeFinal     = errors.New("outcome is already final")
)

// ConversationState is threaded through every node of one turn.
// Concurrency model:
//   - One state value per Engine.Run; it is never shared between turns, so
//     nodes mutate it without locking.
//   - History and Context are inputs: nodes read them and never write them.
//   - ToolResults is append-only within the turn.
type ConversationState struct {
	SessionID string
	Input     string
	History   []*schema.Message
	Context   *UserContext

	ClarificationNeeded   bool
	ClarificationAttempts int

	IdentifiedGoal GoalKind      // from goal analysis, used when no persisted goal exists
	Plan           *PlanDecision // advisory decision of the planning node

	Outcome       Outcome
	ToolResults   []ToolResult
	ToolRounds    int // completed tool execution rounds
	MaxToolRounds int

	Trace        []string // visited nodes, in order
	TotalCostUSD float64
}

// SetOutcome moves the outcome forward. Pending is never a valid target and a
// FinalAnswer is terminal.
func (s *ConversationState) SetOutcome(o Outcome) error {
	if o.Kind == OutcomePending {
		return errOutcomeToPending
	}
	if s.Outcome.IsFinal() {
		return errOutcomeFinal
	}
	s.Outcome = o
	return nil
}

// Visit records a node execution.
func (s *ConversationState) Visit(node string) {
	s.Trace = append(s.Trace, node)
}

// Visits counts how many times node ran in this turn.
func (s *ConversationState) Visits(node string) int {
	n := 0
	for _, v := range s.Trace {
		if v == node {
			n++
		}
	}
	return n
}

// ActiveGoal returns the persisted goal kind, falling back to the identified one.
func (s *ConversationState) ActiveGoal() GoalKind {
	if s.Context != nil && s.Context.Goal != nil && s.Context.Goal.Type != "" {
		return s.Context.Goal.Type
	}
	if s.IdentifiedGoal != "" {
		return s.IdentifiedGoal
	}
	return GoalUnknown
}

// AddUsage accumulates the cost of one model call.
func (s *ConversationState) AddUsage(c *Completion) {
	if c == nil || c.Usage == nil {
		return
	}
	_, _, total := ComputeCost(c.Usage, ResolvePricing(c.Model))
	s.TotalCostUSD += total
}

// TurnInput is what the caller hands the engine for one turn.
type TurnInput struct {
	SessionID string
	Input     string
	History   []Turn
	Context   *UserContext
	// ClarificationAttempts carries the counter from previous turns; zero for a fresh session.
	ClarificationAttempts int
}

// TurnResult is the reply plus the updated history.
type TurnResult struct {
	Reply                 string
	History               []Turn
	Outcome               Outcome
	ClarificationAttempts int
	ToolResults           []ToolResult
	Trace                 []string
	TotalCostUSD          float64
}
