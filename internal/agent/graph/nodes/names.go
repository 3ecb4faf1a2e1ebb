package nodes

// Graph node keys. They also appear in ConversationState.Trace.
const (
	NodeGoalAnalysis      = "goal_analysis"
	NodeClarification     = "clarification"
	NodeForcedTermination = "forced_termination"
	NodePlanning          = "planning"
	NodeAgent             = "agent"
	NodeToolExecution     = "tool_execution"
	NodeRoundLimit        = "round_limit"
	NodeQAAgent           = "qa_agent"
)
