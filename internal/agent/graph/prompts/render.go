package prompts

import (
	"context"
	_ "embed"
	"fmt"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/health-assistant-core/server/internal/agent/graph/tools"
	"github.com/health-assistant-core/server/internal/agent/model"
)

var (
	//go:embed template/goal_analysis.txt
	goalAnalysisPrompt string
	//go:embed template/planning.txt
	planningPrompt string
	//go:embed template/agent.txt
	agentPrompt string
	//go:embed template/qa.txt
	qaPrompt string
)

type GoalAnalysisVars struct {
	GoalHint  string
	History   string
	Input     string
	Questions []string
}

type PlanningVars struct {
	ContextSummary string
	History        string
	Input          string
	Tools          []tools.Descriptor
}

type AgentVars struct {
	UserID         string
	ContextSummary string
	Goal           model.GoalKind
	PlanHint       string
	Tools          []tools.Descriptor
}

// RenderGoalAnalysis returns the messages for goal extraction.
func RenderGoalAnalysis(ctx context.Context, v GoalAnalysisVars) ([]*schema.Message, error) {
	return render(ctx, "goal analysis", goalAnalysisPrompt, map[string]any{
		"GoalHint":  v.GoalHint,
		"History":   v.History,
		"Input":     v.Input,
		"Questions": v.Questions,
	}, v.Input)
}

// RenderPlanning returns the messages for the plan decision.
func RenderPlanning(ctx context.Context, v PlanningVars) ([]*schema.Message, error) {
	return render(ctx, "planning", planningPrompt, map[string]any{
		"ContextSummary": v.ContextSummary,
		"History":        v.History,
		"Input":          v.Input,
		"Tools":          v.Tools,
	}, v.Input)
}

// RenderAgentSystem renders the system instruction of the agent node.
func RenderAgentSystem(ctx context.Context, v AgentVars) (string, error) {
	msgs, err := render(ctx, "agent", agentPrompt, map[string]any{
		"UserID":         v.UserID,
		"ContextSummary": v.ContextSummary,
		"Goal":           string(v.Goal),
		"PlanHint":       v.PlanHint,
		"Tools":          v.Tools,
	}, "")
	if err != nil {
		return "", err
	}
	return msgs[0].Content, nil
}

// RenderQASystem renders the system instruction of the Q&A variant.
func RenderQASystem(ctx context.Context) (string, error) {
	msgs, err := render(ctx, "qa", qaPrompt, nil, "")
	if err != nil {
		return "", err
	}
	return msgs[0].Content, nil
}

// render formats tpl via the eino prompt component so prompt callbacks fire.
// A non-empty input is appended as the user message.
func render(ctx context.Context, name, tpl string, vars map[string]any, input string) ([]*schema.Message, error) {
	templates := []schema.MessagesTemplate{schema.SystemMessage(tpl)}
	if input != "" {
		templates = append(templates, schema.UserMessage("{{.Input}}"))
	}
	if vars == nil {
		vars = map[string]any{}
	}
	vars["Input"] = input

	ctx = einocb.ReuseHandlers(ctx, &einocb.RunInfo{Name: name, Type: "GoTemplate", Component: components.ComponentOfPrompt})
	msgs, err := prompt.FromMessages(schema.GoTemplate, templates...).Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("%s prompt render: %w", name, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return nil, fmt.Errorf("%s prompt render: empty result", name)
	}
	return msgs, nil
}
