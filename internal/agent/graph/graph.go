package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/health-assistant-core/server/internal/agent/graph/nodes"
	"github.com/health-assistant-core/server/internal/agent/graph/prompts"
	"github.com/health-assistant-core/server/internal/agent/graph/tools"
	"github.com/health-assistant-core/server/internal/agent/model"
	logx "github.com/health-assistant-core/server/pkg/logger"
)

// Runnable is a compiled turn graph.
type Runnable = compose.Runnable[*model.ConversationState, *model.ConversationState]

// GraphConfig holds all configuration needed to build the graphs.
type GraphConfig struct {
	LM            model.LanguageModel
	Registry      *tools.Registry
	Catalog       *prompts.Catalog
	MaxToolRounds int
}

func (c *GraphConfig) validate() error {
	switch {
	case c == nil:
		return fmt.Errorf("graph config is nil")
	case c.LM == nil:
		return fmt.Errorf("language model is nil")
	case c.Registry == nil:
		return fmt.Errorf("tool registry is nil")
	case c.Catalog == nil:
		return fmt.Errorf("prompt catalog is nil")
	}
	return nil
}

// GraphBuilder handles the construction of the conversation graph.
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[*model.ConversationState, *model.ConversationState]
}

// BuildGraph constructs and returns the compiled full conversation graph:
//
//	START -> goal_analysis -> clarification | forced_termination | planning
//	planning -> agent <-> tool_execution, agent -> round_limit | END
func BuildGraph(ctx context.Context, config *GraphConfig) (Runnable, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	builder := &GraphBuilder{
		config: config,
		graph:  compose.NewGraph[*model.ConversationState, *model.ConversationState](),
	}

	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx, "conversation")
}

// BuildQAGraph builds the degraded single node graph used without user context.
func BuildQAGraph(ctx context.Context, config *GraphConfig) (Runnable, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	builder := &GraphBuilder{
		config: config,
		graph:  compose.NewGraph[*model.ConversationState, *model.ConversationState](),
	}
	if err := builder.graph.AddLambdaNode(nodes.NodeQAAgent, nodes.NewQAAgentNode(config.LM)); err != nil {
		return nil, fmt.Errorf("error adding node %s: %w", nodes.NodeQAAgent, err)
	}
	for _, edge := range [][2]string{
		{compose.START, nodes.NodeQAAgent},
		{nodes.NodeQAAgent, compose.END},
	} {
		if err := builder.graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return builder.compile(ctx, "qa")
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	c := b.config
	lambdas := []struct {
		key    string
		lambda *compose.Lambda
	}{
		{nodes.NodeGoalAnalysis, nodes.NewGoalAnalysisNode(c.LM, c.Catalog)},
		{nodes.NodeClarification, nodes.NewClarificationNode(c.Catalog)},
		{nodes.NodeForcedTermination, nodes.NewForcedTerminationNode(c.Catalog)},
		{nodes.NodePlanning, nodes.NewPlanningNode(c.LM, c.Registry)},
		{nodes.NodeAgent, nodes.NewAgentNode(c.LM, c.Registry)},
		{nodes.NodeToolExecution, nodes.NewToolExecutionNode(c.Registry)},
		{nodes.NodeRoundLimit, nodes.NewRoundLimitNode(c.Catalog)},
	}
	for _, l := range lambdas {
		if err := b.graph.AddLambdaNode(l.key, l.lambda, compose.WithNodeName(l.key)); err != nil {
			logx.Error().Err(err).Str("node", l.key).Msg("Error adding node")
			return fmt.Errorf("error adding node %s: %w", l.key, err)
		}
	}
	return nil
}

// addEdges creates the unconditional connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeGoalAnalysis},
		{nodes.NodeClarification, compose.END},
		{nodes.NodeForcedTermination, compose.END},
		{nodes.NodeRoundLimit, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			logx.Error().Err(err).Str("from", edge[0]).Str("to", edge[1]).Msg("Error adding edge")
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	goalBranch := compose.NewGraphBranch(nodes.RouteAfterGoalAnalysis, nodes.EndNodes(nodes.NodeGoalAnalysis))
	if err := b.graph.AddBranch(nodes.NodeGoalAnalysis, goalBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding goal analysis branch")
		return fmt.Errorf("error adding goal analysis branch: %w", err)
	}

	for _, from := range []string{nodes.NodePlanning, nodes.NodeAgent, nodes.NodeToolExecution} {
		branch := compose.NewGraphBranch(nodes.RouteByOutcome, nodes.EndNodes(from))
		if err := b.graph.AddBranch(from, branch); err != nil {
			logx.Error().Err(err).Str("node", from).Msg("Error adding outcome branch")
			return fmt.Errorf("error adding outcome branch after %s: %w", from, err)
		}
	}
	return nil
}

// MaxRunSteps is the node execution budget of one run. The round limit node
// ends the turn before it is reached; it is a second safety net.
func MaxRunSteps(maxToolRounds int) int {
	maxSteps := 10 + nodes.NormalizeMaxToolRounds(maxToolRounds)*2
	if maxSteps < 20 {
		maxSteps = 20
	}
	return maxSteps
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context, name string) (Runnable, error) {
	runnable, err := b.graph.Compile(ctx,
		compose.WithGraphName(name),
		compose.WithMaxRunSteps(MaxRunSteps(b.config.MaxToolRounds)),
	)
	if err != nil {
		logx.Error().Err(err).Str("graph", name).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Str("graph", name).Msg("Graph compiled successfully")
	return runnable, nil
}
