package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"

	logx "github.com/health-assistant-core/server/pkg/logger"
)

// ErrorObservation is the text fed back to the model when a tool fails.
func ErrorObservation(name string, err error) string {
	return fmt.Sprintf("Error executing tool %s: %v", name, err)
}

// NotFoundObservation is the text fed back when the model names an unknown tool.
func NotFoundObservation(name string) string {
	return fmt.Sprintf("Tool %s not found.", name)
}

type guardedTool struct {
	tool.InvokableTool
	name string
}

func guard(name string, t tool.InvokableTool) tool.InvokableTool {
	if g, ok := t.(*guardedTool); ok {
		return g
	}
	return &guardedTool{InvokableTool: t, name: name}
}

// InvokableRun never returns an error: failures and panics become observations.
func (g *guardedTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("tool_name", g.name).Msgf("panic recovered: %v", r)
			out, err = ErrorObservation(g.name, fmt.Errorf("panic: %v", r)), nil
		}
	}()

	out, err = g.InvokableTool.InvokableRun(ctx, argumentsInJSON, opts...)
	if err != nil {
		logx.Warn().Err(err).Str("tool_name", g.name).Str("arguments", argumentsInJSON).Msg("tool invocation failed")
		return ErrorObservation(g.name, err), nil
	}
	return out, nil
}
