package observers

import (
	"bytes"
	"context"
	"testing"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"

	"github.com/health-assistant-core/server/internal/core"
	logx "github.com/health-assistant-core/server/pkg/logger"
)

func TestToolCallbacksLog(t *testing.T) {
	var buf bytes.Buffer
	logx.Init(logx.LoggerOpts{Environment: core.Production, Level: "debug", Output: &buf})
	t.Cleanup(func() { logx.Init() })

	ctx := einocb.InitCallbacks(context.Background(),
		&einocb.RunInfo{Name: "bmi_calculator", Type: "Tool", Component: components.ComponentOfTool},
		NewAllCallbacks())
	ctx = einocb.OnStart(ctx, &tool.CallbackInput{ArgumentsInJSON: `{"weight_kg":70}`})
	einocb.OnEnd(ctx, &tool.CallbackOutput{Response: "Your BMI is 22.9 (Normal)."})

	out := buf.String()
	assert.Contains(t, out, `"tool_name":"bmi_calculator"`)
	assert.Contains(t, out, "Tool started")
	assert.Contains(t, out, "Your BMI is 22.9 (Normal).")
}

func TestModelCallbacksLogCost(t *testing.T) {
	var buf bytes.Buffer
	logx.Init(logx.LoggerOpts{Environment: core.Production, Level: "debug", Output: &buf})
	t.Cleanup(func() { logx.Init() })

	ctx := einocb.InitCallbacks(context.Background(),
		&einocb.RunInfo{Name: "gemini-2.5-flash", Type: "ChatModel", Component: components.ComponentOfChatModel},
		NewAllCallbacks())
	ctx = einocb.OnStart(ctx, &einomodel.CallbackInput{Messages: []*schema.Message{schema.UserMessage("hello")}})
	einocb.OnEnd(ctx, &einomodel.CallbackOutput{
		Message:    schema.AssistantMessage("hi there", nil),
		TokenUsage: &einomodel.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 0},
	})

	out := buf.String()
	assert.Contains(t, out, "Model call finished")
	assert.Contains(t, out, `"prompt_tokens":1000000`)
	assert.Contains(t, out, `"cost_usd":0.3`)
}
