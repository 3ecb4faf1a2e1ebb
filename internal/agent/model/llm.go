package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// Completion is what one round trip to the language model produced.
// Exactly one of Text or ToolCalls is meaningful for tool-enabled calls.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
	Model     string
	Usage     *schema.TokenUsage
}

// HasToolCalls reports whether the model asked for tools instead of answering.
func (c *Completion) HasToolCalls() bool {
	return c != nil && len(c.ToolCalls) > 0
}

// LanguageModel is the only capability the engine needs from a model provider.
type LanguageModel interface {
	// Complete asks for free text.
	Complete(ctx context.Context, messages []*schema.Message) (*Completion, error)

	// Extract fills out (a pointer to a schema struct) from the model's answer.
	Extract(ctx context.Context, messages []*schema.Message, out any) (*Completion, error)

	// CompleteWithTools lets the model answer directly or request tool calls.
	CompleteWithTools(ctx context.Context, messages []*schema.Message, tools []*schema.ToolInfo) (*Completion, error)
}
