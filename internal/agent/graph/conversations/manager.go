package conversations

import (
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/health-assistant-core/server/internal/agent/model"
)

// MessagesManager turns stored turns into model context windows.
type MessagesManager struct {
	historyMaxTurns int
}

// NewMessagesManager keeps at most historyMaxTurns turns in every context
// window. Zero or less keeps everything.
func NewMessagesManager(historyMaxTurns int) *MessagesManager {
	return &MessagesManager{historyMaxTurns: historyMaxTurns}
}

// =========== History ===========

// ToMessages converts turns, oldest first, into user/assistant messages.
// Empty sides of a turn are skipped.
func (cm *MessagesManager) ToMessages(turns []model.Turn) []*schema.Message {
	recent := trimTail(turns, cm.historyMaxTurns)
	msgs := make([]*schema.Message, 0, 2*len(recent))
	for _, t := range recent {
		if strings.TrimSpace(t.User) != "" {
			msgs = append(msgs, schema.UserMessage(t.User))
		}
		if strings.TrimSpace(t.Assistant) != "" {
			msgs = append(msgs, schema.AssistantMessage(t.Assistant, nil))
		}
	}
	return msgs
}

// AppendTurn returns a new slice with (input, reply) added. turns is not modified.
func AppendTurn(turns []model.Turn, input, reply string) []model.Turn {
	out := make([]model.Turn, len(turns), len(turns)+1)
	copy(out, turns)
	return append(out, model.Turn{User: input, Assistant: reply})
}

// Transcript renders history as "user: ..." / "assistant: ..." lines for
// extraction prompts.
func Transcript(messages []*schema.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		if msg == nil || msg.Content == "" {
			continue
		}
		switch msg.Role {
		case schema.User:
			b.WriteString("user: " + msg.Content + "\n")
		case schema.Assistant:
			b.WriteString("assistant: " + msg.Content + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// =========== Context windows ===========

// BuildAgentContext lays out system, history, the user input, and then one
// assistant tool-call message followed by its tool messages per completed round.
func BuildAgentContext(system string, history []*schema.Message, input string, results []model.ToolResult) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(history)+2+2*len(results))
	msgs = append(msgs, schema.SystemMessage(system))
	msgs = append(msgs, history...)
	msgs = append(msgs, schema.UserMessage(input))

	for start := 0; start < len(results); {
		round := results[start].Call.Round
		end := start
		for end < len(results) && results[end].Call.Round == round {
			end++
		}

		batch := results[start:end]
		calls := make([]schema.ToolCall, 0, len(batch))
		for _, r := range batch {
			args := r.Call.RawArguments
			if strings.TrimSpace(args) == "" {
				args = "{}"
			}
			calls = append(calls, schema.ToolCall{
				ID:   r.Call.ID,
				Type: "function",
				Function: schema.FunctionCall{
					Name:      r.Call.Name,
					Arguments: args,
				},
			})
		}
		msgs = append(msgs, schema.AssistantMessage("", calls))
		for _, r := range batch {
			tm := schema.ToolMessage(r.Observation, r.Call.ID)
			tm.ToolName = r.Call.Name
			msgs = append(msgs, tm)
		}
		start = end
	}
	return msgs
}

// BuildQAContext is the plain system, history, input window.
func BuildQAContext(system string, history []*schema.Message, input string) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(history)+2)
	msgs = append(msgs, schema.SystemMessage(system))
	msgs = append(msgs, history...)
	return append(msgs, schema.UserMessage(input))
}

// ====================== Helper function ======================
func trimTail[T any](items []T, max int) []T {
	if max <= 0 || len(items) <= max {
		result := make([]T, len(items))
		copy(result, items)
		return result
	}
	source := items[len(items)-max:]
	result := make([]T, len(source))
	copy(result, source)
	return result
}
