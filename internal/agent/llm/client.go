package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/health-assistant-core/server/internal/agent/model"
	errx "github.com/health-assistant-core/server/internal/core/error"
	logx "github.com/health-assistant-core/server/pkg/logger"
)

const extractionInstruction = `Respond ONLY with a JSON object named %s that conforms to this JSON schema. Do not add any prose or markdown.
%s`

// Models bundles the two chat models used by the client: a low temperature
// one for structured extraction and one for user facing responses.
type Models struct {
	Extraction     einomodel.BaseChatModel
	Response       einomodel.BaseChatModel
	ExtractionName string
	ResponseName   string
}

// Client implements model.LanguageModel over eino chat models.
type Client struct {
	m Models
}

var _ model.LanguageModel = (*Client)(nil)

func NewClient(m Models) (*Client, error) {
	if m.Extraction == nil || m.Response == nil {
		return nil, fmt.Errorf("llm: extraction and response models are required")
	}
	return &Client{m: m}, nil
}

func (c *Client) Complete(ctx context.Context, messages []*schema.Message) (*model.Completion, error) {
	ctx, span := tracer.Start(ctx, "llm complete")
	defer span.End()

	resp, err := c.generate(ctx, span, c.m.Response, c.m.ResponseName, messages)
	if err != nil {
		return nil, err
	}
	return &model.Completion{Text: resp.Content, Model: c.m.ResponseName, Usage: usage(resp)}, nil
}

func (c *Client) CompleteWithTools(ctx context.Context, messages []*schema.Message, tools []*schema.ToolInfo) (*model.Completion, error) {
	ctx, span := tracer.Start(ctx, "llm complete with tools")
	defer span.End()
	span.SetAttributes(attribute.Int("request.tools", len(tools)))

	var opts []einomodel.Option
	if len(tools) > 0 {
		opts = append(opts, einomodel.WithTools(tools))
	}
	resp, err := c.generate(ctx, span, c.m.Response, c.m.ResponseName, messages, opts...)
	if err != nil {
		return nil, err
	}

	out := &model.Completion{Model: c.m.ResponseName, Usage: usage(resp)}
	if len(resp.ToolCalls) > 0 {
		out.ToolCalls = toToolCalls(resp.ToolCalls)
		span.SetAttributes(attribute.Int("response.tool_calls", len(out.ToolCalls)))
		return out, nil
	}
	out.Text = resp.Content
	return out, nil
}

// Extract asks the extraction model for JSON matching the schema of out and
// decodes it into out. out must be a non-nil pointer to a struct. When out
// has a Validate() error method it is called after decoding.
func (c *Client) Extract(ctx context.Context, messages []*schema.Message, out any) (*model.Completion, error) {
	ctx, span := tracer.Start(ctx, "llm extract")
	defer span.End()

	t := reflect.TypeOf(out)
	if t == nil || t.Kind() != reflect.Ptr || reflect.ValueOf(out).IsNil() {
		return nil, fmt.Errorf("llm: extract target must be a non-nil pointer, got %T", out)
	}
	name := t.Elem().Name()

	reflector := jsonschema.Reflector{DoNotReference: true}
	sch := reflector.ReflectFromType(t.Elem())
	schemaJSON, err := json.Marshal(sch)
	if err != nil {
		return nil, fmt.Errorf("llm: marshal schema %s: %w", name, err)
	}
	span.SetAttributes(attribute.String("request.schema", name))

	input := withInstruction(messages, fmt.Sprintf(extractionInstruction, name, schemaJSON))
	resp, err := c.generate(ctx, span, c.m.Extraction, c.m.ExtractionName, input)
	if err != nil {
		return nil, err
	}

	raw := StripCodeFence(resp.Content)
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		span.RecordError(err)
		return nil, errx.NewExtractionError(name, resp.Content, err)
	}
	if v, ok := out.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			span.RecordError(err)
			return nil, errx.NewExtractionError(name, resp.Content, err)
		}
	}
	return &model.Completion{Text: raw, Model: c.m.ExtractionName, Usage: usage(resp)}, nil
}

func (c *Client) generate(ctx context.Context, span trace.Span, cm einomodel.BaseChatModel, name string, messages []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	span.SetAttributes(attribute.String("request.model", name), attribute.Int("request.messages", len(messages)))

	ctx = einocb.ReuseHandlers(ctx, &einocb.RunInfo{Name: name, Type: "ChatModel", Component: components.ComponentOfChatModel})
	resp, err := cm.Generate(ctx, messages, opts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logx.Error().Err(err).Str("model", name).Msg("chat model request failed")
		return nil, errx.WrapModel(err)
	}
	if resp == nil {
		err := fmt.Errorf("chat model %s returned no message", name)
		span.RecordError(err)
		return nil, errx.WrapModel(err)
	}
	return resp, nil
}

// withInstruction merges instruction into the leading system message, or
// prepends one. The caller's messages are not modified.
func withInstruction(messages []*schema.Message, instruction string) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages)+1)
	if len(messages) > 0 && messages[0] != nil && messages[0].Role == schema.System {
		merged := *messages[0]
		merged.Content = strings.TrimSpace(merged.Content) + "\n\n" + instruction
		out = append(out, &merged)
		return append(out, messages[1:]...)
	}
	out = append(out, schema.SystemMessage(instruction))
	return append(out, messages...)
}

// StripCodeFence returns the body of the first ``` fenced block, without its
// language tag, or the trimmed input when there is no fence.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	parts := strings.SplitN(s, "```", 3)
	if len(parts) < 2 {
		return s
	}
	body := parts[1]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		tag := strings.TrimSpace(body[:nl])
		if tag != "" && !strings.ContainsAny(tag, "{[") {
			body = body[nl+1:]
		}
	}
	return strings.TrimSpace(body)
}

func usage(m *schema.Message) *schema.TokenUsage {
	if m == nil || m.ResponseMeta == nil {
		return nil
	}
	return m.ResponseMeta.Usage
}

// toToolCalls normalizes provider tool calls. Missing IDs are generated and
// arguments that do not decode to an object are kept only as raw text.
func toToolCalls(in []schema.ToolCall) []model.ToolCall {
	out := make([]model.ToolCall, 0, len(in))
	for _, tc := range in {
		id := strings.TrimSpace(tc.ID)
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		call := model.ToolCall{
			ID:           id,
			Name:         strings.TrimSpace(tc.Function.Name),
			RawArguments: tc.Function.Arguments,
		}
		if raw := strings.TrimSpace(tc.Function.Arguments); raw != "" {
			args := map[string]any{}
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				logx.Warn().Err(err).Str("tool_name", call.Name).Msg("tool call arguments are not a JSON object")
			} else {
				call.Arguments = args
			}
		} else {
			call.Arguments = map[string]any{}
		}
		out = append(out, call)
	}
	return out
}
