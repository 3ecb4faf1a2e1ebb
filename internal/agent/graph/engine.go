package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/jinzhu/copier"

	"github.com/health-assistant-core/server/internal/agent/graph/conversations"
	"github.com/health-assistant-core/server/internal/agent/graph/nodes"
	"github.com/health-assistant-core/server/internal/agent/graph/observers"
	"github.com/health-assistant-core/server/internal/agent/graph/prompts"
	"github.com/health-assistant-core/server/internal/agent/graph/tools"
	"github.com/health-assistant-core/server/internal/agent/llm"
	"github.com/health-assistant-core/server/internal/agent/model"
	errx "github.com/health-assistant-core/server/internal/core/error"
	logx "github.com/health-assistant-core/server/pkg/logger"
)

// Config wires every dependency BuildEngine needs.
type Config struct {
	APIKey     string
	BaseURL    string
	Extraction model.ExtractionModelConfig
	Response   model.ResponseModelConfig
	Engine     model.EngineConfig
	Search     model.SearchConfig
	Logs       model.LogRepository
}

// Engine runs one conversation turn through the compiled graphs. It holds no
// per-session state and is safe for concurrent use.
type Engine struct {
	full     Runnable
	qa       Runnable
	catalog  *prompts.Catalog
	messages *conversations.MessagesManager
	cfg      model.EngineConfig
}

// BuildEngine creates the Gemini client, the default tool registry and the
// prompt catalog, then compiles the engine.
func BuildEngine(ctx context.Context, cfg Config) (*Engine, error) {
	lm, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Extraction: cfg.Extraction,
		Response:   cfg.Response,
	})
	if err != nil {
		return nil, err
	}

	registry, err := tools.NewDefaultRegistry(ctx, tools.Options{Logs: cfg.Logs, Search: cfg.Search})
	if err != nil {
		return nil, fmt.Errorf("error building tool registry: %w", err)
	}

	catalog, err := prompts.LoadCatalog()
	if err != nil {
		return nil, err
	}

	return NewEngine(ctx, lm, registry, catalog, cfg.Engine)
}

// NewEngine compiles the full and the Q&A graphs around lm.
func NewEngine(ctx context.Context, lm model.LanguageModel, registry *tools.Registry, catalog *prompts.Catalog, cfg model.EngineConfig) (*Engine, error) {
	cfg.MaxToolRounds = nodes.NormalizeMaxToolRounds(cfg.MaxToolRounds)
	gc := &GraphConfig{
		LM:            lm,
		Registry:      registry,
		Catalog:       catalog,
		MaxToolRounds: cfg.MaxToolRounds,
	}

	full, err := BuildGraph(ctx, gc)
	if err != nil {
		return nil, err
	}
	qa, err := BuildQAGraph(ctx, gc)
	if err != nil {
		return nil, err
	}

	logx.Info().
		Int("tools", registry.Len()).
		Int("max_tool_rounds", cfg.MaxToolRounds).
		Int("history_max_turns", cfg.HistoryMaxTurns).
		Dur("turn_timeout", cfg.TurnTimeout).
		Msg("Conversation engine ready")

	return &Engine{
		full:     full,
		qa:       qa,
		catalog:  catalog,
		messages: conversations.NewMessagesManager(cfg.HistoryMaxTurns),
		cfg:      cfg,
	}, nil
}

// Run executes one turn of the full graph. On failure the returned result
// still carries a user facing fallback reply and the unchanged history.
func (e *Engine) Run(ctx context.Context, in model.TurnInput) (*model.TurnResult, error) {
	return e.invoke(ctx, e.full, in)
}

// RunQA executes one turn of the degraded Q&A graph: no goal analysis, no
// planning and no tools.
func (e *Engine) RunQA(ctx context.Context, in model.TurnInput) (*model.TurnResult, error) {
	return e.invoke(ctx, e.qa, in)
}

func (e *Engine) invoke(ctx context.Context, runnable Runnable, in model.TurnInput) (*model.TurnResult, error) {
	if e.cfg.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.TurnTimeout)
		defer cancel()
	}

	state, err := e.newState(in)
	if err != nil {
		return e.fallback(in, state, err), err
	}
	if strings.TrimSpace(in.Input) == "" {
		err := errx.Invalid("input must not be empty")
		return e.fallback(in, state, err), err
	}

	logx.Info().
		Str("session_id", in.SessionID).
		Int("history_turns", len(in.History)).
		Int("clarification_attempts", in.ClarificationAttempts).
		Msg("Turn started")

	out, err := runnable.Invoke(ctx, state, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err == nil && (out == nil || !out.Outcome.IsFinal()) {
		err = fmt.Errorf("turn ended without a final answer")
	}
	if err != nil {
		err = classify(ctx, err)
		logx.Error().Err(err).Str("session_id", in.SessionID).Strs("trace", state.Trace).Msg("Turn failed")
		return e.fallback(in, state, err), err
	}

	reply := out.Outcome.Text
	logx.Info().
		Str("session_id", in.SessionID).
		Str("reason", string(out.Outcome.Reason)).
		Strs("trace", out.Trace).
		Int("tool_rounds", out.ToolRounds).
		Float64("cost_usd", out.TotalCostUSD).
		Msg("Turn finished")

	return &model.TurnResult{
		Reply:                 reply,
		History:               conversations.AppendTurn(in.History, in.Input, reply),
		Outcome:               out.Outcome,
		ClarificationAttempts: out.ClarificationAttempts,
		ToolResults:           out.ToolResults,
		Trace:                 out.Trace,
		TotalCostUSD:          out.TotalCostUSD,
	}, nil
}

// newState builds the per-turn state. The user context is deep copied so
// nothing a node does can reach the caller's value.
func (e *Engine) newState(in model.TurnInput) (*model.ConversationState, error) {
	s := &model.ConversationState{
		SessionID:             in.SessionID,
		Input:                 in.Input,
		History:               e.messages.ToMessages(in.History),
		ClarificationAttempts: in.ClarificationAttempts,
		MaxToolRounds:         e.cfg.MaxToolRounds,
	}
	if in.Context != nil {
		uc := &model.UserContext{}
		if err := copier.CopyWithOption(uc, in.Context, copier.Option{DeepCopy: true}); err != nil {
			return s, fmt.Errorf("error copying user context: %w", err)
		}
		s.Context = uc
	}
	return s, nil
}

func (e *Engine) fallback(in model.TurnInput, s *model.ConversationState, err error) *model.TurnResult {
	reply := e.catalog.FallbackFor(err)
	history := make([]model.Turn, len(in.History))
	copy(history, in.History)

	res := &model.TurnResult{
		Reply:                 reply,
		History:               history,
		Outcome:               model.FinalAnswer(reply, model.ReasonFallback),
		ClarificationAttempts: in.ClarificationAttempts,
	}
	if s != nil {
		res.ToolResults = s.ToolResults
		res.Trace = s.Trace
		res.TotalCostUSD = s.TotalCostUSD
	}
	return res
}

// classify maps run failures onto the engine's error kinds.
func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", errx.ErrTurnTimeout, err)
	case errors.Is(err, compose.ErrExceedMaxSteps):
		return fmt.Errorf("%w: %w", errx.ErrMaxRoundsExceeded, err)
	default:
		return err
	}
}
