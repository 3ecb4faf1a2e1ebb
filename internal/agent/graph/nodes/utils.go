package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/health-assistant-core/server/internal/agent/model"
	logx "github.com/health-assistant-core/server/pkg/logger"
)

const DefaultMaxToolRounds = 5

// StateFunc is the shape of every node: it reads and advances the turn state.
type StateFunc = func(ctx context.Context, s *model.ConversationState) (*model.ConversationState, error)

// ===== Small helpers to keep nodes simple/readable =====

// NormalizeMaxToolRounds returns a sane default when the provided value is invalid.
func NormalizeMaxToolRounds(n int) int {
	if n <= 0 {
		return DefaultMaxToolRounds
	}
	return n
}

// Wrap adds the behaviour shared by all nodes: cancellation is checked before
// the node runs, the visit is recorded in the trace and a span is opened.
func Wrap(name string, fn StateFunc) StateFunc {
	return func(ctx context.Context, s *model.ConversationState) (*model.ConversationState, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s == nil {
			return nil, fmt.Errorf("%s: nil conversation state", name)
		}

		ctx, span := tracer.Start(ctx, name)
		defer span.End()
		span.SetAttributes(attribute.String("session.id", s.SessionID))

		s.Visit(name)
		out, err := fn(ctx, s)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logx.Error().Err(err).Str("session_id", s.SessionID).Str("node", name).Msg("node failed")
			return nil, err
		}

		span.SetAttributes(attribute.String("outcome", out.Outcome.Kind.String()))
		logx.Debug().
			Str("session_id", out.SessionID).
			Str("node", name).
			Str("outcome", out.Outcome.Kind.String()).
			Int("tool_rounds", out.ToolRounds).
			Msg("node done")
		return out, nil
	}
}

// NewLambda wraps fn into a graph node.
func NewLambda(name string, fn StateFunc) *compose.Lambda {
	return compose.InvokableLambda(Wrap(name, fn))
}

// clampInt returns v limited to [min, max].
func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
