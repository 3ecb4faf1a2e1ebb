package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/health-assistant-core/server/internal/agent/model"
	errx "github.com/health-assistant-core/server/internal/core/error"
	logx "github.com/health-assistant-core/server/pkg/logger"
)

// recentWindow is how far back logs are loaded into a user context that
// arrives without them.
const recentWindow = 7 * 24 * time.Hour

// Runner is the part of graph.Engine the service drives.
type Runner interface {
	Run(ctx context.Context, in model.TurnInput) (*model.TurnResult, error)
	RunQA(ctx context.Context, in model.TurnInput) (*model.TurnResult, error)
}

// Request is one inbound chat message.
type Request struct {
	SessionID string
	Message   string
	// ClientHistory, when non-nil, replaces the stored history of the session.
	ClientHistory []model.Turn
	// Context selects the full graph; nil runs the Q&A graph.
	Context *model.UserContext
}

// Service owns cross-turn state: it loads the session, runs one turn and
// persists the outcome. Turns of one session are serialized.
type Service struct {
	engine Runner
	store  model.SessionStore
	logs   model.LogRepository
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// NewService builds a Service. logs may be nil.
func NewService(engine Runner, store model.SessionStore, logs model.LogRepository) *Service {
	return &Service{
		engine: engine,
		store:  store,
		logs:   logs,
		now:    time.Now,
		locks:  make(map[string]*sessionLock),
	}
}

// Chat runs one turn for req.SessionID. When the engine fails the fallback
// result is returned with the error and nothing is persisted.
func (s *Service) Chat(ctx context.Context, req Request) (*model.TurnResult, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, errx.Invalid("session id must not be empty")
	}

	unlock := s.lock(req.SessionID)
	defer unlock()

	if req.ClientHistory != nil {
		if err := s.store.ReplaceTurns(ctx, req.SessionID, req.ClientHistory); err != nil {
			return nil, fmt.Errorf("replace session history: %w", err)
		}
	}

	sess, err := s.store.Load(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	in := model.TurnInput{
		SessionID:             req.SessionID,
		Input:                 req.Message,
		History:               sess.Turns,
		Context:               s.withRecentLogs(ctx, req.Context),
		ClarificationAttempts: sess.ClarificationAttempts,
	}

	run := s.engine.Run
	if in.Context == nil {
		run = s.engine.RunQA
	}
	res, err := run(ctx, in)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", req.SessionID).Msg("Turn failed; session left unchanged")
		return res, err
	}

	if err := s.store.Append(ctx, req.SessionID, model.Turn{User: req.Message, Assistant: res.Reply}); err != nil {
		return res, fmt.Errorf("append turn: %w", err)
	}
	attempts := 0
	if res.Outcome.Reason == model.ReasonClarificationAsked {
		attempts = res.ClarificationAttempts
	}
	if attempts != sess.ClarificationAttempts {
		if err := s.store.SetClarificationAttempts(ctx, req.SessionID, attempts); err != nil {
			return res, fmt.Errorf("store clarification counter: %w", err)
		}
	}
	res.ClarificationAttempts = attempts
	return res, nil
}

// History returns the stored turns of a session, oldest first.
func (s *Service) History(ctx context.Context, sessionID string) ([]model.Turn, error) {
	sess, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Turns, nil
}

// Reset forgets the session.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	unlock := s.lock(sessionID)
	defer unlock()
	return s.store.Clear(ctx, sessionID)
}

// sessionLock serializes the turns of one session. refs counts holders and
// waiters; the entry is dropped when it reaches zero.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func (s *Service) lock(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}
}

// withRecentLogs fills missing logs and food entries from the repository.
// The caller's context is not modified.
func (s *Service) withRecentLogs(ctx context.Context, uc *model.UserContext) *model.UserContext {
	if uc == nil || s.logs == nil || uc.UserID == "" {
		return uc
	}
	if len(uc.RecentLogs) > 0 || len(uc.RecentFoodEntries) > 0 {
		return uc
	}

	since := s.now().Add(-recentWindow)
	logs, err := s.logs.RecentDailyLogs(ctx, uc.UserID, since)
	if err != nil {
		logx.Warn().Err(err).Str("user_id", uc.UserID).Msg("Could not load recent logs")
		return uc
	}
	food, err := s.logs.RecentFoodEntries(ctx, uc.UserID, since)
	if err != nil {
		logx.Warn().Err(err).Str("user_id", uc.UserID).Msg("Could not load recent food entries")
		return uc
	}

	out := *uc
	out.RecentLogs = logs
	out.RecentFoodEntries = food
	return &out
}
