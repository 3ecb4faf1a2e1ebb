package repo

import (
	"context"
	"sync"
	"time"

	"github.com/health-assistant-core/server/internal/agent/model"
)

// MemorySessionStore is the in-process SessionStore used when no Redis URL
// is configured and in tests.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*model.Session)}
}

func (m *MemorySessionStore) Load(_ context.Context, sessionID string) (*model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return &model.Session{ID: sessionID, Turns: []model.Turn{}}, nil
	}
	turns := make([]model.Turn, len(s.Turns))
	copy(turns, s.Turns)
	return &model.Session{ID: sessionID, Turns: turns, ClarificationAttempts: s.ClarificationAttempts}, nil
}

func (m *MemorySessionStore) Append(_ context.Context, sessionID string, turn model.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	s.Turns = append(s.Turns, turn)
	return nil
}

func (m *MemorySessionStore) ReplaceTurns(_ context.Context, sessionID string, turns []model.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	s.Turns = make([]model.Turn, len(turns))
	copy(s.Turns, turns)
	return nil
}

func (m *MemorySessionStore) SetClarificationAttempts(_ context.Context, sessionID string, attempts int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(sessionID).ClarificationAttempts = attempts
	return nil
}

func (m *MemorySessionStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

// session returns the stored session, creating it. Callers hold m.mu.
func (m *MemorySessionStore) session(sessionID string) *model.Session {
	s, ok := m.sessions[sessionID]
	if !ok {
		s = &model.Session{ID: sessionID}
		m.sessions[sessionID] = s
	}
	return s
}

var _ model.SessionStore = (*MemorySessionStore)(nil)

// MemoryLogRepository is the in-process LogRepository.
type MemoryLogRepository struct {
	mu   sync.RWMutex
	logs map[string][]model.DailyLog
	food map[string][]model.FoodEntry
}

func NewMemoryLogRepository() *MemoryLogRepository {
	return &MemoryLogRepository{
		logs: make(map[string][]model.DailyLog),
		food: make(map[string][]model.FoodEntry),
	}
}

func (m *MemoryLogRepository) AddDailyLog(_ context.Context, userID string, log model.DailyLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[userID] = append(m.logs[userID], log)
	return nil
}

func (m *MemoryLogRepository) AddFoodEntry(_ context.Context, userID string, entry model.FoodEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.food[userID] = append(m.food[userID], entry)
	return nil
}

func (m *MemoryLogRepository) RecentDailyLogs(_ context.Context, userID string, since time.Time) ([]model.DailyLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return createdSince(m.logs[userID], since, func(l model.DailyLog) time.Time { return l.CreatedAt }), nil
}

func (m *MemoryLogRepository) RecentFoodEntries(_ context.Context, userID string, since time.Time) ([]model.FoodEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return createdSince(m.food[userID], since, func(f model.FoodEntry) time.Time { return f.CreatedAt }), nil
}

var _ model.LogRepository = (*MemoryLogRepository)(nil)
