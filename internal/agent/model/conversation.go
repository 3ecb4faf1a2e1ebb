package model

import (
	"context"
)

// Turn is one stored (human, assistant) exchange.
type Turn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// Session is the cross-turn state owned by the caller.
type Session struct {
	ID                    string
	Turns                 []Turn
	ClarificationAttempts int
}

type SessionStore interface {
	// Load returns the session, or an empty one when nothing is stored yet.
	Load(ctx context.Context, sessionID string) (*Session, error)

	// Append adds one turn to the end of the session history.
	Append(ctx context.Context, sessionID string, turn Turn) error

	// ReplaceTurns overwrites the stored history (client supplied history wins).
	ReplaceTurns(ctx context.Context, sessionID string, turns []Turn) error

	// SetClarificationAttempts stores the clarification counter carried between turns.
	SetClarificationAttempts(ctx context.Context, sessionID string, attempts int) error

	// Clear removes everything stored for the session.
	Clear(ctx context.Context, sessionID string) error
}
