package contract

import (
	"context"

	"dashboard-assistant-be/internal/entity"

	"github.com/google/uuid"
)

// SessionStore owns chat session state. Every failure it returns is a
// *knowledge.PersistenceError; missing and deleted sessions wrap
// knowledge.ErrSessionNotFound and knowledge.ErrSessionDeleted.
type SessionStore interface {
	CreateSession(ctx context.Context, userId uuid.UUID, title string) (*entity.ChatSession, error)
	// AppendMessage records msg at the end of the session and moves a
	// CREATED session to ACTIVE. A timestamp not after the previous
	// message's is bumped just past it.
	AppendMessage(ctx context.Context, sessionId uuid.UUID, msg *entity.ChatMessage) error
	// AppendTurn records a question and its reply atomically, so no other
	// message of the session can land between them.
	AppendTurn(ctx context.Context, sessionId uuid.UUID, user, assistant *entity.ChatMessage) error
	ListSessions(ctx context.Context, userId uuid.UUID) ([]*entity.ChatSession, error)
	// GetSession returns the session with its messages in order
	GetSession(ctx context.Context, sessionId uuid.UUID) (*entity.ChatSession, error)
	RenameSession(ctx context.Context, sessionId uuid.UUID, title string) error
	ClearSession(ctx context.Context, sessionId uuid.UUID) error
	DeleteSession(ctx context.Context, sessionId uuid.UUID) error
}
