package contract

import (
	"context"

	"dashboard-assistant-be/internal/entity"
	"dashboard-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ChatSessionRepository stores session rows only; messages live in
// ChatMessageRepository. Finders return nil, nil when nothing matches.
type ChatSessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	// Save writes title, state and the deletion mark
	Save(ctx context.Context, session *entity.ChatSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error)
}

type ChatMessageRepository interface {
	Append(ctx context.Context, message *entity.ChatMessage) error
	// Last is the newest message of the session, nil when it has none
	Last(ctx context.Context, sessionId uuid.UUID) (*entity.ChatMessage, error)
	ListBySession(ctx context.Context, sessionId uuid.UUID) ([]*entity.ChatMessage, error)
	DeleteBySession(ctx context.Context, sessionId uuid.UUID) (int64, error)
}
