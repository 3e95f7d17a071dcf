// Package sessionstore persists chat sessions in Postgres through the
// unit of work. Every mutating operation runs in one transaction that
// locks the session row first, so concurrent appends to one session are
// serialized.
package sessionstore

import (
	"context"
	"time"

	"dashboard-assistant-be/internal/entity"
	"dashboard-assistant-be/internal/pkg/logger"
	"dashboard-assistant-be/internal/repository/contract"
	"dashboard-assistant-be/internal/repository/specification"
	"dashboard-assistant-be/internal/repository/unitofwork"
	"dashboard-assistant-be/pkg/knowledge"

	"github.com/google/uuid"
)

const (
	logModule    = "SESSION"
	DefaultTitle = entity.DefaultSessionTitle
)

type GormSessionStore struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
	now        func() time.Time
}

var _ contract.SessionStore = (*GormSessionStore)(nil)

func NewGormSessionStore(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) *GormSessionStore {
	return &GormSessionStore{
		uowFactory: uowFactory,
		logger:     log,
		now:        time.Now,
	}
}

func (s *GormSessionStore) CreateSession(ctx context.Context, userId uuid.UUID, title string) (*entity.ChatSession, error) {
	if title == "" {
		title = DefaultTitle
	}
	now := s.now()
	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		State:     entity.SessionCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, s.fail("create", uuid.Nil, err)
	}
	session.Messages = []*entity.ChatMessage{}
	return session, nil
}

func (s *GormSessionStore) AppendMessage(ctx context.Context, sessionId uuid.UUID, msg *entity.ChatMessage) error {
	return s.withLockedSession(ctx, "append", sessionId, func(uow unitofwork.UnitOfWork, session *entity.ChatSession) error {
		return s.append(ctx, uow, session, msg)
	})
}

func (s *GormSessionStore) AppendTurn(ctx context.Context, sessionId uuid.UUID, user, assistant *entity.ChatMessage) error {
	return s.withLockedSession(ctx, "append", sessionId, func(uow unitofwork.UnitOfWork, session *entity.ChatSession) error {
		if err := s.append(ctx, uow, session, user); err != nil {
			return err
		}
		return s.append(ctx, uow, session, assistant)
	})
}

// append runs inside withLockedSession
func (s *GormSessionStore) append(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.ChatSession, msg *entity.ChatMessage) error {
	last, err := uow.ChatMessageRepository().Last(ctx, session.Id)
	if err != nil {
		return err
	}

	var lastAt time.Time
	if last != nil {
		lastAt = last.CreatedAt
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	if msg.Id == uuid.Nil {
		msg.Id = uuid.New()
	}
	msg.CreatedAt = entity.NextTimestamp(lastAt, msg.CreatedAt)
	msg.ChatSessionId = session.Id

	if err := uow.ChatMessageRepository().Append(ctx, msg); err != nil {
		return err
	}

	if session.State == entity.SessionCreated {
		session.State = entity.SessionActive
	}
	session.UpdatedAt = s.now()
	return uow.ChatSessionRepository().Save(ctx, session)
}

func (s *GormSessionStore) ListSessions(ctx context.Context, userId uuid.UUID) ([]*entity.ChatSession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.StateNot{State: string(entity.SessionDeleted)},
		specification.OrderBy{Column: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, s.fail("list", uuid.Nil, err)
	}
	return sessions, nil
}

func (s *GormSessionStore) GetSession(ctx context.Context, sessionId uuid.UUID) (*entity.ChatSession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, s.fail("get", sessionId, err)
	}
	if session == nil {
		return nil, s.fail("get", sessionId, knowledge.ErrSessionNotFound)
	}
	if err := session.Writable(); err != nil {
		return nil, s.fail("get", sessionId, err)
	}

	messages, err := uow.ChatMessageRepository().ListBySession(ctx, sessionId)
	if err != nil {
		return nil, s.fail("get", sessionId, err)
	}
	session.Messages = messages
	return session, nil
}

func (s *GormSessionStore) RenameSession(ctx context.Context, sessionId uuid.UUID, title string) error {
	return s.withLockedSession(ctx, "rename", sessionId, func(uow unitofwork.UnitOfWork, session *entity.ChatSession) error {
		session.Title = title
		session.UpdatedAt = s.now()
		return uow.ChatSessionRepository().Save(ctx, session)
	})
}

// ClearSession wipes messages; the session stays in its current state
func (s *GormSessionStore) ClearSession(ctx context.Context, sessionId uuid.UUID) error {
	return s.withLockedSession(ctx, "clear", sessionId, func(uow unitofwork.UnitOfWork, session *entity.ChatSession) error {
		if _, err := uow.ChatMessageRepository().DeleteBySession(ctx, sessionId); err != nil {
			return err
		}
		session.UpdatedAt = s.now()
		return uow.ChatSessionRepository().Save(ctx, session)
	})
}

func (s *GormSessionStore) DeleteSession(ctx context.Context, sessionId uuid.UUID) error {
	return s.withLockedSession(ctx, "delete", sessionId, func(uow unitofwork.UnitOfWork, session *entity.ChatSession) error {
		if _, err := uow.ChatMessageRepository().DeleteBySession(ctx, sessionId); err != nil {
			return err
		}
		now := s.now()
		session.State = entity.SessionDeleted
		session.UpdatedAt = now
		session.DeletedAt = &now
		return uow.ChatSessionRepository().Save(ctx, session)
	})
}

// withLockedSession runs fn in a transaction holding the session row lock.
// Missing and deleted sessions never reach fn.
func (s *GormSessionStore) withLockedSession(ctx context.Context, op string, sessionId uuid.UUID, fn func(uow unitofwork.UnitOfWork, session *entity.ChatSession) error) error {
	err := unitofwork.InTransaction(ctx, s.uowFactory, func(uow unitofwork.UnitOfWork) error {
		session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId}, specification.ForUpdate{})
		if err != nil {
			return err
		}
		if session == nil {
			return knowledge.ErrSessionNotFound
		}
		if err := session.Writable(); err != nil {
			return err
		}
		return fn(uow, session)
	})
	if err != nil {
		return s.fail(op, sessionId, err)
	}
	return nil
}

func (s *GormSessionStore) fail(op string, sessionId uuid.UUID, err error) error {
	id := ""
	if sessionId != uuid.Nil {
		id = sessionId.String()
	}
	pe := knowledge.NewPersistenceError(op, id, err)
	if !isLifecycleError(err) {
		s.logger.Error(logModule, "Session store operation failed", map[string]interface{}{
			"op":         op,
			"session_id": id,
			"error":      err.Error(),
		})
	}
	return pe
}
