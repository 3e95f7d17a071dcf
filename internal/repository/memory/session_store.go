package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"dashboard-assistant-be/internal/entity"
	"dashboard-assistant-be/internal/repository/contract"
	"dashboard-assistant-be/pkg/knowledge"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const defaultSessionTitle = entity.DefaultSessionTitle

const (
	// DefaultTombstoneTTL is how long a deleted session keeps answering
	// ErrSessionDeleted before it is dropped and reads as not found.
	DefaultTombstoneTTL = 24 * time.Hour
	janitorInterval     = 10 * time.Minute
)

// SessionStore keeps sessions in process memory. Live sessions never
// expire; deleted ones stay as tombstones for a while so later calls
// report ErrSessionDeleted.
type SessionStore struct {
	mu           sync.Mutex
	cache        *cache.Cache
	now          func() time.Time
	tombstoneTTL time.Duration
}

var _ contract.SessionStore = (*SessionStore)(nil)

func NewSessionStore() *SessionStore {
	return &SessionStore{
		cache:        cache.New(cache.NoExpiration, janitorInterval),
		now:          time.Now,
		tombstoneTTL: DefaultTombstoneTTL,
	}
}

// WithTombstoneTTL changes how long deleted sessions are remembered
func (r *SessionStore) WithTombstoneTTL(ttl time.Duration) *SessionStore {
	r.tombstoneTTL = ttl
	return r
}

// WithClock replaces the clock used for timestamps
func (r *SessionStore) WithClock(now func() time.Time) *SessionStore {
	r.now = now
	return r
}

func (r *SessionStore) CreateSession(ctx context.Context, userId uuid.UUID, title string) (*entity.ChatSession, error) {
	if title == "" {
		title = defaultSessionTitle
	}
	now := r.now()
	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		State:     entity.SessionCreated,
		Messages:  []*entity.ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Set(session.Id.String(), session, cache.NoExpiration)
	return copySession(session), nil
}

func (r *SessionStore) AppendMessage(ctx context.Context, sessionId uuid.UUID, msg *entity.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, err := r.writable("append", sessionId)
	if err != nil {
		return err
	}
	r.append(session, msg)
	return nil
}

func (r *SessionStore) AppendTurn(ctx context.Context, sessionId uuid.UUID, user, assistant *entity.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, err := r.writable("append", sessionId)
	if err != nil {
		return err
	}
	r.append(session, user)
	r.append(session, assistant)
	return nil
}

// append must be called with mu held
func (r *SessionStore) append(session *entity.ChatSession, msg *entity.ChatMessage) {
	if msg.Id == uuid.Nil {
		msg.Id = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = r.now()
	}
	msg.CreatedAt = entity.NextTimestamp(session.LastMessageAt(), msg.CreatedAt)
	msg.ChatSessionId = session.Id

	stored := *msg
	session.Messages = append(session.Messages, &stored)
	if session.State == entity.SessionCreated {
		session.State = entity.SessionActive
	}
	session.UpdatedAt = r.now()
}

func (r *SessionStore) ListSessions(ctx context.Context, userId uuid.UUID) ([]*entity.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.ChatSession
	for _, item := range r.cache.Items() {
		session := item.Object.(*entity.ChatSession)
		if session.UserId != userId || session.State == entity.SessionDeleted {
			continue
		}
		c := copySession(session)
		c.Messages = nil
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (r *SessionStore) GetSession(ctx context.Context, sessionId uuid.UUID) (*entity.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, err := r.writable("get", sessionId)
	if err != nil {
		return nil, err
	}
	return copySession(session), nil
}

func (r *SessionStore) RenameSession(ctx context.Context, sessionId uuid.UUID, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, err := r.writable("rename", sessionId)
	if err != nil {
		return err
	}
	session.Title = title
	session.UpdatedAt = r.now()
	return nil
}

func (r *SessionStore) ClearSession(ctx context.Context, sessionId uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, err := r.writable("clear", sessionId)
	if err != nil {
		return err
	}
	session.Messages = []*entity.ChatMessage{}
	session.UpdatedAt = r.now()
	return nil
}

func (r *SessionStore) DeleteSession(ctx context.Context, sessionId uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, err := r.writable("delete", sessionId)
	if err != nil {
		return err
	}
	now := r.now()
	session.Messages = nil
	session.State = entity.SessionDeleted
	session.UpdatedAt = now
	session.DeletedAt = &now
	r.cache.Set(sessionId.String(), session, r.tombstoneTTL)
	return nil
}

// writable must be called with mu held
func (r *SessionStore) writable(op string, sessionId uuid.UUID) (*entity.ChatSession, error) {
	x, found := r.cache.Get(sessionId.String())
	if !found {
		return nil, knowledge.NewPersistenceError(op, sessionId.String(), knowledge.ErrSessionNotFound)
	}
	session := x.(*entity.ChatSession)
	if err := session.Writable(); err != nil {
		return nil, knowledge.NewPersistenceError(op, sessionId.String(), err)
	}
	return session, nil
}

func copySession(s *entity.ChatSession) *entity.ChatSession {
	c := *s
	c.Messages = make([]*entity.ChatMessage, len(s.Messages))
	for i, m := range s.Messages {
		msg := *m
		c.Messages[i] = &msg
	}
	return &c
}
