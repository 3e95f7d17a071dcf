package entity

import (
	"time"

	"dashboard-assistant-be/pkg/knowledge"

	"github.com/google/uuid"
)

type SessionState string

const (
	SessionCreated SessionState = "CREATED"
	SessionActive  SessionState = "ACTIVE"
	SessionDeleted SessionState = "DELETED"
)

// DefaultSessionTitle is given to sessions created without a title
const DefaultSessionTitle = "New chat"

// ChatSession is an ordered, append-only conversation. Messages is only
// populated by reads that ask for it.
type ChatSession struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	State     SessionState
	Messages  []*ChatMessage
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// LastMessageAt is the timestamp new messages must not precede
func (s *ChatSession) LastMessageAt() time.Time {
	if len(s.Messages) == 0 {
		return time.Time{}
	}
	return s.Messages[len(s.Messages)-1].CreatedAt
}

// NeedsTitle reports whether the first user turn should name the session.
// Titles chosen at creation and sessions that already had a turn are kept.
func (s *ChatSession) NeedsTitle() bool {
	return s.State == SessionCreated && s.Title == DefaultSessionTitle
}

// Writable fails for sessions that no longer accept operations
func (s *ChatSession) Writable() error {
	if s.State == SessionDeleted {
		return knowledge.ErrSessionDeleted
	}
	return nil
}

// NextTimestamp keeps message order strictly increasing at the
// microsecond precision the database stores.
func NextTimestamp(last, ts time.Time) time.Time {
	ts = ts.Truncate(time.Microsecond)
	if !last.IsZero() && !ts.After(last) {
		return last.Add(time.Microsecond)
	}
	return ts
}
