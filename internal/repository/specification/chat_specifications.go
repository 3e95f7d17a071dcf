package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ByChatSessionID struct {
	ChatSessionID uuid.UUID
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.ChatSessionID)
}

// StateNot excludes sessions in the given lifecycle state
type StateNot struct {
	State string
}

func (s StateNot) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("state <> ?", s.State)
}

// ForUpdate locks the selected rows until the transaction ends
type ForUpdate struct{}

func (s ForUpdate) Apply(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
