package model

import (
	"time"

	"github.com/google/uuid"
)

// ChatSession keeps deleted rows with state DELETED so a later operation
// can tell "deleted" from "never existed".
type ChatSession struct {
	Id        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID  `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	Title     string     `gorm:"type:text;not null"`
	State     string     `gorm:"type:varchar(16);not null;default:CREATED;index"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
