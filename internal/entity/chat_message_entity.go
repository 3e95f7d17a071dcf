package entity

import (
	"time"

	"dashboard-assistant-be/pkg/knowledge"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Role          string
	Content       string
	Sources       []knowledge.RankedResult
	CreatedAt     time.Time
}

// Turn converts the message to the shape handed to generation
func (m *ChatMessage) Turn() knowledge.Turn {
	return knowledge.Turn{Role: m.Role, Content: m.Content, Timestamp: m.CreatedAt}
}
