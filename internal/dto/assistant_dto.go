package dto

import (
	"time"

	"dashboard-assistant-be/pkg/knowledge"
	"dashboard-assistant-be/pkg/knowledge/fanout"

	"github.com/google/uuid"
)

type ClassifyIntentRequest struct {
	Query string `json:"query" validate:"required,max=1000"`
}

type ClassifyIntentResponse struct {
	Intents []string `json:"intents"`
}

type FederatedSearchRequest struct {
	Query   string                 `json:"query" validate:"required,max=1000"`
	Context *knowledge.ChatContext `json:"context,omitempty"`
}

type SearchResponse struct {
	Intents  []string                 `json:"intents"`
	Results  []knowledge.RankedResult `json:"results"`
	Degraded bool                     `json:"degraded"`
	Report   fanout.Report            `json:"report"`
}

type CreateSessionRequest struct {
	Title string `json:"title" validate:"max=120"`
}

type SessionResponse struct {
	Id        uuid.UUID          `json:"id"`
	Title     string             `json:"title"`
	State     string             `json:"state"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	Messages  []*MessageResponse `json:"messages,omitempty"`
}

type MessageResponse struct {
	Id        uuid.UUID                `json:"id"`
	Role      string                   `json:"role"`
	Content   string                   `json:"content"`
	CreatedAt time.Time                `json:"created_at"`
	Sources   []knowledge.RankedResult `json:"sources,omitempty"`
}

type AnswerRequest struct {
	Query   string                 `json:"query" validate:"required,max=2000"`
	Context *knowledge.ChatContext `json:"context,omitempty"`
}

type AnswerResponse struct {
	Message  *MessageResponse `json:"message"`
	Degraded bool             `json:"degraded"`
}

// SessionTitleMessage is the in-process payload that names a session
// after its first question
type SessionTitleMessage struct {
	SessionId uuid.UUID `json:"session_id"`
	UserId    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
}
