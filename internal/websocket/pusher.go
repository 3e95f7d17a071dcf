package websocket

import (
	"context"

	assistantEvents "dashboard-assistant-be/pkg/assistant/events"

	"github.com/google/uuid"
)

// Push event types
const (
	TypeAnswered       = "assistant_answered"
	TypeSessionTitled  = "session_titled"
	TypeSessionCleared = "session_cleared"
	TypeSessionDeleted = "session_deleted"
)

// EventPusher forwards assistant events to the owner's open connections
type EventPusher struct {
	hub *Hub
}

var _ assistantEvents.Publisher = (*EventPusher)(nil)

func NewEventPusher(hub *Hub) *EventPusher {
	return &EventPusher{hub: hub}
}

func (p *EventPusher) PublishAnswered(ctx context.Context, sessionId, userId, messageId uuid.UUID, sourceCount int, degraded bool) {
	p.hub.Push(ctx, userId, TypeAnswered, map[string]interface{}{
		"session_id":   sessionId,
		"message_id":   messageId,
		"source_count": sourceCount,
		"degraded":     degraded,
	})
}

func (p *EventPusher) PublishSessionCleared(ctx context.Context, sessionId, userId uuid.UUID) {
	p.hub.Push(ctx, userId, TypeSessionCleared, map[string]interface{}{"session_id": sessionId})
}

func (p *EventPusher) PublishSessionDeleted(ctx context.Context, sessionId, userId uuid.UUID) {
	p.hub.Push(ctx, userId, TypeSessionDeleted, map[string]interface{}{"session_id": sessionId})
}

func (p *EventPusher) PublishSessionTitled(ctx context.Context, sessionId, userId uuid.UUID, title string) {
	p.hub.Push(ctx, userId, TypeSessionTitled, map[string]interface{}{
		"session_id": sessionId,
		"title":      title,
	})
}
