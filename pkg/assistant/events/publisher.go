package events

import (
	"context"
	"time"

	"dashboard-assistant-be/internal/pkg/logger"
	pkgEvents "dashboard-assistant-be/pkg/events"

	"github.com/google/uuid"
)

const logModule = "EVENTS"

// Publisher abstracts event publishing for assistant operations. Publishing
// is best effort: failures are logged, never returned.
type Publisher interface {
	PublishAnswered(ctx context.Context, sessionId, userId, messageId uuid.UUID, sourceCount int, degraded bool)
	PublishSessionCleared(ctx context.Context, sessionId, userId uuid.UUID)
	PublishSessionDeleted(ctx context.Context, sessionId, userId uuid.UUID)
	PublishSessionTitled(ctx context.Context, sessionId, userId uuid.UUID, title string)
}

// Multi fans every event out to each publisher in order
type Multi []Publisher

var _ Publisher = Multi(nil)

func (m Multi) PublishAnswered(ctx context.Context, sessionId, userId, messageId uuid.UUID, sourceCount int, degraded bool) {
	for _, p := range m {
		p.PublishAnswered(ctx, sessionId, userId, messageId, sourceCount, degraded)
	}
}

func (m Multi) PublishSessionCleared(ctx context.Context, sessionId, userId uuid.UUID) {
	for _, p := range m {
		p.PublishSessionCleared(ctx, sessionId, userId)
	}
}

func (m Multi) PublishSessionDeleted(ctx context.Context, sessionId, userId uuid.UUID) {
	for _, p := range m {
		p.PublishSessionDeleted(ctx, sessionId, userId)
	}
}

func (m Multi) PublishSessionTitled(ctx context.Context, sessionId, userId uuid.UUID, title string) {
	for _, p := range m {
		p.PublishSessionTitled(ctx, sessionId, userId, title)
	}
}

// Sink is the transport, satisfied by *nats.Publisher
type Sink interface {
	Publish(ctx context.Context, event pkgEvents.Event) error
}

type NatsPublisher struct {
	sink   Sink
	logger logger.ILogger
	now    func() time.Time
}

// NewNatsPublisher accepts a nil sink, in which case nothing is published
func NewNatsPublisher(sink Sink, log logger.ILogger) *NatsPublisher {
	return &NatsPublisher{
		sink:   sink,
		logger: log,
		now:    time.Now,
	}
}

// PublishAnswered emits ASSISTANT_ANSWERED
func (p *NatsPublisher) PublishAnswered(ctx context.Context, sessionId, userId, messageId uuid.UUID, sourceCount int, degraded bool) {
	p.publish(ctx, pkgEvents.AssistantAnswered, map[string]interface{}{
		"session_id":   sessionId.String(),
		"user_id":      userId.String(),
		"message_id":   messageId.String(),
		"source_count": sourceCount,
		"degraded":     degraded,
		"entity_type":  "chat_message",
		"entity_id":    messageId.String(),
	})
}

// PublishSessionCleared emits CHAT_SESSION_CLEARED
func (p *NatsPublisher) PublishSessionCleared(ctx context.Context, sessionId, userId uuid.UUID) {
	p.publish(ctx, pkgEvents.ChatSessionCleared, map[string]interface{}{
		"session_id":  sessionId.String(),
		"user_id":     userId.String(),
		"entity_type": "chat_session",
		"entity_id":   sessionId.String(),
	})
}

// PublishSessionDeleted emits CHAT_SESSION_DELETED
func (p *NatsPublisher) PublishSessionDeleted(ctx context.Context, sessionId, userId uuid.UUID) {
	p.publish(ctx, pkgEvents.ChatSessionDeleted, map[string]interface{}{
		"session_id":  sessionId.String(),
		"user_id":     userId.String(),
		"entity_type": "chat_session",
		"entity_id":   sessionId.String(),
	})
}

// PublishSessionTitled emits CHAT_SESSION_TITLED
func (p *NatsPublisher) PublishSessionTitled(ctx context.Context, sessionId, userId uuid.UUID, title string) {
	p.publish(ctx, pkgEvents.ChatSessionTitled, map[string]interface{}{
		"session_id":  sessionId.String(),
		"user_id":     userId.String(),
		"title":       title,
		"entity_type": "chat_session",
		"entity_id":   sessionId.String(),
	})
}

func (p *NatsPublisher) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if p.sink == nil {
		return
	}

	now := p.now()
	data["occurred_at"] = now.Format(time.RFC3339Nano)
	evt := pkgEvents.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: now,
	}

	if err := p.sink.Publish(ctx, evt); err != nil {
		p.logger.Error(logModule, "Failed to publish "+eventType+" event", map[string]interface{}{"error": err.Error()})
	}
}
