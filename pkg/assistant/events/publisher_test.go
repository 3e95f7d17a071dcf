package events

import (
	"context"
	"errors"
	"testing"

	"dashboard-assistant-be/internal/pkg/logger"
	pkgEvents "dashboard-assistant-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingSink struct {
	events []pkgEvents.Event
	err    error
}

func (s *recordingSink) Publish(ctx context.Context, event pkgEvents.Event) error {
	s.events = append(s.events, event)
	return s.err
}

func TestPublishAnswered(t *testing.T) {
	sink := &recordingSink{}
	sessionId, userId, messageId := uuid.New(), uuid.New(), uuid.New()

	NewNatsPublisher(sink, logger.NewNop()).PublishAnswered(context.Background(), sessionId, userId, messageId, 3, true)

	require.Len(t, sink.events, 1)
	evt := sink.events[0]
	assert.Equal(t, pkgEvents.AssistantAnswered, evt.EventType())
	assert.Equal(t, sessionId.String(), pkgEvents.StringField(evt, "session_id"))
	assert.Equal(t, 3, evt.Payload()["source_count"])
	assert.Equal(t, true, evt.Payload()["degraded"])
	assert.NotEmpty(t, pkgEvents.StringField(evt, "occurred_at"))
}

func TestPublishFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	sink := &recordingSink{err: errors.New("nats: timeout")}

	NewNatsPublisher(sink, logger.NewFromZap(zap.New(core))).PublishSessionDeleted(context.Background(), uuid.New(), uuid.New())

	assert.Equal(t, 1, logs.FilterMessageSnippet("CHAT_SESSION_DELETED").Len())
}

func TestNilSinkIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNatsPublisher(nil, logger.NewNop()).PublishSessionCleared(context.Background(), uuid.New(), uuid.New())
	})
}

func TestMultiPublishesToEverySink(t *testing.T) {
	first, second := &recordingSink{}, &recordingSink{}
	multi := Multi{NewNatsPublisher(first, logger.NewNop()), NewNatsPublisher(second, logger.NewNop())}
	sessionId := uuid.New()

	multi.PublishSessionTitled(context.Background(), sessionId, uuid.New(), "Budget review")

	for _, sink := range []*recordingSink{first, second} {
		require.Len(t, sink.events, 1)
		assert.Equal(t, pkgEvents.ChatSessionTitled, sink.events[0].EventType())
		assert.Equal(t, "Budget review", pkgEvents.StringField(sink.events[0], "title"))
		assert.Equal(t, sessionId.String(), pkgEvents.StringField(sink.events[0], "session_id"))
	}
}
