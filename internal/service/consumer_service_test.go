package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"dashboard-assistant-be/internal/dto"
	"dashboard-assistant-be/internal/pkg/logger"
	"dashboard-assistant-be/internal/repository/memory"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumerRenamesSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	store := memory.NewSessionStore()
	session, err := store.CreateSession(ctx, uuid.New(), "")
	require.NoError(t, err)

	events := &fakeEvents{}
	consumer := NewConsumerService(pubSub, "title", store, events, logger.NewNop())
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService("title", pubSub)

	// an unknown session is acknowledged and dropped
	missing, _ := json.Marshal(dto.SessionTitleMessage{SessionId: uuid.New(), Title: "lost"})
	require.NoError(t, publisher.Publish(ctx, missing))

	payload, _ := json.Marshal(dto.SessionTitleMessage{SessionId: session.Id, UserId: session.UserId, Title: "Budget review"})
	require.NoError(t, publisher.Publish(ctx, payload))

	assert.Eventually(t, func() bool {
		got, err := store.GetSession(ctx, session.Id)
		return err == nil && got.Title == "Budget review"
	}, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		events.mu.Lock()
		defer events.mu.Unlock()
		return len(events.titled) == 1 && events.titled[0] == "Budget review"
	}, 2*time.Second, 10*time.Millisecond)
}
