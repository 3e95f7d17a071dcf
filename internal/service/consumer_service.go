package service

import (
	"context"
	"encoding/json"
	"errors"

	"dashboard-assistant-be/internal/dto"
	"dashboard-assistant-be/internal/pkg/logger"
	"dashboard-assistant-be/internal/repository/contract"
	assistantEvents "dashboard-assistant-be/pkg/assistant/events"
	"dashboard-assistant-be/pkg/knowledge"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService names sessions after their first question and announces
// the new title
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	store      contract.SessionStore
	events     assistantEvents.Publisher
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	store contract.SessionStore,
	events assistantEvents.Publisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		store:      store,
		events:     events,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.SessionTitleMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(logModuleSession, "Failed to unmarshal title message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // retrying cannot fix a bad payload
		return
	}

	err := cs.store.RenameSession(ctx, payload.SessionId, payload.Title)
	switch {
	case err == nil:
		cs.logger.Debug(logModuleSession, "Session titled", map[string]interface{}{"session_id": payload.SessionId.String()})
		cs.events.PublishSessionTitled(ctx, payload.SessionId, payload.UserId, payload.Title)
		msg.Ack()
	case errors.Is(err, knowledge.ErrSessionNotFound), errors.Is(err, knowledge.ErrSessionDeleted):
		msg.Ack()
	default:
		cs.logger.Error(logModuleSession, "Failed to title session", map[string]interface{}{
			"session_id": payload.SessionId.String(),
			"error":      err.Error(),
		})
		msg.Nack()
	}
}
