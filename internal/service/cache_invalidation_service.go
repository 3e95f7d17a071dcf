package service

import (
	"context"

	"dashboard-assistant-be/internal/pkg/logger"
	"dashboard-assistant-be/internal/repository/contract"
	"dashboard-assistant-be/pkg/events"
	pktNats "dashboard-assistant-be/pkg/nats"
)

const recordChangedDurable = "assistant-context-cache"

// EventSubscriber is satisfied by *nats.Subscriber
type EventSubscriber interface {
	Subscribe(ctx context.Context, eventType, durableName string, handler pktNats.EventHandler) error
}

type ICacheInvalidationService interface {
	Start(ctx context.Context) error
	HandleRecordChanged(ctx context.Context, event events.Event) error
}

// cacheInvalidationService drops an owner's cached context whenever one
// of their records changes
type cacheInvalidationService struct {
	subscriber EventSubscriber
	cache      contract.ContextCache
	logger     logger.ILogger
}

func NewCacheInvalidationService(subscriber EventSubscriber, cache contract.ContextCache, log logger.ILogger) ICacheInvalidationService {
	return &cacheInvalidationService{
		subscriber: subscriber,
		cache:      cache,
		logger:     log,
	}
}

func (s *cacheInvalidationService) Start(ctx context.Context) error {
	if s.subscriber == nil {
		s.logger.Warn(logModuleCache, "No event subscriber, cached context expires by TTL only", nil)
		return nil
	}
	return s.subscriber.Subscribe(ctx, events.RecordChanged, recordChangedDurable, s.HandleRecordChanged)
}

func (s *cacheInvalidationService) HandleRecordChanged(ctx context.Context, event events.Event) error {
	owner := events.StringField(event, "user_id")
	if owner == "" {
		s.logger.Warn(logModuleCache, "RECORD_CHANGED without user_id ignored", nil)
		return nil
	}
	s.cache.InvalidateOwner(ctx, owner)
	return nil
}
