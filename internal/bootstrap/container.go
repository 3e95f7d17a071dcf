package bootstrap

import (
	"context"
	"log"
	"time"

	"dashboard-assistant-be/internal/adapter/source"
	"dashboard-assistant-be/internal/config"
	"dashboard-assistant-be/internal/controller"
	"dashboard-assistant-be/internal/pkg/logger"
	"dashboard-assistant-be/internal/repository/contract"
	"dashboard-assistant-be/internal/repository/implementation"
	"dashboard-assistant-be/internal/repository/memory"
	"dashboard-assistant-be/internal/repository/sessionstore"
	"dashboard-assistant-be/internal/repository/unitofwork"
	"dashboard-assistant-be/internal/service"
	"dashboard-assistant-be/internal/websocket"
	assistantEvents "dashboard-assistant-be/pkg/assistant/events"
	"dashboard-assistant-be/pkg/generation"
	"dashboard-assistant-be/pkg/knowledge/engine"
	"dashboard-assistant-be/pkg/knowledge/fanout"
	"dashboard-assistant-be/pkg/knowledge/relevance"
	"dashboard-assistant-be/pkg/knowledge/snippet"
	"dashboard-assistant-be/pkg/llm"
	"dashboard-assistant-be/pkg/llm/factory"
	pktNats "dashboard-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AssistantController controller.IAssistantController
	PushController      controller.IPushController

	// Hub must be Run for the lifetime of the server
	Hub *websocket.Hub

	// Background Services (Exposed for main.go to run)
	ConsumerService          service.IConsumerService
	CacheInvalidationService service.ICacheInvalidationService

	Logger logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{}

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	c.Logger = sysLogger
	uowFactory := unitofwork.NewRepositoryFactory(db)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// NATS is optional: without it events are dropped and the cache expires by TTL only
	var eventSink assistantEvents.Sink
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventSink = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}
	var eventSubscriber service.EventSubscriber
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	} else {
		eventSubscriber = natsSub
		c.closers = append(c.closers, natsSub.Close)
	}

	// 3. Knowledge Federation
	fed := cfg.Federation
	adapters := source.NewRecordAdapters(implementation.NewRecordRepositories(db), fed.AdapterResultLimit)
	coordinator := fanout.NewCoordinator(adapters, fanout.Config{
		Timeout:         fed.FanOutTimeout,
		UpcomingWindow:  time.Duration(fed.UpcomingWindowDays) * 24 * time.Hour,
		RecentWindow:    fanout.DefaultConfig().RecentWindow,
		PerAdapterLimit: fed.AdapterResultLimit,
	}, sysLogger)
	knowledgeEngine := engine.New(coordinator, relevance.NewKeywordScorer(relevance.DefaultWeights()), engine.Config{
		SearchLimit:  fed.SearchResultLimit,
		ContextLimit: fed.ChatContextLimit,
		Snippet: snippet.Options{
			Window:    fed.SnippetWindow,
			MaxLength: fed.SnippetMaxLength,
		},
	}, sysLogger)

	// Initialize LLM Provider based on Config
	llmProvider, err := factory.NewLLMProvider(factory.ProviderConfig{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  cfg.Ai.OllamaBaseURL,
		APIKey:   cfg.Ai.HuggingFaceKey,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
	generator := generation.NewLLMGenerator(llmProvider, llm.WithTemperature(0.3))

	// 4. Session Store & Context Cache
	var store contract.SessionStore
	if fed.SessionStore == "memory" {
		log.Printf("[INFO] Using in-memory session store, sessions are lost on restart")
		store = memory.NewSessionStore()
	} else {
		store = sessionstore.NewGormSessionStore(uowFactory, sysLogger)
	}

	// redis also relays websocket pushes between instances
	var rdb *redis.Client
	var contextCache contract.ContextCache
	if fed.ContextCacheBackend == "redis" {
		rdb = newRedisClient(cfg.App.RedisURL)
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		contextCache = implementation.NewRedisContextCache(rdb, fed.ContextCacheTTL, sysLogger)
	} else {
		contextCache = memory.NewContextCache(fed.ContextCacheTTL, fed.ContextCacheMaxEntries, sysLogger)
	}

	// 5. Push & Services
	c.Hub = websocket.NewHub(rdb, sysLogger)
	events := assistantEvents.Multi{
		assistantEvents.NewNatsPublisher(eventSink, sysLogger),
		websocket.NewEventPusher(c.Hub),
	}

	titlePublisher := service.NewPublisherService(cfg.Topics.SessionTitle, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Topics.SessionTitle, store, events, sysLogger)
	c.CacheInvalidationService = service.NewCacheInvalidationService(eventSubscriber, contextCache, sysLogger)

	assistantService := service.NewAssistantService(
		knowledgeEngine,
		store,
		contextCache,
		generator,
		titlePublisher,
		events,
		sysLogger,
		service.AssistantOptions{HistoryTurns: fed.HistoryTurns},
	)

	// 6. Controllers
	c.AssistantController = controller.NewAssistantController(assistantService)
	c.PushController = controller.NewPushController(c.Hub)

	return c
}

// Close releases brokers and caches in reverse order of creation
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

func newRedisClient(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: url,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}
	return rdb
}
