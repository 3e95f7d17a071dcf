package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"dashboard-assistant-be/internal/dto"
	"dashboard-assistant-be/internal/entity"
	"dashboard-assistant-be/internal/pkg/logger"
	"dashboard-assistant-be/internal/repository/contract"
	assistantEvents "dashboard-assistant-be/pkg/assistant/events"
	"dashboard-assistant-be/pkg/generation"
	"dashboard-assistant-be/pkg/knowledge"
	"dashboard-assistant-be/pkg/knowledge/assembly"
	"dashboard-assistant-be/pkg/knowledge/engine"
	"dashboard-assistant-be/pkg/knowledge/intent"

	"github.com/google/uuid"
)

const (
	logModuleAssistant  = "ASSISTANT"
	logModuleSession    = "SESSION"
	logModuleCache      = "CACHE"
	logModuleGeneration = "GENERATION"

	maxTitleLength = 60
)

type IAssistantService interface {
	ClassifyIntent(ctx context.Context, query string) *dto.ClassifyIntentResponse
	FederatedSearch(ctx context.Context, userId uuid.UUID, req *dto.FederatedSearchRequest) (*dto.SearchResponse, error)
	SearchSource(ctx context.Context, userId uuid.UUID, source string, query string) (*dto.SearchResponse, error)

	CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	ListSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionResponse, error)
	GetSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.SessionResponse, error)
	Answer(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, req *dto.AnswerRequest) (*dto.AnswerResponse, error)
	ClearSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
	DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
}

// AssistantOptions bounds what an answer sees of the conversation
type AssistantOptions struct {
	HistoryTurns int
}

type assistantService struct {
	engine         *engine.Engine
	store          contract.SessionStore
	cache          contract.ContextCache
	generator      knowledge.Generator
	titlePublisher IPublisherService
	eventPublisher assistantEvents.Publisher
	logger         logger.ILogger
	opts           AssistantOptions
	now            func() time.Time

	mu       sync.Mutex
	inflight map[uuid.UUID]*inflightAnswer
}

type inflightAnswer struct {
	cancel context.CancelCauseFunc
}

func NewAssistantService(
	engine *engine.Engine,
	store contract.SessionStore,
	cache contract.ContextCache,
	generator knowledge.Generator,
	titlePublisher IPublisherService,
	eventPublisher assistantEvents.Publisher,
	log logger.ILogger,
	opts AssistantOptions,
) IAssistantService {
	if opts.HistoryTurns <= 0 {
		opts.HistoryTurns = assembly.DefaultOptions().HistoryTurns
	}
	return &assistantService{
		engine:         engine,
		store:          store,
		cache:          cache,
		generator:      generator,
		titlePublisher: titlePublisher,
		eventPublisher: eventPublisher,
		logger:         log,
		opts:           opts,
		now:            time.Now,
		inflight:       make(map[uuid.UUID]*inflightAnswer),
	}
}

func (s *assistantService) ClassifyIntent(ctx context.Context, query string) *dto.ClassifyIntentResponse {
	return &dto.ClassifyIntentResponse{Intents: intent.Strings(s.engine.ClassifyIntent(query))}
}

func (s *assistantService) FederatedSearch(ctx context.Context, userId uuid.UUID, req *dto.FederatedSearchRequest) (*dto.SearchResponse, error) {
	res, err := s.engine.FederatedSearch(ctx, knowledge.Query{
		Text:    req.Query,
		Owner:   userId.String(),
		Context: req.Context,
	})
	if err != nil {
		return nil, err
	}
	return toSearchResponse(res), nil
}

func (s *assistantService) SearchSource(ctx context.Context, userId uuid.UUID, source string, query string) (*dto.SearchResponse, error) {
	sourceType, ok := knowledge.ParseSourceType(source)
	if !ok {
		return nil, fmt.Errorf("%w: %s", knowledge.ErrUnknownSource, source)
	}
	res, err := s.engine.SearchSource(ctx, sourceType, knowledge.Query{Text: query, Owner: userId.String()})
	if err != nil {
		return nil, err
	}
	return toSearchResponse(res), nil
}

func (s *assistantService) CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	session, err := s.store.CreateSession(ctx, userId, strings.TrimSpace(req.Title))
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session, false), nil
}

func (s *assistantService) ListSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionResponse, error) {
	sessions, err := s.store.ListSessions(ctx, userId)
	if err != nil {
		return nil, err
	}
	res := make([]*dto.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		res = append(res, toSessionResponse(session, false))
	}
	return res, nil
}

func (s *assistantService) GetSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.ownedSession(ctx, "get", userId, sessionId)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session, true), nil
}

func (s *assistantService) ClearSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	if _, err := s.ownedSession(ctx, "clear", userId, sessionId); err != nil {
		return err
	}
	if err := s.store.ClearSession(ctx, sessionId); err != nil {
		return err
	}
	s.eventPublisher.PublishSessionCleared(ctx, sessionId, userId)
	return nil
}

func (s *assistantService) DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	if _, err := s.ownedSession(ctx, "delete", userId, sessionId); err != nil {
		return err
	}
	s.supersede(sessionId)
	if err := s.store.DeleteSession(ctx, sessionId); err != nil {
		return err
	}
	s.eventPublisher.PublishSessionDeleted(ctx, sessionId, userId)
	return nil
}

// Answer gathers context, generates a reply and records both turns. A
// newer Answer for the same session cancels this one, which then returns
// knowledge.ErrSuperseded without recording anything.
func (s *assistantService) Answer(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, req *dto.AnswerRequest) (*dto.AnswerResponse, error) {
	ctx, release := s.track(ctx, sessionId)
	defer release()

	askedAt := s.now()

	session, err := s.ownedSession(ctx, "answer", userId, sessionId)
	if err != nil {
		return nil, err
	}

	history := make([]knowledge.Turn, 0, len(session.Messages))
	for _, m := range session.Messages {
		history = append(history, m.Turn())
	}

	q := knowledge.Query{Text: req.Query, Owner: userId.String(), Context: req.Context}
	gathered, err := s.gatherContext(ctx, q)
	if err != nil {
		return nil, s.cancelled(ctx, err)
	}

	bundle := assembly.Assemble(gathered.Results, history, s.now(), assembly.Options{
		Limit:        s.engine.Config().ContextLimit,
		HistoryTurns: s.opts.HistoryTurns,
	})

	degraded := false
	reply, err := s.generator.Generate(ctx, bundle, bundle.History, req.Query)
	if err != nil {
		if cause := context.Cause(ctx); cause != nil {
			return nil, s.cancelled(ctx, err)
		}
		s.logger.Warn(logModuleGeneration, "Generation failed, replying with apology", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
		reply = generation.Apology
		degraded = true
	}

	if context.Cause(ctx) != nil {
		return nil, s.cancelled(ctx, ctx.Err())
	}

	// Past this point both turns are recorded even if a newer query arrives
	persistCtx := context.WithoutCancel(ctx)

	userMsg := &entity.ChatMessage{Role: entity.RoleUser, Content: req.Query, CreatedAt: askedAt}
	assistantMsg := &entity.ChatMessage{
		Role:    entity.RoleAssistant,
		Content: reply,
		Sources: bundle.Results,
	}
	if err := s.store.AppendTurn(persistCtx, sessionId, userMsg, assistantMsg); err != nil {
		return nil, err
	}

	if session.NeedsTitle() {
		s.requestTitle(persistCtx, session, req.Query)
	}
	s.eventPublisher.PublishAnswered(persistCtx, sessionId, userId, assistantMsg.Id, len(bundle.Results), degraded || gathered.Report.Degraded())

	s.logger.Info(logModuleAssistant, "Answer recorded", map[string]interface{}{
		"session_id": sessionId.String(),
		"sources":    len(bundle.Results),
		"degraded":   degraded,
	})

	return &dto.AnswerResponse{
		Message:  toMessageResponse(assistantMsg),
		Degraded: degraded,
	}, nil
}

// gatherContext serves repeated questions from the context cache
func (s *assistantService) gatherContext(ctx context.Context, q knowledge.Query) (*engine.SearchResult, error) {
	key := contextCacheKey(q)
	if cached, ok := s.cache.Get(ctx, q.Owner, key); ok {
		s.logger.Debug(logModuleCache, "Context cache hit", map[string]interface{}{"owner": q.Owner})
		return cached, nil
	}

	res, err := s.engine.GatherContext(ctx, q)
	if err != nil {
		return nil, err
	}
	// degraded results are not worth keeping
	if !res.Report.Degraded() {
		s.cache.Set(ctx, q.Owner, key, res)
	}
	return res, nil
}

// ownedSession hides sessions of other users behind "not found"
func (s *assistantService) ownedSession(ctx context.Context, op string, userId, sessionId uuid.UUID) (*entity.ChatSession, error) {
	session, err := s.store.GetSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if session.UserId != userId {
		return nil, knowledge.NewPersistenceError(op, sessionId.String(), knowledge.ErrSessionNotFound)
	}
	return session, nil
}

func (s *assistantService) requestTitle(ctx context.Context, session *entity.ChatSession, query string) {
	payload, err := json.Marshal(dto.SessionTitleMessage{SessionId: session.Id, UserId: session.UserId, Title: SessionTitle(query)})
	if err != nil {
		return
	}
	if err := s.titlePublisher.Publish(ctx, payload); err != nil {
		s.logger.Warn(logModuleSession, "Failed to request session title", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
	}
}

// track registers ctx as the in-flight answer of the session, cancelling
// the previous one
func (s *assistantService) track(ctx context.Context, sessionId uuid.UUID) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(ctx)
	entry := &inflightAnswer{cancel: cancel}

	s.mu.Lock()
	if prev, ok := s.inflight[sessionId]; ok {
		prev.cancel(knowledge.ErrSuperseded)
	}
	s.inflight[sessionId] = entry
	s.mu.Unlock()

	return ctx, func() {
		s.mu.Lock()
		if s.inflight[sessionId] == entry {
			delete(s.inflight, sessionId)
		}
		s.mu.Unlock()
		cancel(nil)
	}
}

func (s *assistantService) supersede(sessionId uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.inflight[sessionId]; ok {
		prev.cancel(knowledge.ErrSuperseded)
		delete(s.inflight, sessionId)
	}
}

// cancelled maps a cancellation caused by a newer query to ErrSuperseded
func (s *assistantService) cancelled(ctx context.Context, err error) error {
	if errors.Is(context.Cause(ctx), knowledge.ErrSuperseded) {
		s.logger.Info(logModuleAssistant, "Answer superseded by a newer query", nil)
		return knowledge.ErrSuperseded
	}
	return err
}

// SessionTitle derives a session title from its first question
func SessionTitle(query string) string {
	title := strings.Join(strings.Fields(query), " ")
	if utf8.RuneCountInString(title) <= maxTitleLength {
		return title
	}
	runes := []rune(title)
	return strings.TrimSpace(string(runes[:maxTitleLength-3])) + "..."
}

func contextCacheKey(q knowledge.Query) string {
	key := strings.ToLower(knowledge.NormalizeQuery(q.Text))
	if q.Context != nil {
		if raw, err := json.Marshal(q.Context); err == nil {
			key += "|" + string(raw)
		}
	}
	return key
}

func toSearchResponse(res *engine.SearchResult) *dto.SearchResponse {
	return &dto.SearchResponse{
		Intents:  intent.Strings(res.Intents),
		Results:  res.Results,
		Degraded: res.Report.Degraded(),
		Report:   res.Report,
	}
}

func toSessionResponse(session *entity.ChatSession, withMessages bool) *dto.SessionResponse {
	res := &dto.SessionResponse{
		Id:        session.Id,
		Title:     session.Title,
		State:     string(session.State),
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}
	if withMessages {
		res.Messages = make([]*dto.MessageResponse, 0, len(session.Messages))
		for _, m := range session.Messages {
			res.Messages = append(res.Messages, toMessageResponse(m))
		}
	}
	return res
}

func toMessageResponse(m *entity.ChatMessage) *dto.MessageResponse {
	return &dto.MessageResponse{
		Id:        m.Id,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		Sources:   m.Sources,
	}
}
