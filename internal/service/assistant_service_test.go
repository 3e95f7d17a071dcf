package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"dashboard-assistant-be/internal/dto"
	"dashboard-assistant-be/internal/entity"
	"dashboard-assistant-be/internal/pkg/logger"
	"dashboard-assistant-be/internal/repository/contract"
	"dashboard-assistant-be/internal/repository/memory"
	"dashboard-assistant-be/pkg/generation"
	"dashboard-assistant-be/pkg/knowledge"
	"dashboard-assistant-be/pkg/knowledge/engine"
	"dashboard-assistant-be/pkg/knowledge/fanout"
	"dashboard-assistant-be/pkg/knowledge/knowledgetest"
	"dashboard-assistant-be/pkg/knowledge/relevance"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 18, 15, 0, 0, 0, time.UTC)

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	bundles []*knowledge.ContextBundle
}

func (g *fakeGenerator) Generate(ctx context.Context, bundle *knowledge.ContextBundle, history []knowledge.Turn, userQuery string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bundles = append(g.bundles, bundle)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

// blockingGenerator holds its first call until the context is cancelled
type blockingGenerator struct {
	entered chan struct{}
	once    sync.Once
	reply   string
}

func (g *blockingGenerator) Generate(ctx context.Context, bundle *knowledge.ContextBundle, history []knowledge.Turn, userQuery string) (string, error) {
	blocking := false
	g.once.Do(func() { blocking = true })
	if blocking {
		close(g.entered)
		<-ctx.Done()
		return "", ctx.Err()
	}
	return g.reply, nil
}

type fakeTitlePublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *fakeTitlePublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

type fakeEvents struct {
	mu       sync.Mutex
	answered []bool
	cleared  []uuid.UUID
	deleted  []uuid.UUID
	titled   []string
}

func (f *fakeEvents) PublishAnswered(ctx context.Context, sessionId, userId, messageId uuid.UUID, sourceCount int, degraded bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, degraded)
}

func (f *fakeEvents) PublishSessionCleared(ctx context.Context, sessionId, userId uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, sessionId)
}

func (f *fakeEvents) PublishSessionDeleted(ctx context.Context, sessionId, userId uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, sessionId)
}

func (f *fakeEvents) PublishSessionTitled(ctx context.Context, sessionId, userId uuid.UUID, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titled = append(f.titled, title)
}

// failingAppendStore refuses to record messages
type failingAppendStore struct {
	contract.SessionStore
}

func (s failingAppendStore) AppendMessage(ctx context.Context, sessionId uuid.UUID, msg *entity.ChatMessage) error {
	return knowledge.NewPersistenceError("append", sessionId.String(), errors.New("disk full"))
}

func (s failingAppendStore) AppendTurn(ctx context.Context, sessionId uuid.UUID, user, assistant *entity.ChatMessage) error {
	return knowledge.NewPersistenceError("append", sessionId.String(), errors.New("disk full"))
}

// pausingStore holds the first AppendTurn until resume is closed
type pausingStore struct {
	contract.SessionStore
	once   sync.Once
	paused chan struct{}
	resume chan struct{}
}

func (s *pausingStore) AppendTurn(ctx context.Context, sessionId uuid.UUID, user, assistant *entity.ChatMessage) error {
	s.once.Do(func() {
		close(s.paused)
		<-s.resume
	})
	return s.SessionStore.AppendTurn(ctx, sessionId, user, assistant)
}

type fixture struct {
	service   IAssistantService
	store     *memory.SessionStore
	cache     *memory.ContextCache
	notes     *knowledgetest.StubAdapter
	titles    *fakeTitlePublisher
	events    *fakeEvents
	userId    uuid.UUID
	sessionId uuid.UUID
}

func newFixture(t *testing.T, generator knowledge.Generator, wrap func(contract.SessionStore) contract.SessionStore) *fixture {
	t.Helper()
	clock := func() time.Time { return testNow }

	notes := &knowledgetest.StubAdapter{Source: knowledge.SourceNote, Items: []knowledge.CandidateItem{
		knowledgetest.Item(knowledge.SourceNote, "n1", "Budget review", "Q3 budget review with finance", testNow.AddDate(0, 0, -2), nil),
	}}
	meetings := &knowledgetest.StubAdapter{Source: knowledge.SourceMeeting, Items: []knowledge.CandidateItem{
		knowledgetest.Item(knowledge.SourceMeeting, "m1", "Budget sync", "budget sync with finance team", testNow.AddDate(0, 0, 1), nil),
	}}
	coordinator := fanout.NewCoordinator([]knowledge.SourceAdapter{notes, meetings}, fanout.DefaultConfig(), logger.NewNop()).WithClock(clock)
	eng := engine.New(coordinator, relevance.NewKeywordScorer(relevance.DefaultWeights()), engine.DefaultConfig(), logger.NewNop()).WithClock(clock)

	store := memory.NewSessionStore()
	cache := memory.NewContextCache(time.Minute, 100, logger.NewNop())
	titles := &fakeTitlePublisher{}
	events := &fakeEvents{}

	var sessionStore contract.SessionStore = store
	if wrap != nil {
		sessionStore = wrap(store)
	}

	userId := uuid.New()
	session, err := store.CreateSession(context.Background(), userId, "")
	require.NoError(t, err)

	svc := NewAssistantService(eng, sessionStore, cache, generator, titles, events, logger.NewNop(), AssistantOptions{HistoryTurns: 6})
	return &fixture{
		service:   svc,
		store:     store,
		cache:     cache,
		notes:     notes,
		titles:    titles,
		events:    events,
		userId:    userId,
		sessionId: session.Id,
	}
}

func TestAnswerRecordsBothTurns(t *testing.T) {
	gen := &fakeGenerator{reply: "  The budget review is on Thursday.  "}
	f := newFixture(t, gen, nil)

	res, err := f.service.Answer(context.Background(), f.userId, f.sessionId, &dto.AnswerRequest{Query: "when is the budget review?"})
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.Equal(t, entity.RoleAssistant, res.Message.Role)
	assert.NotEmpty(t, res.Message.Sources)

	session, err := f.store.GetSession(context.Background(), f.sessionId)
	require.NoError(t, err)
	require.Len(t, session.Messages, 2)
	assert.Equal(t, entity.RoleUser, session.Messages[0].Role)
	assert.Equal(t, "when is the budget review?", session.Messages[0].Content)
	assert.Equal(t, entity.RoleAssistant, session.Messages[1].Role)
	assert.True(t, session.Messages[1].CreatedAt.After(session.Messages[0].CreatedAt))
	assert.Equal(t, entity.SessionActive, session.State)

	require.Len(t, gen.bundles, 1)
	assert.NotEmpty(t, gen.bundles[0].Entries)
	assert.Equal(t, []bool{false}, f.events.answered)
}

func TestAnswerFallsBackToApologyWhenGenerationFails(t *testing.T) {
	f := newFixture(t, &fakeGenerator{err: errors.New("model offline")}, nil)

	res, err := f.service.Answer(context.Background(), f.userId, f.sessionId, &dto.AnswerRequest{Query: "budget status"})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, generation.Apology, res.Message.Content)

	session, err := f.store.GetSession(context.Background(), f.sessionId)
	require.NoError(t, err)
	require.Len(t, session.Messages, 2)
	assert.Equal(t, generation.Apology, session.Messages[1].Content)
	assert.Equal(t, []bool{true}, f.events.answered)
}

func TestAnswerReturnsPersistenceFailure(t *testing.T) {
	f := newFixture(t, &fakeGenerator{reply: "ok"}, func(s contract.SessionStore) contract.SessionStore {
		return failingAppendStore{SessionStore: s}
	})

	_, err := f.service.Answer(context.Background(), f.userId, f.sessionId, &dto.AnswerRequest{Query: "budget status"})
	require.Error(t, err)
	assert.True(t, knowledge.IsPersistenceError(err))
	assert.Empty(t, f.events.answered)
}

func TestAnswerSupersededByNewerQuery(t *testing.T) {
	gen := &blockingGenerator{entered: make(chan struct{}), reply: "second answer"}
	f := newFixture(t, gen, nil)

	firstErr := make(chan error, 1)
	go func() {
		_, err := f.service.Answer(context.Background(), f.userId, f.sessionId, &dto.AnswerRequest{Query: "first question about budget"})
		firstErr <- err
	}()

	select {
	case <-gen.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first answer never reached generation")
	}

	res, err := f.service.Answer(context.Background(), f.userId, f.sessionId, &dto.AnswerRequest{Query: "second question about budget"})
	require.NoError(t, err)
	assert.Equal(t, "second answer", res.Message.Content)

	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, knowledge.ErrSuperseded)
	case <-time.After(5 * time.Second):
		t.Fatal("first answer never returned")
	}

	session, err := f.store.GetSession(context.Background(), f.sessionId)
	require.NoError(t, err)
	require.Len(t, session.Messages, 2)
	assert.Equal(t, "second question about budget", session.Messages[0].Content)
}

func TestOverlappingAnswersKeepTurnsPaired(t *testing.T) {
	store := &pausingStore{paused: make(chan struct{}), resume: make(chan struct{})}
	f := newFixture(t, &fakeGenerator{reply: "ok"}, func(s contract.SessionStore) contract.SessionStore {
		store.SessionStore = s
		return store
	})

	firstErr := make(chan error, 1)
	go func() {
		_, err := f.service.Answer(context.Background(), f.userId, f.sessionId, &dto.AnswerRequest{Query: "first question"})
		firstErr <- err
	}()

	select {
	case <-store.paused:
	case <-time.After(5 * time.Second):
		t.Fatal("first answer never reached the store")
	}

	_, err := f.service.Answer(context.Background(), f.userId, f.sessionId, &dto.AnswerRequest{Query: "second question"})
	require.NoError(t, err)
	close(store.resume)

	select {
	case err := <-firstErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("first answer never returned")
	}

	session, err := f.store.GetSession(context.Background(), f.sessionId)
	require.NoError(t, err)
	require.Len(t, session.Messages, 4)
	roles := make([]string, 0, len(session.Messages))
	for _, m := range session.Messages {
		roles = append(roles, m.Role)
	}
	assert.Equal(t, []string{entity.RoleUser, entity.RoleAssistant, entity.RoleUser, entity.RoleAssistant}, roles)
	assert.Equal(t, "second question", session.Messages[0].Content)
	assert.Equal(t, "first question", session.Messages[2].Content)
}

func TestAnswerKeepsTitleChosenAtCreation(t *testing.T) {
	f := newFixture(t, &fakeGenerator{reply: "ok"}, nil)
	ctx := context.Background()

	created, err := f.service.CreateSession(ctx, f.userId, &dto.CreateSessionRequest{Title: "Q3 planning"})
	require.NoError(t, err)

	_, err = f.service.Answer(ctx, f.userId, created.Id, &dto.AnswerRequest{Query: "budget review"})
	require.NoError(t, err)
	assert.Empty(t, f.titles.payloads)
}

func TestAnswerDoesNotRetitleClearedSession(t *testing.T) {
	f := newFixture(t, &fakeGenerator{reply: "ok"}, nil)
	ctx := context.Background()

	_, err := f.service.Answer(ctx, f.userId, f.sessionId, &dto.AnswerRequest{Query: "budget review"})
	require.NoError(t, err)
	require.NoError(t, f.service.ClearSession(ctx, f.userId, f.sessionId))
	_, err = f.service.Answer(ctx, f.userId, f.sessionId, &dto.AnswerRequest{Query: "something else"})
	require.NoError(t, err)

	require.Len(t, f.titles.payloads, 1)
	var msg dto.SessionTitleMessage
	require.NoError(t, json.Unmarshal(f.titles.payloads[0], &msg))
	assert.Equal(t, "budget review", msg.Title)
}

func TestAnswerRequestsTitleOnFirstTurnOnly(t *testing.T) {
	f := newFixture(t, &fakeGenerator{reply: "ok"}, nil)
	ctx := context.Background()

	_, err := f.service.Answer(ctx, f.userId, f.sessionId, &dto.AnswerRequest{Query: "  what   is on the budget agenda  "})
	require.NoError(t, err)
	_, err = f.service.Answer(ctx, f.userId, f.sessionId, &dto.AnswerRequest{Query: "and after that?"})
	require.NoError(t, err)

	require.Len(t, f.titles.payloads, 1)
	var msg dto.SessionTitleMessage
	require.NoError(t, json.Unmarshal(f.titles.payloads[0], &msg))
	assert.Equal(t, f.sessionId, msg.SessionId)
	assert.Equal(t, "what is on the budget agenda", msg.Title)
}

func TestAnswerServesRepeatedQueryFromCache(t *testing.T) {
	f := newFixture(t, &fakeGenerator{reply: "ok"}, nil)
	ctx := context.Background()
	req := &dto.AnswerRequest{Query: "budget review"}

	_, err := f.service.Answer(ctx, f.userId, f.sessionId, req)
	require.NoError(t, err)
	_, err = f.service.Answer(ctx, f.userId, f.sessionId, &dto.AnswerRequest{Query: "Budget   Review"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.notes.Calls())

	f.cache.InvalidateOwner(ctx, f.userId.String())
	_, err = f.service.Answer(ctx, f.userId, f.sessionId, req)
	require.NoError(t, err)
	assert.Equal(t, 2, f.notes.Calls())
}

func TestSessionsAreScopedToTheirOwner(t *testing.T) {
	f := newFixture(t, &fakeGenerator{reply: "ok"}, nil)
	ctx := context.Background()
	stranger := uuid.New()

	_, err := f.service.GetSession(ctx, stranger, f.sessionId)
	assert.ErrorIs(t, err, knowledge.ErrSessionNotFound)

	_, err = f.service.Answer(ctx, stranger, f.sessionId, &dto.AnswerRequest{Query: "budget"})
	assert.ErrorIs(t, err, knowledge.ErrSessionNotFound)

	assert.ErrorIs(t, f.service.DeleteSession(ctx, stranger, f.sessionId), knowledge.ErrSessionNotFound)

	list, err := f.service.ListSessions(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestClearAndDeleteSession(t *testing.T) {
	f := newFixture(t, &fakeGenerator{reply: "ok"}, nil)
	ctx := context.Background()

	_, err := f.service.Answer(ctx, f.userId, f.sessionId, &dto.AnswerRequest{Query: "budget"})
	require.NoError(t, err)

	require.NoError(t, f.service.ClearSession(ctx, f.userId, f.sessionId))
	session, err := f.service.GetSession(ctx, f.userId, f.sessionId)
	require.NoError(t, err)
	assert.Empty(t, session.Messages)
	assert.Equal(t, string(entity.SessionActive), session.State)
	assert.Equal(t, []uuid.UUID{f.sessionId}, f.events.cleared)

	require.NoError(t, f.service.DeleteSession(ctx, f.userId, f.sessionId))
	assert.Equal(t, []uuid.UUID{f.sessionId}, f.events.deleted)

	_, err = f.service.Answer(ctx, f.userId, f.sessionId, &dto.AnswerRequest{Query: "budget"})
	assert.ErrorIs(t, err, knowledge.ErrSessionDeleted)
}

func TestSearchSourceRejectsUnknownSource(t *testing.T) {
	f := newFixture(t, &fakeGenerator{}, nil)

	_, err := f.service.SearchSource(context.Background(), f.userId, "tweets", "budget")
	assert.ErrorIs(t, err, knowledge.ErrUnknownSource)

	res, err := f.service.SearchSource(context.Background(), f.userId, "notes", "budget")
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "n1", res.Results[0].ID)
}

func TestSessionTitle(t *testing.T) {
	assert.Equal(t, "short question", SessionTitle("  short \n question "))

	long := "Which stakeholders asked about the renewal timeline during last week's quarterly review?"
	title := SessionTitle(long)
	assert.LessOrEqual(t, len([]rune(title)), 60)
	assert.True(t, strings.HasSuffix(title, "..."))
}
