package fanout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"dashboard-assistant-be/internal/pkg/logger"
	"dashboard-assistant-be/pkg/knowledge"
	"dashboard-assistant-be/pkg/knowledge/intent"
	"dashboard-assistant-be/pkg/knowledge/knowledgetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var now = time.Date(2026, 3, 18, 15, 0, 0, 0, time.UTC)

func stub(source knowledge.SourceType, ids ...string) *knowledgetest.StubAdapter {
	a := &knowledgetest.StubAdapter{Source: source}
	for _, id := range ids {
		a.Items = append(a.Items, knowledgetest.Item(source, id, id, "text "+id, now, nil))
	}
	return a
}

func newCoordinator(cfg Config, adapters ...knowledge.SourceAdapter) *Coordinator {
	return NewCoordinator(adapters, cfg, logger.NewNop()).WithClock(func() time.Time { return now })
}

func TestRunUnionsAllAdapters(t *testing.T) {
	c := newCoordinator(DefaultConfig(),
		stub(knowledge.SourceNote, "n1", "n2"),
		stub(knowledge.SourceMeeting, "m1"),
		stub(knowledge.SourceStakeholder, "s1"),
	)

	res, err := c.Run(context.Background(), knowledge.Query{Text: "anything"}, []intent.Tag{intent.General})
	require.NoError(t, err)
	assert.Len(t, res.Items, 4)
	assert.Equal(t, []knowledge.SourceType{knowledge.SourceMeeting, knowledge.SourceNote, knowledge.SourceStakeholder}, res.Report.Completed)
	assert.False(t, res.Report.Degraded())
}

func TestRunIsolatesFailingAdapter(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	failing := knowledgetest.Failing(knowledge.SourceEmail)

	c := NewCoordinator([]knowledge.SourceAdapter{
		stub(knowledge.SourceNote, "n1"),
		failing,
		stub(knowledge.SourceMeeting, "m1"),
	}, DefaultConfig(), logger.NewFromZap(zap.New(core)))

	res, err := c.Run(context.Background(), knowledge.Query{Text: "q"}, nil)
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, []knowledge.SourceType{knowledge.SourceEmail}, res.Report.Failed)
	assert.True(t, res.Report.Degraded())
	assert.Equal(t, 1, logs.FilterMessageSnippet("Source adapter failed").Len())
}

func TestRunTreatsAdapterOwnTimeoutAsFailure(t *testing.T) {
	c := newCoordinator(DefaultConfig(),
		&knowledgetest.StubAdapter{Source: knowledge.SourceEmail, Err: fmt.Errorf("query emails: %w", context.DeadlineExceeded)},
		stub(knowledge.SourceNote, "n1"),
	)

	res, err := c.Run(context.Background(), knowledge.Query{Text: "q"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []knowledge.SourceType{knowledge.SourceEmail}, res.Report.Failed)
	assert.Empty(t, res.Report.Abandoned)
}

func TestRunTracesEachAdapter(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	c := newCoordinator(DefaultConfig(),
		stub(knowledge.SourceNote, "n1"),
		knowledgetest.Failing(knowledge.SourceEmail),
	)
	_, err := c.Run(context.Background(), knowledge.Query{Text: "q"}, nil)
	require.NoError(t, err)

	sources := map[string]string{}
	var fanoutSpan sdktrace.ReadOnlySpan
	for _, span := range recorder.Ended() {
		switch span.Name() {
		case "knowledge.fanout":
			fanoutSpan = span
		case "knowledge.adapter":
			attrs := map[attribute.Key]string{}
			for _, kv := range span.Attributes() {
				attrs[kv.Key] = kv.Value.Emit()
			}
			sources[attrs["source"]] = attrs["outcome"]
		}
	}
	require.NotNil(t, fanoutSpan)
	assert.Equal(t, map[string]string{
		string(knowledge.SourceNote):  "completed",
		string(knowledge.SourceEmail): "failed",
	}, sources)
	for _, span := range recorder.Ended() {
		if span.Name() == "knowledge.adapter" {
			assert.Equal(t, fanoutSpan.SpanContext().SpanID(), span.Parent().SpanID())
		}
	}
}

func TestRunRecoversPanickingAdapter(t *testing.T) {
	c := newCoordinator(DefaultConfig(),
		&knowledgetest.StubAdapter{Source: knowledge.SourceMarket, Panic: true},
		stub(knowledge.SourceNote, "n1"),
	)

	res, err := c.Run(context.Background(), knowledge.Query{Text: "q"}, nil)
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
	assert.Equal(t, []knowledge.SourceType{knowledge.SourceMarket}, res.Report.Failed)
}

func TestRunAbandonsSlowAdapterAtDeadline(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cfg := DefaultConfig()
	cfg.Timeout = 50 * time.Millisecond
	slow := stub(knowledge.SourceMeeting, "late")
	slow.Delay = 5 * time.Second

	c := newCoordinator(cfg, stub(knowledge.SourceNote, "n1"), slow)

	started := time.Now()
	res, err := c.Run(context.Background(), knowledge.Query{Text: "q"}, nil)
	require.NoError(t, err)

	assert.Less(t, time.Since(started), time.Second)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "n1", res.Items[0].ID)
	assert.Equal(t, []knowledge.SourceType{knowledge.SourceMeeting}, res.Report.Abandoned)
}

func TestRunDiscardsResultsWhenCallerCancels(t *testing.T) {
	slow := stub(knowledge.SourceNote, "n1")
	slow.Delay = time.Second
	c := newCoordinator(DefaultConfig(), slow)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	res, err := c.Run(ctx, knowledge.Query{Text: "q"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestRunHonoursPerAdapterLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PerAdapterLimit = 2
	c := newCoordinator(cfg, stub(knowledge.SourceNote, "1", "2", "3", "4"))

	res, err := c.Run(context.Background(), knowledge.Query{Text: "q"}, nil)
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
}

func TestSelectNarrowsBySegment(t *testing.T) {
	notes := stub(knowledge.SourceNote)
	people := stub(knowledge.SourceStakeholder)
	c := newCoordinator(DefaultConfig(), notes, people)

	assert.Len(t, c.Select(nil), 2)
	assert.Equal(t, []knowledge.SourceAdapter{people}, c.Select(&knowledge.ChatContext{Segment: knowledge.SourceStakeholder}))
	// unknown segment falls back to everything
	assert.Len(t, c.Select(&knowledge.ChatContext{Segment: knowledge.SourceEmail}), 2)

	_, err := c.Run(context.Background(), knowledge.Query{Text: "q", Context: &knowledge.ChatContext{Segment: knowledge.SourceStakeholder}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, notes.Calls())
	assert.Equal(t, 1, people.Calls())
}

func TestFilterForIntents(t *testing.T) {
	c := newCoordinator(DefaultConfig())
	q := knowledge.Query{Text: "q", Owner: "user-1"}

	t.Run("urgent sets priority only where it applies", func(t *testing.T) {
		f := c.FilterFor(knowledge.SourcePriority, []intent.Tag{intent.Urgent}, q, now)
		assert.Equal(t, []string{knowledge.PriorityHigh, knowledge.PriorityCritical}, f.Priority)
		assert.Equal(t, "user-1", f.Owner)

		f = c.FilterFor(knowledge.SourceNote, []intent.Tag{intent.Urgent}, q, now)
		assert.Empty(t, f.Priority)
		assert.False(t, f.HasConstraints())
	})

	t.Run("upcoming opens a forward window", func(t *testing.T) {
		f := c.FilterFor(knowledge.SourceMeeting, []intent.Tag{intent.Upcoming}, q, now)
		require.NotNil(t, f.DateFrom)
		assert.Equal(t, now, *f.DateFrom)
		assert.Equal(t, now.Add(7*24*time.Hour), *f.DateTo)
	})

	t.Run("recent opens a backward window", func(t *testing.T) {
		f := c.FilterFor(knowledge.SourceNote, []intent.Tag{intent.Recent}, q, now)
		assert.Equal(t, now.Add(-7*24*time.Hour), *f.DateFrom)
		assert.Equal(t, now, *f.DateTo)
	})

	t.Run("recent and upcoming widen into one window", func(t *testing.T) {
		f := c.FilterFor(knowledge.SourceMeeting, []intent.Tag{intent.Recent, intent.Upcoming}, q, now)
		assert.Equal(t, now.Add(-7*24*time.Hour), *f.DateFrom)
		assert.Equal(t, now.Add(7*24*time.Hour), *f.DateTo)
	})

	t.Run("explicit filter wins", func(t *testing.T) {
		from := now.AddDate(0, -1, 0)
		explicit := knowledge.Query{Text: "q", Context: &knowledge.ChatContext{Filter: &knowledge.Filter{
			DateFrom: &from,
			Priority: []string{knowledge.PriorityLow},
			Status:   "done",
		}}}
		f := c.FilterFor(knowledge.SourcePriority, []intent.Tag{intent.Urgent, intent.Recent}, explicit, now)
		assert.Equal(t, from, *f.DateFrom)
		assert.Equal(t, now, *f.DateTo)
		assert.Equal(t, []string{knowledge.PriorityLow}, f.Priority)
		assert.Equal(t, "done", f.Status)
	})
}
