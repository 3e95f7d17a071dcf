// Package fanout invokes the selected Source Adapters concurrently under a
// single deadline. A failing, panicking or slow adapter only loses its own
// results.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"dashboard-assistant-be/internal/pkg/logger"
	"dashboard-assistant-be/pkg/knowledge"
	"dashboard-assistant-be/pkg/knowledge/intent"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const logModule = "FANOUT"

// Config encapsulates fan-out parameters
type Config struct {
	Timeout         time.Duration
	UpcomingWindow  time.Duration
	RecentWindow    time.Duration
	PerAdapterLimit int // 0 keeps whatever the adapter returns
}

// DefaultConfig returns default fan-out configuration
func DefaultConfig() Config {
	return Config{
		Timeout:         3 * time.Second,
		UpcomingWindow:  7 * 24 * time.Hour,
		RecentWindow:    7 * 24 * time.Hour,
		PerAdapterLimit: 25,
	}
}

// Report says what happened to each invoked adapter
type Report struct {
	Completed []knowledge.SourceType `json:"completed"`
	Failed    []knowledge.SourceType `json:"failed,omitempty"`
	Abandoned []knowledge.SourceType `json:"abandoned,omitempty"`
}

// Degraded is true when at least one adapter contributed nothing
func (r Report) Degraded() bool {
	return len(r.Failed) > 0 || len(r.Abandoned) > 0
}

// Result is the flattened union of adapter outputs
type Result struct {
	Items  []knowledge.CandidateItem
	Report Report
}

type Coordinator struct {
	adapters []knowledge.SourceAdapter
	cfg      Config
	logger   logger.ILogger
	now      func() time.Time
}

func NewCoordinator(adapters []knowledge.SourceAdapter, cfg Config, log logger.ILogger) *Coordinator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.UpcomingWindow <= 0 {
		cfg.UpcomingWindow = DefaultConfig().UpcomingWindow
	}
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = DefaultConfig().RecentWindow
	}
	return &Coordinator{
		adapters: adapters,
		cfg:      cfg,
		logger:   log,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for date windows
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

// Lookup finds the adapter serving one collection
func (c *Coordinator) Lookup(source knowledge.SourceType) (knowledge.SourceAdapter, bool) {
	for _, a := range c.adapters {
		if a.Type() == source {
			return a, true
		}
	}
	return nil, false
}

// Select returns every adapter, or only the one matching the segment hint.
// A hint naming no registered adapter falls back to all of them.
func (c *Coordinator) Select(hint *knowledge.ChatContext) []knowledge.SourceAdapter {
	if hint == nil || hint.Segment == "" {
		return c.adapters
	}
	if a, ok := c.Lookup(hint.Segment); ok {
		return []knowledge.SourceAdapter{a}
	}
	return c.adapters
}

// Run fans the query out to the adapters picked by Select
func (c *Coordinator) Run(ctx context.Context, q knowledge.Query, tags []intent.Tag) (*Result, error) {
	return c.RunOn(ctx, c.Select(q.Context), q, tags)
}

// RunOn fans the query out to the given adapters. The only error it
// returns is the caller's own cancellation, in which case every result is
// discarded. An expired fan-out deadline is not an error.
func (c *Coordinator) RunOn(ctx context.Context, adapters []knowledge.SourceAdapter, q knowledge.Query, tags []intent.Tag) (*Result, error) {
	ctx, span := otel.Tracer("knowledge").Start(ctx, "knowledge.fanout")
	defer span.End()
	span.SetAttributes(attribute.Int("fanout.adapters", len(adapters)))

	fanCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	now := c.now()
	col := &collector{}

	var g errgroup.Group
	for _, adapter := range adapters {
		adapter := adapter
		filter := c.FilterFor(adapter.Type(), tags, q, now)
		g.Go(func() error {
			c.invoke(fanCtx, adapter, q.Text, filter, col)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		c.logger.Info(logModule, "Fan-out cancelled by caller, discarding results", map[string]interface{}{
			"query": q.Text,
			"error": err.Error(),
		})
		return nil, err
	}

	res := col.result()
	span.SetAttributes(
		attribute.Int("fanout.items", len(res.Items)),
		attribute.Bool("fanout.degraded", res.Report.Degraded()),
	)
	return res, nil
}

type outcome struct {
	items []knowledge.CandidateItem
	err   error
}

func (c *Coordinator) invoke(ctx context.Context, adapter knowledge.SourceAdapter, text string, filter *knowledge.Filter, col *collector) {
	source := adapter.Type()
	started := time.Now()

	ctx, span := otel.Tracer("knowledge").Start(ctx, "knowledge.adapter")
	defer span.End()
	span.SetAttributes(attribute.String("source", string(source)))

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		items, err := adapter.Search(ctx, text, filter)
		done <- outcome{items: items, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			// only the fan-out's own deadline counts as abandonment; an
			// adapter timing out internally has simply failed
			if errors.Is(out.err, context.DeadlineExceeded) && ctx.Err() != nil {
				span.SetAttributes(attribute.String("outcome", "abandoned"))
				c.abandon(source, started, col)
				return
			}
			span.RecordError(out.err)
			span.SetStatus(codes.Error, "adapter failed")
			span.SetAttributes(attribute.String("outcome", "failed"))
			c.logger.Warn(logModule, "Source adapter failed, substituting empty result", map[string]interface{}{
				"source": source,
				"error":  (&knowledge.AdapterError{Source: source, Err: out.err}).Error(),
			})
			col.fail(source)
			return
		}
		items := out.items
		if c.cfg.PerAdapterLimit > 0 && len(items) > c.cfg.PerAdapterLimit {
			items = items[:c.cfg.PerAdapterLimit]
		}
		span.SetAttributes(attribute.String("outcome", "completed"), attribute.Int("items", len(items)))
		c.logger.Debug(logModule, "Source adapter completed", map[string]interface{}{
			"source":      source,
			"items":       len(items),
			"duration_ms": time.Since(started).Milliseconds(),
		})
		col.add(source, items)
	case <-ctx.Done():
		span.SetAttributes(attribute.String("outcome", "abandoned"))
		c.abandon(source, started, col)
	}
}

func (c *Coordinator) abandon(source knowledge.SourceType, started time.Time, col *collector) {
	c.logger.Warn(logModule, "Source adapter missed the fan-out deadline, omitting it", map[string]interface{}{
		"source":      source,
		"timeout_ms":  c.cfg.Timeout.Milliseconds(),
		"duration_ms": time.Since(started).Milliseconds(),
	})
	col.abandon(source)
}

// collector is the only shared state during a fan-out
type collector struct {
	mu     sync.Mutex
	items  []knowledge.CandidateItem
	report Report
}

func (c *collector) add(source knowledge.SourceType, items []knowledge.CandidateItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, items...)
	c.report.Completed = append(c.report.Completed, source)
}

func (c *collector) fail(source knowledge.SourceType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.Failed = append(c.report.Failed, source)
}

func (c *collector) abandon(source knowledge.SourceType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.Abandoned = append(c.report.Abandoned, source)
}

func (c *collector) result() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	report := Report{
		Completed: sortedSources(c.report.Completed),
		Failed:    sortedSources(c.report.Failed),
		Abandoned: sortedSources(c.report.Abandoned),
	}
	items := make([]knowledge.CandidateItem, len(c.items))
	copy(items, c.items)
	return &Result{Items: items, Report: report}
}

func sortedSources(in []knowledge.SourceType) []knowledge.SourceType {
	out := append([]knowledge.SourceType(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
