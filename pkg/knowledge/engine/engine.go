// Package engine wires the knowledge-federation pipeline:
// classify -> fan-out -> score -> rank/dedup -> snippet.
// It holds no per-query state; everything a call needs is passed in.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dashboard-assistant-be/internal/pkg/logger"
	"dashboard-assistant-be/pkg/knowledge"
	"dashboard-assistant-be/pkg/knowledge/fanout"
	"dashboard-assistant-be/pkg/knowledge/intent"
	"dashboard-assistant-be/pkg/knowledge/ranking"
	"dashboard-assistant-be/pkg/knowledge/relevance"
	"dashboard-assistant-be/pkg/knowledge/snippet"
)

const logModule = "ENGINE"

// Config encapsulates ranking caps and snippet sizing
type Config struct {
	SearchLimit  int
	ContextLimit int
	Snippet      snippet.Options
}

// DefaultConfig returns default engine configuration
func DefaultConfig() Config {
	return Config{
		SearchLimit:  20,
		ContextLimit: 10,
		Snippet:      snippet.DefaultOptions(),
	}
}

// SearchResult is one ranked answer to a query
type SearchResult struct {
	Intents []intent.Tag             `json:"intents"`
	Results []knowledge.RankedResult `json:"results"`
	Report  fanout.Report            `json:"report"`
}

type Engine struct {
	coordinator *fanout.Coordinator
	scorer      relevance.Scorer
	cfg         Config
	logger      logger.ILogger
	now         func() time.Time
}

func New(coordinator *fanout.Coordinator, scorer relevance.Scorer, cfg Config, log logger.ILogger) *Engine {
	def := DefaultConfig()
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = def.SearchLimit
	}
	if cfg.ContextLimit <= 0 {
		cfg.ContextLimit = def.ContextLimit
	}
	if cfg.Snippet.MaxLength <= 0 {
		cfg.Snippet = def.Snippet
	}
	return &Engine{
		coordinator: coordinator,
		scorer:      scorer,
		cfg:         cfg,
		logger:      log,
		now:         time.Now,
	}
}

// WithClock replaces the clock used for recency scoring
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Config returns the effective configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// ClassifyIntent labels the query
func (e *Engine) ClassifyIntent(query string) []intent.Tag {
	return intent.Classify(query)
}

// FederatedSearch queries every selected collection and ranks across them
// with contextual scores, capped at the search limit.
func (e *Engine) FederatedSearch(ctx context.Context, q knowledge.Query) (*SearchResult, error) {
	return e.retrieve(ctx, q, e.coordinator.Select(q.Context), knowledge.ScoreContextual, e.cfg.SearchLimit)
}

// GatherContext is FederatedSearch capped at K, for the chat context
func (e *Engine) GatherContext(ctx context.Context, q knowledge.Query) (*SearchResult, error) {
	return e.retrieve(ctx, q, e.coordinator.Select(q.Context), knowledge.ScoreContextual, e.cfg.ContextLimit)
}

// SearchSource queries a single collection and ranks with plain scores
func (e *Engine) SearchSource(ctx context.Context, source knowledge.SourceType, q knowledge.Query) (*SearchResult, error) {
	adapter, ok := e.coordinator.Lookup(source)
	if !ok {
		return nil, fmt.Errorf("%w: %s", knowledge.ErrUnknownSource, source)
	}
	return e.retrieve(ctx, q, []knowledge.SourceAdapter{adapter}, knowledge.ScorePlain, e.cfg.SearchLimit)
}

func (e *Engine) retrieve(ctx context.Context, q knowledge.Query, adapters []knowledge.SourceAdapter, kind knowledge.ScoreKind, limit int) (*SearchResult, error) {
	tags := intent.Classify(q.Text)
	if strings.TrimSpace(q.Text) == "" {
		return &SearchResult{Intents: tags, Results: []knowledge.RankedResult{}}, nil
	}

	fanned, err := e.coordinator.RunOn(ctx, adapters, q, tags)
	if err != nil {
		return nil, err
	}

	candidates := onTopic(fanned.Items, intent.TopicWords(q.Text))

	now := e.now()
	scored := relevance.ScoreAll(e.scorer, kind, q.Text, candidates, q.Context, now)
	ranked := ranking.Rank(scored, ranking.Options{Limit: limit})

	results := make([]knowledge.RankedResult, len(ranked))
	for i, item := range ranked {
		results[i] = knowledge.RankedResult{
			ScoredItem: item,
			Snippet:    snippet.Extract(item.Text, q.Text, e.cfg.Snippet),
		}
	}

	e.logger.Info(logModule, "Query ranked", map[string]interface{}{
		"intents":    intent.Strings(tags),
		"candidates": len(fanned.Items),
		"on_topic":   len(candidates),
		"results":    len(results),
		"score_kind": kind,
		"degraded":   fanned.Report.Degraded(),
	})

	return &SearchResult{
		Intents: tags,
		Results: results,
		Report:  fanned.Report,
	}, nil
}

// onTopic drops candidates that mention none of the topic words, so
// recency and priority boosts alone never carry an unrelated item. Purely
// intent-driven queries have no topic words and keep everything.
func onTopic(items []knowledge.CandidateItem, words []string) []knowledge.CandidateItem {
	if len(words) == 0 {
		return items
	}
	kept := make([]knowledge.CandidateItem, 0, len(items))
	for _, item := range items {
		if relevance.Mentions(item, words) {
			kept = append(kept, item)
		}
	}
	return kept
}
