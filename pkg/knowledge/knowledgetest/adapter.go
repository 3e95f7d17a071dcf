// Package knowledgetest provides in-memory Source Adapters for tests.
package knowledgetest

import (
	"context"
	"errors"
	"sync"
	"time"

	"dashboard-assistant-be/pkg/knowledge"
)

// StubAdapter returns fixed items, optionally after a delay or with an error
type StubAdapter struct {
	Source knowledge.SourceType
	Items  []knowledge.CandidateItem
	Err    error
	Delay  time.Duration
	Panic  bool

	mu      sync.Mutex
	filters []*knowledge.Filter
}

var _ knowledge.SourceAdapter = (*StubAdapter)(nil)

func (s *StubAdapter) Type() knowledge.SourceType {
	return s.Source
}

func (s *StubAdapter) Search(ctx context.Context, queryText string, filter *knowledge.Filter) ([]knowledge.CandidateItem, error) {
	s.mu.Lock()
	s.filters = append(s.filters, filter)
	s.mu.Unlock()

	if s.Panic {
		panic("stub adapter exploded")
	}
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Items, nil
}

// Filters returns every filter the adapter was called with
func (s *StubAdapter) Filters() []*knowledge.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*knowledge.Filter(nil), s.filters...)
}

// Calls is the number of Search invocations
func (s *StubAdapter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.filters)
}

// Failing builds an adapter that always errors
func Failing(source knowledge.SourceType) *StubAdapter {
	return &StubAdapter{Source: source, Err: errors.New("store unavailable")}
}

// Item is a shorthand constructor
func Item(source knowledge.SourceType, id, title, text string, createdAt time.Time, attrs map[string]string) knowledge.CandidateItem {
	return knowledge.CandidateItem{
		Type:      source,
		ID:        id,
		Title:     title,
		Text:      text,
		CreatedAt: createdAt,
		Attrs:     attrs,
	}
}
