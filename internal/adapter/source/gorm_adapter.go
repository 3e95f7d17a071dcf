// Package source exposes the stored domain collections as Source Adapters.
package source

import (
	"context"
	"fmt"

	"dashboard-assistant-be/internal/repository/contract"
	"dashboard-assistant-be/internal/repository/specification"
	"dashboard-assistant-be/pkg/knowledge"
	"dashboard-assistant-be/pkg/knowledge/intent"

	"github.com/google/uuid"
)

// RecordAdapter searches one collection through its repository. Without
// filter constraints it matches any query keyword in the text columns.
// With constraints the filter is ANDed with the topic words left after
// intent cues are removed; when none are left the filter alone selects,
// so "what's urgent" lists urgent items instead of items containing the
// word "urgent".
type RecordAdapter struct {
	repo  contract.RecordRepository
	limit int
}

var _ knowledge.SourceAdapter = (*RecordAdapter)(nil)

func NewRecordAdapter(repo contract.RecordRepository, limit int) *RecordAdapter {
	if limit <= 0 {
		limit = 25
	}
	return &RecordAdapter{repo: repo, limit: limit}
}

func (a *RecordAdapter) Type() knowledge.SourceType {
	return a.repo.Source()
}

func (a *RecordAdapter) Search(ctx context.Context, queryText string, filter *knowledge.Filter) ([]knowledge.CandidateItem, error) {
	specs, err := a.specifications(queryText, filter)
	if err != nil {
		return nil, err
	}
	if specs == nil {
		return []knowledge.CandidateItem{}, nil
	}

	items, err := a.repo.FindAll(ctx, specs...)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", a.repo.Source(), err)
	}
	return items, nil
}

// specifications returns nil when nothing could match
func (a *RecordAdapter) specifications(queryText string, filter *knowledge.Filter) ([]specification.Specification, error) {
	if filter == nil || filter.Owner == "" {
		return nil, fmt.Errorf("search %s: owner is required", a.repo.Source())
	}
	owner, err := uuid.Parse(filter.Owner)
	if err != nil {
		return nil, fmt.Errorf("search %s: invalid owner: %w", a.repo.Source(), err)
	}

	schema := a.repo.Schema()
	specs := []specification.Specification{specification.UserOwnedBy{UserID: owner}}

	constrained := false
	if (filter.DateFrom != nil || filter.DateTo != nil) && schema.DateColumn != "" {
		specs = append(specs, specification.DateBetween{Column: schema.DateColumn, From: filter.DateFrom, To: filter.DateTo})
		constrained = true
	}
	if len(filter.Priority) > 0 && schema.PriorityColumn != "" {
		specs = append(specs, specification.ValueIn{Column: schema.PriorityColumn, Values: filter.Priority})
		constrained = true
	}
	if filter.Status != "" && schema.StatusColumn != "" {
		specs = append(specs, specification.Equals{Column: schema.StatusColumn, Value: filter.Status})
		constrained = true
	}

	words := knowledge.Keywords(queryText)
	if constrained {
		words = intent.TopicWords(queryText)
	}
	switch {
	case len(words) > 0:
		specs = append(specs, specification.KeywordSearch{Columns: schema.TextColumns, Words: words})
	case !constrained:
		return nil, nil
	}

	return append(specs,
		specification.OrderBy{Column: "created_at", Desc: true},
		specification.Limit{N: a.limit},
	), nil
}

// NewRecordAdapters wraps every repository
func NewRecordAdapters(repos []contract.RecordRepository, limit int) []knowledge.SourceAdapter {
	adapters := make([]knowledge.SourceAdapter, len(repos))
	for i, repo := range repos {
		adapters[i] = NewRecordAdapter(repo, limit)
	}
	return adapters
}
