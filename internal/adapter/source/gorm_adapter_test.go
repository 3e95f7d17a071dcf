package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"dashboard-assistant-be/internal/repository/contract"
	"dashboard-assistant-be/internal/repository/specification"
	"dashboard-assistant-be/pkg/knowledge"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	schema contract.RecordSchema
	specs  []specification.Specification
	err    error
}

func (f *fakeRepo) Source() knowledge.SourceType  { return knowledge.SourcePriority }
func (f *fakeRepo) Schema() contract.RecordSchema { return f.schema }
func (f *fakeRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]knowledge.CandidateItem, error) {
	f.specs = specs
	return []knowledge.CandidateItem{{Type: knowledge.SourcePriority, ID: "p1"}}, f.err
}

var prioritySchema = contract.RecordSchema{
	TextColumns:    []string{"title", "description"},
	DateColumn:     "due_at",
	PriorityColumn: "level",
	StatusColumn:   "status",
}

func TestSearchByKeywords(t *testing.T) {
	repo := &fakeRepo{schema: prioritySchema}
	owner := uuid.New()

	items, err := NewRecordAdapter(repo, 10).Search(context.Background(), "the Budget review", &knowledge.Filter{Owner: owner.String()})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	assert.Equal(t, []specification.Specification{
		specification.UserOwnedBy{UserID: owner},
		specification.KeywordSearch{Columns: prioritySchema.TextColumns, Words: []string{"budget", "review"}},
		specification.OrderBy{Column: "created_at", Desc: true},
		specification.Limit{N: 10},
	}, repo.specs)
}

func TestSearchByFilterKeepsTopicWords(t *testing.T) {
	repo := &fakeRepo{schema: prioritySchema}
	owner := uuid.New()
	from := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 14)

	_, err := NewRecordAdapter(repo, 10).Search(context.Background(), "budget items for this week", &knowledge.Filter{
		Owner:    owner.String(),
		DateFrom: &from,
		DateTo:   &to,
	})
	require.NoError(t, err)

	assert.Equal(t, []specification.Specification{
		specification.UserOwnedBy{UserID: owner},
		specification.DateBetween{Column: "due_at", From: &from, To: &to},
		specification.KeywordSearch{Columns: prioritySchema.TextColumns, Words: []string{"budget", "items"}},
		specification.OrderBy{Column: "created_at", Desc: true},
		specification.Limit{N: 10},
	}, repo.specs)
}

func TestSearchByFilterSkipsKeywords(t *testing.T) {
	repo := &fakeRepo{schema: prioritySchema}
	owner := uuid.New()
	from := time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC)

	_, err := NewRecordAdapter(repo, 10).Search(context.Background(), "what is urgent", &knowledge.Filter{
		Owner:    owner.String(),
		DateFrom: &from,
		Priority: []string{"high", "critical"},
		Status:   "backlog",
	})
	require.NoError(t, err)

	assert.Contains(t, repo.specs, specification.DateBetween{Column: "due_at", From: &from})
	assert.Contains(t, repo.specs, specification.ValueIn{Column: "level", Values: []string{"high", "critical"}})
	assert.Contains(t, repo.specs, specification.Equals{Column: "status", Value: "backlog"})
	for _, s := range repo.specs {
		_, isKeyword := s.(specification.KeywordSearch)
		assert.False(t, isKeyword)
	}
}

func TestFilterFieldsWithoutColumnAreIgnored(t *testing.T) {
	repo := &fakeRepo{schema: contract.RecordSchema{TextColumns: []string{"title"}, DateColumn: "created_at"}}
	owner := uuid.New()

	_, err := NewRecordAdapter(repo, 10).Search(context.Background(), "launch", &knowledge.Filter{
		Owner:    owner.String(),
		Priority: []string{"high"},
	})
	require.NoError(t, err)
	assert.Contains(t, repo.specs, specification.KeywordSearch{Columns: []string{"title"}, Words: []string{"launch"}})
}

func TestSearchWithoutKeywordsReturnsNothing(t *testing.T) {
	repo := &fakeRepo{schema: prioritySchema}
	items, err := NewRecordAdapter(repo, 10).Search(context.Background(), "the a of", &knowledge.Filter{Owner: uuid.NewString()})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Nil(t, repo.specs)
}

func TestSearchErrors(t *testing.T) {
	_, err := NewRecordAdapter(&fakeRepo{}, 10).Search(context.Background(), "x", nil)
	assert.Error(t, err)

	_, err = NewRecordAdapter(&fakeRepo{}, 10).Search(context.Background(), "x", &knowledge.Filter{Owner: "not-a-uuid"})
	assert.Error(t, err)

	repo := &fakeRepo{schema: prioritySchema, err: errors.New("connection reset")}
	_, err = NewRecordAdapter(repo, 10).Search(context.Background(), "budget", &knowledge.Filter{Owner: uuid.NewString()})
	assert.ErrorContains(t, err, "connection reset")
}
