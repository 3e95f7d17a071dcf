package contract

import (
	"context"

	"dashboard-assistant-be/internal/repository/specification"
	"dashboard-assistant-be/pkg/knowledge"
)

// RecordSchema names the columns a source adapter filters on. An empty
// column means the collection has no such concept.
type RecordSchema struct {
	TextColumns    []string
	DateColumn     string
	PriorityColumn string
	StatusColumn   string
}

// RecordRepository reads one domain collection as candidate items
type RecordRepository interface {
	Source() knowledge.SourceType
	Schema() RecordSchema
	FindAll(ctx context.Context, specs ...specification.Specification) ([]knowledge.CandidateItem, error)
}
