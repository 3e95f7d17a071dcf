package implementation

import (
	"context"

	"dashboard-assistant-be/internal/mapper"
	"dashboard-assistant-be/internal/model"
	"dashboard-assistant-be/internal/repository/contract"
	"dashboard-assistant-be/internal/repository/specification"
	"dashboard-assistant-be/pkg/knowledge"

	"gorm.io/gorm"
)

// RecordRepositoryImpl reads rows of M and maps them to candidate items
type RecordRepositoryImpl[M any] struct {
	db       *gorm.DB
	source   knowledge.SourceType
	schema   contract.RecordSchema
	toSearch func(*M) knowledge.CandidateItem
}

func (r *RecordRepositoryImpl[M]) Source() knowledge.SourceType {
	return r.source
}

func (r *RecordRepositoryImpl[M]) Schema() contract.RecordSchema {
	return r.schema
}

func (r *RecordRepositoryImpl[M]) FindAll(ctx context.Context, specs ...specification.Specification) ([]knowledge.CandidateItem, error) {
	var rows []*M
	query := specification.ApplyAll(r.db.WithContext(ctx).Model(new(M)), specs...)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]knowledge.CandidateItem, len(rows))
	for i, row := range rows {
		items[i] = r.toSearch(row)
	}
	return items, nil
}

func NewNoteRepository(db *gorm.DB) contract.RecordRepository {
	return &RecordRepositoryImpl[model.Note]{
		db:     db,
		source: knowledge.SourceNote,
		schema: contract.RecordSchema{
			TextColumns: []string{"title", "content"},
			DateColumn:  "created_at",
		},
		toSearch: mapper.NoteToCandidate,
	}
}

func NewMeetingRepository(db *gorm.DB) contract.RecordRepository {
	return &RecordRepositoryImpl[model.Meeting]{
		db:     db,
		source: knowledge.SourceMeeting,
		schema: contract.RecordSchema{
			TextColumns:  []string{"title", "agenda", "summary"},
			DateColumn:   "scheduled_at",
			StatusColumn: "status",
		},
		toSearch: mapper.MeetingToCandidate,
	}
}

func NewPriorityRepository(db *gorm.DB) contract.RecordRepository {
	return &RecordRepositoryImpl[model.Priority]{
		db:     db,
		source: knowledge.SourcePriority,
		schema: contract.RecordSchema{
			TextColumns:    []string{"title", "description"},
			DateColumn:     "due_at",
			PriorityColumn: "level",
			StatusColumn:   "status",
		},
		toSearch: mapper.PriorityToCandidate,
	}
}

func NewStakeholderRepository(db *gorm.DB) contract.RecordRepository {
	return &RecordRepositoryImpl[model.Stakeholder]{
		db:     db,
		source: knowledge.SourceStakeholder,
		schema: contract.RecordSchema{
			TextColumns:    []string{"name", "organization", "role", "notes"},
			DateColumn:     "created_at",
			PriorityColumn: "influence",
		},
		toSearch: mapper.StakeholderToCandidate,
	}
}

func NewEmailRepository(db *gorm.DB) contract.RecordRepository {
	return &RecordRepositoryImpl[model.Email]{
		db:     db,
		source: knowledge.SourceEmail,
		schema: contract.RecordSchema{
			TextColumns:    []string{"subject", "sender", "body"},
			DateColumn:     "received_at",
			PriorityColumn: "importance",
		},
		toSearch: mapper.EmailToCandidate,
	}
}

func NewMarketInsightRepository(db *gorm.DB) contract.RecordRepository {
	return &RecordRepositoryImpl[model.MarketInsight]{
		db:     db,
		source: knowledge.SourceMarket,
		schema: contract.RecordSchema{
			TextColumns: []string{"headline", "body", "source"},
			DateColumn:  "created_at",
		},
		toSearch: mapper.MarketInsightToCandidate,
	}
}

// NewRecordRepositories returns one repository per searchable collection
func NewRecordRepositories(db *gorm.DB) []contract.RecordRepository {
	return []contract.RecordRepository{
		NewNoteRepository(db),
		NewMeetingRepository(db),
		NewPriorityRepository(db),
		NewStakeholderRepository(db),
		NewEmailRepository(db),
		NewMarketInsightRepository(db),
	}
}
