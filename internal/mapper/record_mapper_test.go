package mapper

import (
	"testing"
	"time"

	"dashboard-assistant-be/internal/entity"
	"dashboard-assistant-be/internal/model"
	"dashboard-assistant-be/pkg/knowledge"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestPriorityToCandidate(t *testing.T) {
	due := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	p := &model.Priority{Id: uuid.New(), Title: "Ship billing", Description: "finish invoices", Level: "critical", Status: "in_progress", DueAt: &due}

	item := PriorityToCandidate(p)
	assert.Equal(t, knowledge.SourcePriority, item.Type)
	assert.Equal(t, p.Id.String(), item.ID)
	assert.Equal(t, "critical", item.Attr(knowledge.AttrPriority))
	assert.Equal(t, "in_progress", item.Attr(knowledge.AttrStatus))
	assert.Equal(t, "2026-04-01T09:00:00Z", item.Attr("due_at"))
}

func TestStakeholderTextSkipsEmptyParts(t *testing.T) {
	item := StakeholderToCandidate(&model.Stakeholder{Id: uuid.New(), Name: "Dana", Organization: "Acme", Influence: "high"})
	assert.Equal(t, "Acme", item.Text)
	assert.Equal(t, "high", item.Attr(knowledge.AttrPriority))
}

func TestNoteTags(t *testing.T) {
	item := NoteToCandidate(&model.Note{Id: uuid.New(), Title: "t", Tags: datatypes.JSON(`["q3","launch"]`)})
	assert.Equal(t, "q3,launch", item.Attr(knowledge.AttrTags))

	item = NoteToCandidate(&model.Note{Id: uuid.New(), Title: "t"})
	assert.Nil(t, item.Attrs)
}

func TestChatMessageSourcesRoundTrip(t *testing.T) {
	m := NewChatMapper()
	sources := []knowledge.RankedResult{{
		ScoredItem: knowledge.ScoredItem{
			CandidateItem: knowledge.CandidateItem{Type: knowledge.SourceNote, ID: "n1", Title: "Roadmap"},
			Score:         0.5,
			Kind:          knowledge.ScoreContextual,
		},
		Snippet: "...roadmap...",
	}}

	row, err := m.ChatMessageToModel(&entity.ChatMessage{Id: uuid.New(), Role: entity.RoleAssistant, Content: "See the roadmap.", Sources: sources})
	require.NoError(t, err)
	back, err := m.ChatMessageToEntity(row)
	require.NoError(t, err)
	require.Len(t, back.Sources, 1)
	assert.Equal(t, "n1", back.Sources[0].ID)
	assert.Equal(t, "...roadmap...", back.Sources[0].Snippet)
}
