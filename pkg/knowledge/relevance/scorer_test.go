package relevance

import (
	"strings"
	"testing"
	"time"

	"dashboard-assistant-be/pkg/knowledge"
	"dashboard-assistant-be/pkg/knowledge/knowledgetest"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 3, 18, 15, 0, 0, 0, time.UTC)

func TestPlainExactMatchBeatsScatteredWords(t *testing.T) {
	s := NewKeywordScorer(DefaultWeights())

	exact := knowledgetest.Item(knowledge.SourceNote, "1", "", "we agreed on the budget review for Q3", now, nil)
	scattered := knowledgetest.Item(knowledge.SourceNote, "2", "", "review of travel; budget pending", now, nil)

	assert.Greater(t, s.Plain("budget review", exact), s.Plain("budget review", scattered))
	assert.Zero(t, s.Plain("budget review", knowledgetest.Item(knowledge.SourceNote, "3", "", "nothing here", now, nil)))
	assert.Zero(t, s.Plain("   ", exact))
}

func TestPlainMonotonicInMatchedWords(t *testing.T) {
	s := NewKeywordScorer(DefaultWeights())
	query := "alpha bravo charlie delta echo foxtrot golf hotel"
	words := strings.Fields(query)

	// Same length texts containing 0..n of the query words
	const width = 80
	prev := -1.0
	for matched := 0; matched <= len(words); matched++ {
		text := strings.Join(words[:matched], " ")
		text += strings.Repeat("x", width-len(text))

		score := s.Plain(query, knowledgetest.Item(knowledge.SourceNote, "n", "", text, now, nil))
		assert.GreaterOrEqual(t, score, prev, "matched=%d", matched)
		assert.LessOrEqual(t, score, MaxScore)
		prev = score
	}
}

func TestPlainPenalizesLongText(t *testing.T) {
	w := DefaultWeights()
	s := NewKeywordScorer(w)

	short := knowledgetest.Item(knowledge.SourceNote, "1", "", "launch plan", now, nil)
	long := knowledgetest.Item(knowledge.SourceNote, "2", "", "launch plan "+strings.Repeat("filler ", w.LongTextThreshold), now, nil)

	assert.InDelta(t, s.Plain("launch plan", short)*w.LongTextPenalty, s.Plain("launch plan", long), 1e-9)
}

func TestContextualStaysInRange(t *testing.T) {
	s := NewKeywordScorer(DefaultWeights())
	hint := &knowledge.ChatContext{Segment: knowledge.SourcePriority}

	best := knowledgetest.Item(knowledge.SourcePriority, "p", "urgent launch", "urgent launch", now,
		map[string]string{knowledge.AttrPriority: knowledge.PriorityCritical})

	score := s.Contextual("urgent launch", best, hint, now)
	assert.LessOrEqual(t, score, MaxScore)
	assert.Greater(t, score, 0.0)
}

func TestContextualBoosts(t *testing.T) {
	s := NewKeywordScorer(DefaultWeights())
	base := knowledgetest.Item(knowledge.SourceNote, "n", "", "vendor contract", now.AddDate(0, -6, 0), nil)

	plain := s.Contextual("vendor contract", base, nil, now)

	recent := base
	recent.CreatedAt = now.Add(-time.Hour)
	assert.Greater(t, s.Contextual("vendor contract", recent, nil, now), plain)

	inSegment := s.Contextual("vendor contract", base, &knowledge.ChatContext{Segment: knowledge.SourceNote}, now)
	assert.Greater(t, inSegment, plain)

	urgent := base
	urgent.Attrs = map[string]string{knowledge.AttrPriority: "HIGH"}
	assert.Greater(t, s.Contextual("vendor contract", urgent, nil, now), plain)
}

func TestContextualRanksHighPriorityStakeholderFirst(t *testing.T) {
	s := NewKeywordScorer(DefaultWeights())
	hint := &knowledge.ChatContext{Segment: knowledge.SourceStakeholder}
	query := "urgent stakeholder meeting"

	stakeholder := knowledgetest.Item(knowledge.SourceStakeholder, "s1", "Dana Whitfield",
		"Board stakeholder, wants a meeting about the renewal", now.AddDate(0, 0, -2),
		map[string]string{knowledge.AttrPriority: knowledge.PriorityHigh})
	note := knowledgetest.Item(knowledge.SourceNote, "n1", "Meeting prep",
		"stakeholder meeting notes", now.AddDate(0, 0, -2),
		map[string]string{knowledge.AttrPriority: knowledge.PriorityLow})

	assert.Greater(t, s.Contextual(query, stakeholder, hint, now), s.Contextual(query, note, hint, now))
}

func TestScoreAllUsesOneKind(t *testing.T) {
	s := NewKeywordScorer(DefaultWeights())
	items := []knowledge.CandidateItem{
		knowledgetest.Item(knowledge.SourceNote, "1", "", "alpha", now, nil),
		knowledgetest.Item(knowledge.SourceMeeting, "2", "", "alpha beta", now, nil),
	}

	for _, scored := range ScoreAll(s, knowledge.ScorePlain, "alpha beta", items, nil, now) {
		assert.Equal(t, knowledge.ScorePlain, scored.Kind)
	}
	for _, scored := range ScoreAll(s, knowledge.ScoreContextual, "alpha beta", items, nil, now) {
		assert.Equal(t, knowledge.ScoreContextual, scored.Kind)
	}
}
