// Package relevance scores candidate items against a query. The keyword
// heuristic sits behind the Scorer interface so a similarity-based
// implementation can replace it without touching ranking.
package relevance

import (
	"strings"
	"time"
	"unicode/utf8"

	"dashboard-assistant-be/pkg/knowledge"
)

// MaxScore is the upper bound of every score, plain or contextual
const MaxScore = 1.0

// Scorer computes plain and contextual relevance. Both are deterministic
// given (query, item, now).
type Scorer interface {
	Plain(query string, item knowledge.CandidateItem) float64
	Contextual(query string, item knowledge.CandidateItem, hint *knowledge.ChatContext, now time.Time) float64
}

// Weights tunes the keyword heuristic
type Weights struct {
	ExactMatch        float64
	PerWord           float64
	LongTextThreshold int // characters
	LongTextPenalty   float64

	SegmentBoost float64
	TodayBoost   float64
	WeekBoost    float64
	MonthBoost   float64

	CriticalBoost float64
	HighBoost     float64
	MediumBoost   float64
}

// DefaultWeights returns the weights used in production
func DefaultWeights() Weights {
	return Weights{
		ExactMatch:        0.4,
		PerWord:           0.15,
		LongTextThreshold: 2000,
		LongTextPenalty:   0.8,

		SegmentBoost: 0.2,
		TodayBoost:   0.15,
		WeekBoost:    0.1,
		MonthBoost:   0.05,

		CriticalBoost: 0.2,
		HighBoost:     0.15,
		MediumBoost:   0.05,
	}
}

func (w Weights) maxBoost() float64 {
	return w.SegmentBoost + maxOf(w.TodayBoost, w.WeekBoost, w.MonthBoost) + maxOf(w.CriticalBoost, w.HighBoost, w.MediumBoost)
}

// KeywordScorer is the substring heuristic
type KeywordScorer struct {
	weights Weights
}

var _ Scorer = (*KeywordScorer)(nil)

func NewKeywordScorer(weights Weights) *KeywordScorer {
	return &KeywordScorer{weights: weights}
}

// Plain credits an exact match of the whole query plus each distinct query
// word found in the title or text, caps at MaxScore, then damps long texts.
func (s *KeywordScorer) Plain(query string, item knowledge.CandidateItem) float64 {
	normalized := strings.ToLower(knowledge.NormalizeQuery(query))
	if normalized == "" {
		return 0
	}
	haystack := strings.ToLower(item.Title + "\n" + item.Text)

	score := 0.0
	if strings.Contains(haystack, normalized) {
		score += s.weights.ExactMatch
	}
	for _, word := range knowledge.Keywords(query) {
		if strings.Contains(haystack, word) {
			score += s.weights.PerWord
		}
	}
	if score > MaxScore {
		score = MaxScore
	}

	if s.weights.LongTextThreshold > 0 && utf8.RuneCountInString(item.Text) > s.weights.LongTextThreshold {
		score *= s.weights.LongTextPenalty
	}
	return score
}

// Contextual adds segment, recency and priority boosts to the plain score
// and rescales the sum back into [0, MaxScore].
func (s *KeywordScorer) Contextual(query string, item knowledge.CandidateItem, hint *knowledge.ChatContext, now time.Time) float64 {
	raw := s.Plain(query, item) + s.segmentBoost(item, hint) + s.recencyBoost(item, now) + s.priorityBoost(item)

	score := raw / (MaxScore + s.weights.maxBoost()) * MaxScore
	if score > MaxScore {
		return MaxScore
	}
	return score
}

func (s *KeywordScorer) segmentBoost(item knowledge.CandidateItem, hint *knowledge.ChatContext) float64 {
	if hint == nil {
		return 0
	}
	if hint.Segment != "" && hint.Segment == item.Type {
		return s.weights.SegmentBoost
	}
	if hint.Segment == "" && hint.EntityType != "" && hint.EntityType == item.Type {
		return s.weights.SegmentBoost
	}
	return 0
}

func (s *KeywordScorer) recencyBoost(item knowledge.CandidateItem, now time.Time) float64 {
	if item.CreatedAt.IsZero() {
		return 0
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	switch {
	case !item.CreatedAt.Before(today):
		return s.weights.TodayBoost
	case now.Sub(item.CreatedAt) <= 7*24*time.Hour:
		return s.weights.WeekBoost
	case now.Sub(item.CreatedAt) <= 30*24*time.Hour:
		return s.weights.MonthBoost
	}
	return 0
}

func (s *KeywordScorer) priorityBoost(item knowledge.CandidateItem) float64 {
	switch strings.ToLower(item.Attr(knowledge.AttrPriority)) {
	case knowledge.PriorityCritical, "urgent":
		return s.weights.CriticalBoost
	case knowledge.PriorityHigh:
		return s.weights.HighBoost
	case knowledge.PriorityMedium:
		return s.weights.MediumBoost
	}
	return 0
}

// ScoreAll scores every item with one mode. Plain and contextual scores
// are never mixed in one slice.
func ScoreAll(s Scorer, kind knowledge.ScoreKind, query string, items []knowledge.CandidateItem, hint *knowledge.ChatContext, now time.Time) []knowledge.ScoredItem {
	scored := make([]knowledge.ScoredItem, len(items))
	for i, item := range items {
		var score float64
		if kind == knowledge.ScoreContextual {
			score = s.Contextual(query, item, hint, now)
		} else {
			score = s.Plain(query, item)
		}
		scored[i] = knowledge.ScoredItem{CandidateItem: item, Score: score, Kind: kind}
	}
	return scored
}

// Mentions reports whether any of words occurs in the item's title or text.
// words are expected lower-cased, as knowledge.Keywords returns them.
func Mentions(item knowledge.CandidateItem, words []string) bool {
	haystack := strings.ToLower(item.Title + "\n" + item.Text)
	for _, word := range words {
		if strings.Contains(haystack, word) {
			return true
		}
	}
	return false
}

func maxOf(values ...float64) float64 {
	m := 0.0
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}
