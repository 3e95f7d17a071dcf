package knowledge

import (
	"time"
)

// SourceType identifies the domain collection a record comes from
type SourceType string

const (
	SourceNote        SourceType = "note"
	SourceMeeting     SourceType = "meeting"
	SourcePriority    SourceType = "priority"
	SourceStakeholder SourceType = "stakeholder"
	SourceEmail       SourceType = "email"
	SourceMarket      SourceType = "market"
)

// AllSourceTypes lists every known collection in display order
var AllSourceTypes = []SourceType{
	SourceNote,
	SourceMeeting,
	SourcePriority,
	SourceStakeholder,
	SourceEmail,
	SourceMarket,
}

// ParseSourceType accepts singular or plural names ("note", "notes")
func ParseSourceType(raw string) (SourceType, bool) {
	switch raw {
	case "note", "notes":
		return SourceNote, true
	case "meeting", "meetings":
		return SourceMeeting, true
	case "priority", "priorities":
		return SourcePriority, true
	case "stakeholder", "stakeholders":
		return SourceStakeholder, true
	case "email", "emails":
		return SourceEmail, true
	case "market", "markets", "market_intelligence":
		return SourceMarket, true
	}
	return "", false
}

// Well-known keys inside CandidateItem.Attrs
const (
	AttrPriority = "priority"
	AttrStatus   = "status"
	AttrTags     = "tags"
)

// Priority levels, lowest to highest
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// ChatContext is the optional hint the UI sends with a query
type ChatContext struct {
	Segment    SourceType `json:"segment,omitempty"`
	EntityID   string     `json:"entity_id,omitempty"`
	EntityType SourceType `json:"entity_type,omitempty"`
	UserRole   string     `json:"user_role,omitempty"`
	Filter     *Filter    `json:"filter,omitempty"`
}

// Query is one free-text request, scoped to the records of Owner
type Query struct {
	Text    string
	Owner   string
	Context *ChatContext
}

// Filter narrows what a Source Adapter returns. Adapters ignore fields
// that do not apply to their collection.
type Filter struct {
	Owner    string     `json:"-"`
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
	Priority []string   `json:"priority,omitempty"`
	Status   string     `json:"status,omitempty"`
}

// HasConstraints reports whether anything beyond the owner is set
func (f *Filter) HasConstraints() bool {
	if f == nil {
		return false
	}
	return f.DateFrom != nil || f.DateTo != nil || len(f.Priority) > 0 || f.Status != ""
}

// CandidateItem is a record returned by a Source Adapter. Treat as immutable.
type CandidateItem struct {
	Type      SourceType        `json:"type"`
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Text      string            `json:"text"`
	CreatedAt time.Time         `json:"created_at"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

// Key is the identity of an item across a ranked list
func (c CandidateItem) Key() ItemKey {
	return ItemKey{Type: c.Type, ID: c.ID}
}

// Attr returns an attribute or "" when absent
func (c CandidateItem) Attr(name string) string {
	if c.Attrs == nil {
		return ""
	}
	return c.Attrs[name]
}

// ItemKey is (type, id)
type ItemKey struct {
	Type SourceType
	ID   string
}

// ScoreKind tells which scoring mode produced a ScoredItem
type ScoreKind string

const (
	ScorePlain      ScoreKind = "plain"
	ScoreContextual ScoreKind = "contextual"
)

// ScoredItem is a candidate plus its relevance in [0, MaxScore]
type ScoredItem struct {
	CandidateItem
	Score float64   `json:"score"`
	Kind  ScoreKind `json:"score_kind"`
}

// RankedResult is a ScoredItem that survived ranking, with its excerpt
type RankedResult struct {
	ScoredItem
	Snippet string `json:"snippet"`
}

// BundleEntry is one line of context handed to the generation step
type BundleEntry struct {
	Type    SourceType `json:"type"`
	Title   string     `json:"title"`
	Snippet string     `json:"snippet"`
	Recency string     `json:"recency"`
	Score   float64    `json:"score"`
}

// Turn is a past conversation message passed to generation
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ContextBundle is the bounded payload for the generation step
type ContextBundle struct {
	Entries  []BundleEntry      `json:"entries"`
	Results  []RankedResult     `json:"-"`
	Counts   map[SourceType]int `json:"counts"`
	Preamble string             `json:"preamble"`
	History  []Turn             `json:"history"`
}
