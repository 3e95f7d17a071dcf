package mapper

import (
	"encoding/json"
	"strings"
	"time"

	"dashboard-assistant-be/internal/model"
	"dashboard-assistant-be/pkg/knowledge"

	"gorm.io/datatypes"
)

// Record mappers turn stored domain rows into candidate items

func NoteToCandidate(n *model.Note) knowledge.CandidateItem {
	return knowledge.CandidateItem{
		Type:      knowledge.SourceNote,
		ID:        n.Id.String(),
		Title:     n.Title,
		Text:      n.Content,
		CreatedAt: n.CreatedAt,
		Attrs:     attrs(knowledge.AttrTags, joinTags(n.Tags)),
	}
}

func MeetingToCandidate(m *model.Meeting) knowledge.CandidateItem {
	text := m.Agenda
	if m.Summary != "" {
		text = strings.TrimSpace(text + "\n" + m.Summary)
	}
	return knowledge.CandidateItem{
		Type:      knowledge.SourceMeeting,
		ID:        m.Id.String(),
		Title:     m.Title,
		Text:      text,
		CreatedAt: m.CreatedAt,
		Attrs: attrs(
			knowledge.AttrStatus, m.Status,
			"scheduled_at", m.ScheduledAt.Format(time.RFC3339),
		),
	}
}

func PriorityToCandidate(p *model.Priority) knowledge.CandidateItem {
	due := ""
	if p.DueAt != nil {
		due = p.DueAt.Format(time.RFC3339)
	}
	return knowledge.CandidateItem{
		Type:      knowledge.SourcePriority,
		ID:        p.Id.String(),
		Title:     p.Title,
		Text:      p.Description,
		CreatedAt: p.CreatedAt,
		Attrs: attrs(
			knowledge.AttrPriority, p.Level,
			knowledge.AttrStatus, p.Status,
			"due_at", due,
		),
	}
}

func StakeholderToCandidate(s *model.Stakeholder) knowledge.CandidateItem {
	var text []string
	for _, part := range []string{s.Role, s.Organization, s.Notes} {
		if part != "" {
			text = append(text, part)
		}
	}
	return knowledge.CandidateItem{
		Type:      knowledge.SourceStakeholder,
		ID:        s.Id.String(),
		Title:     s.Name,
		Text:      strings.Join(text, "\n"),
		CreatedAt: s.CreatedAt,
		Attrs:     attrs(knowledge.AttrPriority, s.Influence),
	}
}

func EmailToCandidate(e *model.Email) knowledge.CandidateItem {
	return knowledge.CandidateItem{
		Type:      knowledge.SourceEmail,
		ID:        e.Id.String(),
		Title:     e.Subject,
		Text:      e.Body,
		CreatedAt: e.ReceivedAt,
		Attrs: attrs(
			knowledge.AttrPriority, e.Importance,
			"sender", e.Sender,
		),
	}
}

func MarketInsightToCandidate(m *model.MarketInsight) knowledge.CandidateItem {
	return knowledge.CandidateItem{
		Type:      knowledge.SourceMarket,
		ID:        m.Id.String(),
		Title:     m.Headline,
		Text:      m.Body,
		CreatedAt: m.CreatedAt,
		Attrs: attrs(
			knowledge.AttrTags, joinTags(m.Tags),
			"source", m.Source,
		),
	}
}

// attrs builds a map from key/value pairs, skipping empty values
func attrs(kv ...string) map[string]string {
	out := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			out[kv[i]] = kv[i+1]
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func joinTags(raw datatypes.JSON) string {
	if len(raw) == 0 {
		return ""
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return ""
	}
	return strings.Join(tags, ",")
}
