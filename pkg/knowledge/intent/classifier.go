// Package intent labels a free-text query with the purposes it likely
// serves. Classification is a keyword substring test: pure, deterministic
// and clock-free.
package intent

import (
	"strings"
	"unicode"

	"dashboard-assistant-be/pkg/knowledge"

	"golang.org/x/text/cases"
)

// Tag is one member of the fixed intent vocabulary
type Tag string

const (
	// time-based
	Current  Tag = "current"
	Upcoming Tag = "upcoming"
	Recent   Tag = "recent"
	Weekly   Tag = "weekly"

	// action-based
	Planning Tag = "planning"
	Review   Tag = "review"
	Create   Tag = "create"
	Update   Tag = "update"

	// priority-based
	Urgent  Tag = "urgent"
	Backlog Tag = "backlog"

	// entity-based
	Meetings     Tag = "meetings"
	Notes        Tag = "notes"
	Priorities   Tag = "priorities"
	Stakeholders Tag = "stakeholders"

	General Tag = "general"
)

// Vocabulary is every tag in output order
var Vocabulary = []Tag{
	Current, Upcoming, Recent, Weekly,
	Planning, Review, Create, Update,
	Urgent, Backlog,
	Meetings, Notes, Priorities, Stakeholders,
	General,
}

// keywords per tag. Entries may contain spaces to avoid firing inside
// unrelated words ("add " vs "address", "mark as" vs "market").
var keywords = map[Tag][]string{
	Current:      {"today", "right now", "current", "this morning", "this afternoon", "tonight", "at the moment"},
	Upcoming:     {"upcoming", "next", "tomorrow", "soon", "scheduled", "coming up", "future"},
	Recent:       {"recent", "latest", "yesterday", "last ", "past few", "just now"},
	Weekly:       {"week", "weekly"},
	Planning:     {"plan", "roadmap", "strategy", "goal", "prepare", "prep "},
	Review:       {"review", "summary", "summarize", "summarise", "recap", "overview", "retro"},
	Create:       {"create", "add ", "new ", "write", "draft", "log a", "schedule a"},
	Update:       {"update", "change", "edit", "modify", "reschedule", "mark as", "rename"},
	Urgent:       {"urgent", "asap", "critical", "important", "emergency", "high priority", "immediately", "overdue"},
	Backlog:      {"backlog", "pending", "someday", "outstanding", "deferred", "on hold"},
	Meetings:     {"meeting", "call", "sync", "standup", "stand-up", "agenda", "calendar", "appointment"},
	Notes:        {"note", "memo", "jot", "journal"},
	Priorities:   {"priorit", "task", "todo", "to-do", "deadline", "okr"},
	Stakeholders: {"stakeholder", "client", "customer", "partner", "investor", "contact", "vendor"},
}

// Classify returns the tags whose keywords occur in query, in vocabulary
// order. The result is never empty: no match yields {General}.
func Classify(query string) []Tag {
	// Folded text plus a trailing space lets "last " match at end of input.
	folded := cases.Fold().String(query) + " "

	var tags []Tag
	for _, tag := range Vocabulary {
		if tag == General {
			continue
		}
		for _, kw := range keywords[tag] {
			if strings.Contains(folded, kw) {
				tags = append(tags, tag)
				break
			}
		}
	}

	if len(tags) == 0 {
		return []Tag{General}
	}
	return tags
}

// TopicWords returns the query keywords left once intent cues are
// removed: "budget items for this week" yields [budget items], while
// "what's urgent" yields nothing. A single-word cue removes every token
// that contains it, the way Classify matches; a phrase cue removes only a
// whole run of tokens.
func TopicWords(query string) []string {
	tokens := tokenize(cases.Fold().String(query))
	cue := make([]bool, len(tokens))

	for _, tag := range Vocabulary {
		for _, kw := range keywords[tag] {
			parts := tokenize(kw)
			if len(parts) == 1 {
				for i, tok := range tokens {
					if strings.Contains(tok+" ", kw) {
						cue[i] = true
					}
				}
				continue
			}
			for i := 0; i+len(parts) <= len(tokens); i++ {
				if equalTokens(tokens[i:i+len(parts)], parts) {
					for j := range parts {
						cue[i+j] = true
					}
				}
			}
		}
	}

	rest := make([]string, 0, len(tokens))
	for i, tok := range tokens {
		if !cue[i] {
			rest = append(rest, tok)
		}
	}
	return knowledge.Keywords(strings.Join(rest, " "))
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func equalTokens(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Has reports whether tag is in tags
func Has(tags []Tag, tag Tag) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Strings converts tags for JSON responses and log details
func Strings(tags []Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}
