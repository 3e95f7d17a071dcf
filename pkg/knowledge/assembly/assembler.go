// Package assembly builds the bounded context bundle that is handed to the
// external generation step.
package assembly

import (
	"sort"
	"time"

	"dashboard-assistant-be/pkg/knowledge"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
)

// Options bounds the bundle
type Options struct {
	Limit        int // K
	HistoryTurns int
}

// DefaultOptions returns default bundle bounds
func DefaultOptions() Options {
	return Options{
		Limit:        10,
		HistoryTurns: 6,
	}
}

var nouns = map[knowledge.SourceType]string{
	knowledge.SourceNote:        "note",
	knowledge.SourceMeeting:     "meeting",
	knowledge.SourcePriority:    "priority",
	knowledge.SourceStakeholder: "stakeholder",
	knowledge.SourceEmail:       "email",
	knowledge.SourceMarket:      "market insight",
}

// Assemble keeps at most opts.Limit results in their ranked order and the
// last opts.HistoryTurns turns of the conversation.
func Assemble(results []knowledge.RankedResult, history []knowledge.Turn, now time.Time, opts Options) *knowledge.ContextBundle {
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	bundle := &knowledge.ContextBundle{
		Entries: make([]knowledge.BundleEntry, 0, len(results)),
		Results: append([]knowledge.RankedResult(nil), results...),
		Counts:  make(map[knowledge.SourceType]int),
		History: recentTurns(history, opts.HistoryTurns),
	}

	for _, r := range results {
		bundle.Entries = append(bundle.Entries, knowledge.BundleEntry{
			Type:    r.Type,
			Title:   r.Title,
			Snippet: r.Snippet,
			Recency: Recency(r.CreatedAt, now),
			Score:   r.Score,
		})
		bundle.Counts[r.Type]++
	}
	bundle.Preamble = Preamble(bundle.Counts)

	return bundle
}

// Recency renders a timestamp relative to now ("today", "3 days ago")
func Recency(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return "today"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// Preamble summarizes counts per source type, largest first:
// "Found 3 notes, 2 meetings and 1 stakeholder."
func Preamble(counts map[knowledge.SourceType]int) string {
	type count struct {
		source knowledge.SourceType
		n      int
	}
	var list []count
	for _, source := range knowledge.AllSourceTypes {
		if n := counts[source]; n > 0 {
			list = append(list, count{source, n})
		}
	}
	if len(list) == 0 {
		return "No matching records were found."
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].n > list[j].n })

	parts := make([]string, len(list))
	for i, c := range list {
		parts[i] = english.Plural(c.n, nouns[c.source], "")
	}
	return "Found " + english.WordSeries(parts, "and") + "."
}

func recentTurns(history []knowledge.Turn, n int) []knowledge.Turn {
	if n <= 0 || len(history) <= n {
		return append([]knowledge.Turn(nil), history...)
	}
	return append([]knowledge.Turn(nil), history[len(history)-n:]...)
}
