package fanout

import (
	"time"

	"dashboard-assistant-be/pkg/knowledge"
	"dashboard-assistant-be/pkg/knowledge/intent"
)

// Collections whose records carry a priority level
var priorityAware = map[knowledge.SourceType]bool{
	knowledge.SourcePriority:    true,
	knowledge.SourceStakeholder: true,
	knowledge.SourceEmail:       true,
}

// Collections whose date column can lie in the future (scheduled / due)
var scheduleAware = map[knowledge.SourceType]bool{
	knowledge.SourceMeeting:  true,
	knowledge.SourcePriority: true,
}

// Collections with a workflow status
var statusAware = map[knowledge.SourceType]bool{
	knowledge.SourcePriority: true,
	knowledge.SourceMeeting:  true,
}

type window struct {
	from, to time.Time
	set      bool
}

func (w *window) widen(from, to time.Time) {
	if !w.set {
		w.from, w.to, w.set = from, to, true
		return
	}
	if from.Before(w.from) {
		w.from = from
	}
	if to.After(w.to) {
		w.to = to
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// FilterFor derives the filter one adapter receives from the intents.
// Time tags that apply together widen into a single window. Fields set on
// an explicit ChatContext filter win over derived ones.
func (c *Coordinator) FilterFor(source knowledge.SourceType, tags []intent.Tag, q knowledge.Query, now time.Time) *knowledge.Filter {
	f := &knowledge.Filter{Owner: q.Owner}

	var w window
	for _, tag := range tags {
		switch tag {
		case intent.Recent:
			w.widen(now.Add(-c.cfg.RecentWindow), now)
		case intent.Current:
			day := startOfDay(now)
			w.widen(day, day.Add(24*time.Hour))
		case intent.Weekly:
			if scheduleAware[source] {
				w.widen(now.Add(-7*24*time.Hour), now.Add(7*24*time.Hour))
			} else {
				w.widen(now.Add(-7*24*time.Hour), now)
			}
		case intent.Upcoming:
			if scheduleAware[source] {
				w.widen(now, now.Add(c.cfg.UpcomingWindow))
			}
		case intent.Urgent:
			if priorityAware[source] {
				f.Priority = []string{knowledge.PriorityHigh, knowledge.PriorityCritical}
			}
		case intent.Backlog:
			if source == knowledge.SourcePriority {
				f.Status = "backlog"
			}
		}
	}
	if w.set {
		from, to := w.from, w.to
		f.DateFrom, f.DateTo = &from, &to
	}

	if q.Context != nil && q.Context.Filter != nil {
		explicit := q.Context.Filter
		if explicit.DateFrom != nil {
			f.DateFrom = explicit.DateFrom
		}
		if explicit.DateTo != nil {
			f.DateTo = explicit.DateTo
		}
		if len(explicit.Priority) > 0 && priorityAware[source] {
			f.Priority = append([]string(nil), explicit.Priority...)
		}
		if explicit.Status != "" && statusAware[source] {
			f.Status = explicit.Status
		}
	}

	return f
}
