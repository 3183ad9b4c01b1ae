package eventstore

import (
	"context"
	"encoding/json"
	"slices"
	"time"
)

// RunSummary is the read model of one run, rebuilt from its events.
type RunSummary struct {
	RunID        string
	Modules      []string
	StartedAt    time.Time
	CompletedAt  *time.Time
	Outcome      string // empty while running
	Declarations int
	Coverage     int
	Undocumented int
	Duration     time.Duration
	Stages       []StageCompleted
	Error        string
}

// Summarize folds events into one summary per run, newest first. Events with
// an unreadable payload are skipped.
func Summarize(events []Event) []*RunSummary {
	runs := make(map[string]*RunSummary)
	var order []*RunSummary
	for _, e := range events {
		if e.RunID == "" {
			continue
		}
		s, ok := runs[e.RunID]
		if !ok {
			s = &RunSummary{RunID: e.RunID, StartedAt: e.Timestamp}
			runs[e.RunID] = s
			order = append(order, s)
		}
		switch e.Type {
		case TypeRunStarted:
			var p RunStarted
			if json.Unmarshal(e.Payload, &p) == nil {
				s.StartedAt = e.Timestamp
				s.Modules = p.Modules
			}
		case TypeStageCompleted:
			var p StageCompleted
			if json.Unmarshal(e.Payload, &p) == nil {
				s.Stages = append(s.Stages, p)
			}
		case TypeRunCompleted:
			var p RunCompleted
			if json.Unmarshal(e.Payload, &p) == nil {
				at := e.Timestamp
				s.CompletedAt = &at
				s.Outcome = p.Outcome
				s.Declarations = p.Declarations
				s.Coverage = p.Coverage
				s.Undocumented = p.Undocumented
				s.Duration = time.Duration(p.DurationMS * float64(time.Millisecond))
				s.Error = p.Error
			}
		}
	}
	slices.SortStableFunc(order, func(a, b *RunSummary) int { return b.StartedAt.Compare(a.StartedAt) })
	return order
}

// History returns up to limit summaries of runs recorded since the given time.
func History(ctx context.Context, store Store, since time.Time, limit int) ([]*RunSummary, error) {
	events, err := store.GetRange(ctx, since, time.Now().Add(time.Minute))
	if err != nil {
		return nil, err
	}
	runs := Summarize(events)
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
