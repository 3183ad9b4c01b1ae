package eventstore

import (
	"context"
	"encoding/json"

	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
)

// RunStarted is the payload of TypeRunStarted.
type RunStarted struct {
	Modules []string `json:"modules"`
	Inputs  int      `json:"inputs"`
}

// StageCompleted is the payload of TypeStageCompleted.
type StageCompleted struct {
	Stage      string  `json:"stage"`
	Result     string  `json:"result"`
	DurationMS float64 `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`
}

// RunCompleted is the payload of TypeRunCompleted.
type RunCompleted struct {
	Outcome      string            `json:"outcome"`
	Declarations int               `json:"declarations"`
	Coverage     int               `json:"coverage"`
	Undocumented int               `json:"undocumented"`
	DurationMS   float64           `json:"duration_ms"`
	Artifacts    map[string]string `json:"artifacts,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// RunLog appends the events of one run.
type RunLog struct {
	store Store
	runID string
}

// NewRunLog binds store to a run. A nil store makes every call a no-op.
func NewRunLog(store Store, runID string) *RunLog {
	return &RunLog{store: store, runID: runID}
}

func (l *RunLog) RunID() string { return l.runID }

func (l *RunLog) Started(ctx context.Context, e RunStarted) error {
	return l.append(ctx, TypeRunStarted, e, nil)
}

func (l *RunLog) StageCompleted(ctx context.Context, e StageCompleted) error {
	return l.append(ctx, TypeStageCompleted, e, map[string]string{"stage": e.Stage})
}

func (l *RunLog) Completed(ctx context.Context, e RunCompleted) error {
	return l.append(ctx, TypeRunCompleted, e, map[string]string{"outcome": e.Outcome})
}

func (l *RunLog) append(ctx context.Context, eventType string, payload any, metadata map[string]string) error {
	if l == nil || l.store == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal event payload").
			WithContext("event_type", eventType).
			Build()
	}
	return l.store.Append(ctx, l.runID, eventType, data, metadata)
}
