// Package eventstore records what happened during documentation runs so past
// runs can be listed and compared.
package eventstore

import "time"

// Event types.
const (
	TypeRunStarted     = "RunStarted"
	TypeStageCompleted = "StageCompleted"
	TypeRunCompleted   = "RunCompleted"
)

// Event is one stored fact about a run.
type Event struct {
	ID        int64
	RunID     string
	Type      string
	Timestamp time.Time
	Payload   []byte
	Metadata  map[string]string
}
