package history

import (
	"context"
	"errors"
	"time"

	"github.com/marwan116/structured-output-llm/validator"
)

// ErrNotFound indicates no records exist for the requested run.
var ErrNotFound = errors.New("history: run not found")

// Record is one model call within a run: the prompt sent, the raw
// output received, and the validation failures it produced.
type Record struct {
	RunID     string              `json:"run_id"`
	Attempt   int                 `json:"attempt"`
	Query     string              `json:"query"`
	Prompt    string              `json:"prompt"`
	RawOutput string              `json:"raw_output"`
	Failures  []validator.Failure `json:"failures,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// Store persists run transcripts. Implementations must be safe for
// concurrent use.
type Store interface {
	// Append stores one attempt record.
	Append(ctx context.Context, rec *Record) error
	// ByRun returns a run's records ordered by attempt.
	ByRun(ctx context.Context, runID string) ([]Record, error)
}
