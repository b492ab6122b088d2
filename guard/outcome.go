package guard

import (
	"fmt"
	"strings"

	"github.com/marwan116/structured-output-llm/validator"
)

// Outcome is the final result of one generation run. A run that
// exhausts its re-ask budget still produces an Outcome: best-effort
// values plus annotations for everything left unresolved.
type Outcome struct {
	// RunID identifies the run across logs, traces, and history.
	RunID string
	// Values holds the validated (or best-effort) value per field.
	// Filtered fields are absent; a refrained run has no values at all.
	Values map[string]any
	// Raw is the last raw model output seen.
	Raw string
	// Refrained reports that a refrain-policy validator discarded the
	// entire result.
	Refrained bool
	// Unresolved lists validation failures still standing when the run
	// finished.
	Unresolved []validator.Failure
	// Attempts is the number of model calls made.
	Attempts int
}

// Valid reports whether every field passed validation.
func (o *Outcome) Valid() bool {
	return !o.Refrained && len(o.Unresolved) == 0
}

// Value returns a field's final value.
func (o *Outcome) Value(name string) (any, bool) {
	v, ok := o.Values[name]
	return v, ok
}

// ValidationError terminates a run when an exception-policy validator
// fails. No re-ask is attempted.
type ValidationError struct {
	RunID    string
	Failures []validator.Failure
}

func (e *ValidationError) Error() string {
	reasons := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		reasons[i] = f.String()
	}
	return fmt.Sprintf("guard: validation failed: %s", strings.Join(reasons, "; "))
}
