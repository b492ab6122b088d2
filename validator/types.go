package validator

import (
	"fmt"
	"sort"
	"sync"
)

// OnFail determines how the orchestrator reacts when a validator fails.
type OnFail string

const (
	// OnFailReask marks the field for inclusion in the next re-ask prompt.
	OnFailReask OnFail = "reask"
	// OnFailFix replaces the value with the validator-supplied correction.
	OnFailFix OnFail = "fix"
	// OnFailFilter removes the field from the final result.
	OnFailFilter OnFail = "filter"
	// OnFailRefrain discards the entire result.
	OnFailRefrain OnFail = "refrain"
	// OnFailNoOp records the failure and keeps the invalid value.
	OnFailNoOp OnFail = "noop"
	// OnFailException terminates the run with a validation error.
	OnFailException OnFail = "exception"
	// OnFailFixReask applies the fix first and escalates to reask if the
	// fixed value still fails.
	OnFailFixReask OnFail = "fix_reask"
)

// Valid reports whether f is one of the known corrective actions.
func (f OnFail) Valid() bool {
	switch f {
	case OnFailReask, OnFailFix, OnFailFilter, OnFailRefrain,
		OnFailNoOp, OnFailException, OnFailFixReask:
		return true
	}
	return false
}

// ParseOnFail converts a string tag into an OnFail action.
func ParseOnFail(s string) (OnFail, error) {
	f := OnFail(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown on-fail action %q", s)
	}
	return f, nil
}

// Result is the outcome of a single validator evaluation.
// A failing result may carry a corrected value; Fix-policy validators
// always supply one.
type Result struct {
	Valid  bool
	Reason string
	// Fixed holds the corrected value on failure, nil when the validator
	// cannot correct.
	Fixed any
}

// Pass returns a passing result.
func Pass() *Result {
	return &Result{Valid: true}
}

// Fail returns a failing result without a correction.
func Fail(reason string) *Result {
	return &Result{Valid: false, Reason: reason}
}

// FailWithFix returns a failing result carrying a corrected value.
func FailWithFix(reason string, fixed any) *Result {
	return &Result{Valid: false, Reason: reason, Fixed: fixed}
}

// Failure records one validator failure on one field during a run.
type Failure struct {
	Field     string `json:"field"`
	Validator string `json:"validator"`
	Action    OnFail `json:"action"`
	Reason    string `json:"reason"`
	// Fixed carries the corrected value when the failing validator
	// supplied one.
	Fixed any `json:"fixed,omitempty"`
}

func (f Failure) String() string {
	return fmt.Sprintf("%s: %s (%s)", f.Field, f.Reason, f.Validator)
}

// Validator evaluates a single decoded field value against one constraint.
// Implementations must be pure: the same value always yields the same
// result, and Validate never mutates shared state. This makes validators
// safe to share across concurrent runs.
type Validator interface {
	// Name returns the validator's stable identifier.
	Name() string
	// OnFail returns the corrective action attached to this validator.
	OnFail() OnFail
	// Validate evaluates a decoded value. A nil value means the field was
	// absent or uncoercible.
	Validate(value any) *Result
}

// Factory constructs a validator from name-keyed parameters, used for
// tag- and config-driven schema construction.
type Factory func(params map[string]string, onFail OnFail) (Validator, error)

// Registry maps validator names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the given name, replacing any previous one.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Build constructs a validator by registered name.
func (r *Registry) Build(name string, params map[string]string, onFail OnFail) (Validator, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("validator %q is not registered", name)
	}
	return f(params, onFail)
}

// Names lists registered validator names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the built-in validators.
var DefaultRegistry = NewRegistry()
