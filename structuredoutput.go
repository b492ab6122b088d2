// Package structuredoutput provides a top-level convenience entry point
// for schema-constrained generation with minimal boilerplate.
//
// Usage:
//
//	import structuredoutput "github.com/marwan116/structured-output-llm"
//
//	type PatientInfo struct {
//		Gender string `json:"gender" guard:"desc=Patient gender,choices=male|female|other,onfail=reask"`
//		Age    int    `json:"age" guard:"desc=Age in years,range=0:120,onfail=fix"`
//	}
//
//	g, err := structuredoutput.ForStruct(PatientInfo{},
//		structuredoutput.OpenAI("gpt-4o-mini"))
//	outcome, err := g.Run(ctx, "34 year old male presenting with chest pain")
//
// This is a thin wrapper around [guard.New]; use the guard package
// directly when you need middleware, history, or metrics wiring.
package structuredoutput

import (
	"os"

	"github.com/marwan116/structured-output-llm/guard"
	"github.com/marwan116/structured-output-llm/llm"
	"github.com/marwan116/structured-output-llm/providers/openai"
	"github.com/marwan116/structured-output-llm/schema"
)

// Option configures the guard created by [New] or [ForStruct].
type Option = guard.Option

// Outcome is the result of one guarded run.
type Outcome = guard.Outcome

// New creates a guard over an explicit schema and provider.
func New(s *schema.Schema, provider llm.Provider, opts ...Option) (*guard.Guard, error) {
	return guard.New(s, provider, opts...)
}

// ForStruct derives the schema from the struct's json and guard tags and
// creates a guard over it.
func ForStruct(v any, provider llm.Provider, opts ...Option) (*guard.Guard, error) {
	s, err := schema.FromStruct(v)
	if err != nil {
		return nil, err
	}
	return guard.New(s, provider, opts...)
}

// OpenAI creates an OpenAI provider for the given model. API key from
// the OPENAI_API_KEY environment variable.
func OpenAI(model string) llm.Provider {
	return openai.New(openai.Config{
		APIKey: os.Getenv("OPENAI_API_KEY"),
		Model:  model,
	}, nil)
}

// Re-export the most common guard options so simple callers never need
// to import guard directly.

// WithMaxReasks bounds corrective re-asks.
var WithMaxReasks = guard.WithMaxReasks

// WithModel sets the model identifier sent to the provider.
var WithModel = guard.WithModel

// WithTemperature sets the sampling temperature.
var WithTemperature = guard.WithTemperature

// WithLogger sets a custom zap logger.
var WithLogger = guard.WithLogger
