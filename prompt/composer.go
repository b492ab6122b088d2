package prompt

import (
	"fmt"
	"strings"

	"github.com/marwan116/structured-output-llm/schema"
	"github.com/marwan116/structured-output-llm/validator"
)

// DefaultInstructions is the preamble used when no custom instructions
// are configured.
const DefaultInstructions = "You are a precise data extraction engine. " +
	"Answer the query below and return the answer as a single JSON object."

// BudgetError reports a composed prompt that exceeds the configured
// token budget.
type BudgetError struct {
	Tokens int
	Budget int
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("prompt: %d tokens exceeds budget of %d", e.Tokens, e.Budget)
}

// TokenCounter measures prompt size in model tokens.
type TokenCounter interface {
	CountTokens(text string) (int, error)
}

// Composer renders deterministic prompts for a fixed schema. It is
// pure: the same inputs always produce the same text, and a Composer is
// safe to share across concurrent runs.
type Composer struct {
	schema       *schema.Schema
	instructions string
	counter      TokenCounter
	budget       int
}

// Option configures a Composer.
type Option func(*Composer)

// WithInstructions replaces the default preamble.
func WithInstructions(instructions string) Option {
	return func(c *Composer) { c.instructions = instructions }
}

// WithTokenBudget enables token accounting: composed prompts longer
// than budget tokens fail with *BudgetError. The counter is consulted
// on every composition.
func WithTokenBudget(counter TokenCounter, budget int) Option {
	return func(c *Composer) {
		c.counter = counter
		c.budget = budget
	}
}

// NewComposer creates a Composer for the given schema.
func NewComposer(s *schema.Schema, opts ...Option) *Composer {
	c := &Composer{
		schema:       s,
		instructions: DefaultInstructions,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose renders the initial prompt for a query: instructions, the
// query itself, the schema skeleton, and output discipline.
func (c *Composer) Compose(query string) (string, error) {
	var sb strings.Builder

	sb.WriteString(c.instructions)
	sb.WriteString("\n\n")
	sb.WriteString(query)
	sb.WriteString("\n\n")
	sb.WriteString("Given below is a JSON skeleton describing the fields to produce and the constraints on each value.\n\n")
	sb.WriteString(c.schema.Render())
	sb.WriteString("\n\n")
	sb.WriteString("ONLY return a valid JSON object with exactly these fields and no other text. If a value is unknown, use null.")

	return c.finish(sb.String())
}

// ComposeReask renders a corrective prompt after validation failures.
// The original query is always restated so the model retains full
// context even when the transport is stateless.
func (c *Composer) ComposeReask(query, previousRaw string, failures []validator.Failure) (string, error) {
	var sb strings.Builder

	sb.WriteString(c.instructions)
	sb.WriteString("\n\n")
	sb.WriteString(query)
	sb.WriteString("\n\n")
	sb.WriteString("Your previous response did not satisfy the constraints.\n\nPrevious response:\n")
	sb.WriteString(previousRaw)
	sb.WriteString("\n\nProblems found:\n")
	for _, f := range failures {
		sb.WriteString("- ")
		sb.WriteString(f.String())
		sb.WriteString("\n")
	}
	sb.WriteString("\nCorrect the response so every field satisfies its constraints.\n\n")
	sb.WriteString("ONLY return a valid JSON object matching this skeleton and no other text:\n\n")
	sb.WriteString(c.schema.Render())

	return c.finish(sb.String())
}

// finish applies the token budget, if configured.
func (c *Composer) finish(text string) (string, error) {
	if c.counter == nil || c.budget <= 0 {
		return text, nil
	}
	n, err := c.counter.CountTokens(text)
	if err != nil {
		return "", fmt.Errorf("prompt: count tokens: %w", err)
	}
	if n > c.budget {
		return "", &BudgetError{Tokens: n, Budget: c.budget}
	}
	return text, nil
}
