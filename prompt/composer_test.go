package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marwan116/structured-output-llm/schema"
	"github.com/marwan116/structured-output-llm/validator"
)

func patientSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.NewBuilder().
		String("gender", "Patient's gender").
		Int("age", "Patient's age", validator.NewValidRange(0, 120, validator.OnFailFix)).
		Build()
	require.NoError(t, err)
	return s
}

// wordCounter is a deterministic stand-in for tiktoken in tests.
type wordCounter struct{}

func (wordCounter) CountTokens(text string) (int, error) {
	return len(strings.Fields(text)), nil
}

func TestComposeContainsAllSections(t *testing.T) {
	c := NewComposer(patientSchema(t))

	prompt, err := c.Compose("Extract the patient details from the admission note.")
	require.NoError(t, err)

	assert.Contains(t, prompt, DefaultInstructions)
	assert.Contains(t, prompt, "Extract the patient details from the admission note.")
	assert.Contains(t, prompt, `"gender"`)
	assert.Contains(t, prompt, `"age"`)
	assert.Contains(t, prompt, "value must be between 0 and 120")
	assert.Contains(t, prompt, "ONLY return a valid JSON object")
}

func TestComposeIsDeterministic(t *testing.T) {
	c := NewComposer(patientSchema(t))

	first, err := c.Compose("same query")
	require.NoError(t, err)
	second, err := c.Compose("same query")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComposeCustomInstructions(t *testing.T) {
	c := NewComposer(patientSchema(t), WithInstructions("Answer tersely."))

	prompt, err := c.Compose("query")
	require.NoError(t, err)

	assert.Contains(t, prompt, "Answer tersely.")
	assert.NotContains(t, prompt, DefaultInstructions)
}

func TestComposeReaskRestatesQueryAndFailures(t *testing.T) {
	c := NewComposer(patientSchema(t))

	failures := []validator.Failure{
		{
			Field:     "age",
			Validator: "valid_range",
			Action:    validator.OnFailReask,
			Reason:    "value -2 is outside range [0, 120]",
		},
	}

	prompt, err := c.ComposeReask("Extract the patient details.", `{"gender": "male", "age": -2}`, failures)
	require.NoError(t, err)

	// The original query is restated so a stateless transport still
	// carries full context.
	assert.Contains(t, prompt, "Extract the patient details.")
	assert.Contains(t, prompt, `{"gender": "male", "age": -2}`)
	assert.Contains(t, prompt, "age: value -2 is outside range [0, 120] (valid_range)")
	assert.Contains(t, prompt, `"gender"`)
}

func TestComposeTokenBudget(t *testing.T) {
	s := patientSchema(t)

	t.Run("within budget", func(t *testing.T) {
		c := NewComposer(s, WithTokenBudget(wordCounter{}, 10000))
		_, err := c.Compose("short query")
		assert.NoError(t, err)
	})

	t.Run("over budget", func(t *testing.T) {
		c := NewComposer(s, WithTokenBudget(wordCounter{}, 5))
		_, err := c.Compose("this query is definitely longer than five words")
		require.Error(t, err)

		var budgetErr *BudgetError
		require.ErrorAs(t, err, &budgetErr)
		assert.Equal(t, 5, budgetErr.Budget)
		assert.Greater(t, budgetErr.Tokens, 5)
	})
}

func TestNewTiktokenCounterEncodingSelection(t *testing.T) {
	tests := []struct {
		model    string
		encoding string
	}{
		{"gpt-4o", "o200k_base"},
		{"gpt-4o-2024-08-06", "o200k_base"},
		{"gpt-3.5-turbo", "cl100k_base"},
		{"some-unknown-model", "cl100k_base"},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			c := NewTiktokenCounter(tt.model)
			assert.Equal(t, tt.encoding, c.encoding)
		})
	}
}
