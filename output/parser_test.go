package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marwan116/structured-output-llm/schema"
)

func answerSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.NewBuilder().
		Int("value", "The answer").
		Build()
	require.NoError(t, err)
	return s
}

func patientSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.NewBuilder().
		String("gender", "Patient's gender").
		Int("age", "Patient's age").
		Build()
	require.NoError(t, err)
	return s
}

func TestParsePlainObject(t *testing.T) {
	res, err := Parse(`{"gender": "male", "age": 49}`, patientSchema(t))
	require.NoError(t, err)

	assert.Equal(t, "male", res.Values["gender"])
	assert.Equal(t, 49, res.Values["age"])
	assert.Empty(t, res.Issues)
}

func TestParseQuotedNumberCoercion(t *testing.T) {
	// Models frequently quote numeric values.
	res, err := Parse(`{"value": "-2"}`, answerSchema(t))
	require.NoError(t, err)

	v, ok := res.Value("value")
	require.True(t, ok)
	assert.Equal(t, -2, v)
}

func TestParseMarkdownFence(t *testing.T) {
	raw := "Here is the extraction:\n```json\n{\"gender\": \"female\", \"age\": 33}\n```\nLet me know if you need more."

	res, err := Parse(raw, patientSchema(t))
	require.NoError(t, err)

	assert.Equal(t, "female", res.Values["gender"])
	assert.Equal(t, 33, res.Values["age"])
	assert.Equal(t, raw, res.Raw)
}

func TestParseSurroundingProse(t *testing.T) {
	raw := `Sure! The patient record is {"gender": "male", "age": 60} as requested.`

	res, err := Parse(raw, patientSchema(t))
	require.NoError(t, err)
	assert.Equal(t, 60, res.Values["age"])
}

func TestParsePartialRecovery(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantField string
		wantIssue string
	}{
		{
			name:      "missing field",
			raw:       `{"gender": "male"}`,
			wantField: "gender",
			wantIssue: "age",
		},
		{
			name:      "uncoercible field",
			raw:       `{"gender": "male", "age": "forty-nine"}`,
			wantField: "gender",
			wantIssue: "age",
		},
		{
			name:      "null field",
			raw:       `{"gender": "male", "age": null}`,
			wantField: "gender",
			wantIssue: "age",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Parse(tt.raw, patientSchema(t))
			require.NoError(t, err, "one bad field must not discard its siblings")

			_, ok := res.Value(tt.wantField)
			assert.True(t, ok)
			_, ok = res.Value(tt.wantIssue)
			assert.False(t, ok)

			require.Len(t, res.Issues, 1)
			assert.Equal(t, tt.wantIssue, res.Issues[0].Field)
		})
	}
}

func TestParseTotalFailure(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "I'm sorry, I can't help with that."},
		{"empty", ""},
		{"all fields missing", `{"unrelated": 1}`},
		{"json array", `[1, 2, 3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw, patientSchema(t))
			require.Error(t, err)

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.raw, parseErr.Raw)
			assert.NotEmpty(t, parseErr.Issues)
		})
	}
}

func TestCoerceTypes(t *testing.T) {
	s, err := schema.NewBuilder().
		Int("count", "").
		Float("ratio", "").
		String("label", "").
		Bool("active", "").
		Build()
	require.NoError(t, err)

	res, err := Parse(`{"count": "7", "ratio": "0.5", "label": 12, "active": "true"}`, s)
	require.NoError(t, err)

	assert.Equal(t, 7, res.Values["count"])
	assert.Equal(t, 0.5, res.Values["ratio"])
	assert.Equal(t, "12", res.Values["label"])
	assert.Equal(t, true, res.Values["active"])
}

func TestCoerceIntegralFloat(t *testing.T) {
	res, err := Parse(`{"value": 3.0}`, answerSchema(t))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Values["value"])

	_, err = Parse(`{"value": 3.5}`, answerSchema(t))
	require.Error(t, err)
}

func TestLargeIntPreserved(t *testing.T) {
	// json.Number keeps int64 precision that float64 decoding would lose.
	s := answerSchema(t)
	res, err := Parse(`{"value": 9007199254740993}`, s)
	require.NoError(t, err)
	assert.Equal(t, 9007199254740993, res.Values["value"])
}
