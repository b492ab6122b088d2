package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marwan116/structured-output-llm/validator"
)

func TestBuilderBuild(t *testing.T) {
	s, err := NewBuilder().
		String("gender", "Patient's gender").
		Int("age", "Patient's age", validator.NewValidRange(0, 120, validator.OnFailFix)).
		Float("weight_kg", "").
		Bool("smoker", "Whether the patient smokes").
		Build()
	require.NoError(t, err)

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, []string{"gender", "age", "weight_kg", "smoker"}, s.Names())

	age, ok := s.Field("age")
	require.True(t, ok)
	assert.Equal(t, TypeInteger, age.Type)
	assert.Len(t, age.Validators, 1)

	_, ok = s.Field("height")
	assert.False(t, ok)
}

func TestBuilderBuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder *Builder
		wantMsg string
	}{
		{
			name:    "empty schema",
			builder: NewBuilder(),
			wantMsg: "no fields",
		},
		{
			name:    "empty field name",
			builder: NewBuilder().String("", "nameless"),
			wantMsg: "empty",
		},
		{
			name:    "duplicate field name",
			builder: NewBuilder().String("x", "").Int("x", ""),
			wantMsg: "duplicate",
		},
		{
			name:    "unknown type tag",
			builder: NewBuilder().Field("x", FieldType("decimal"), ""),
			wantMsg: "unknown type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			require.Error(t, err)

			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestSchemaFieldsReturnsCopy(t *testing.T) {
	s, err := NewBuilder().String("a", "").String("b", "").Build()
	require.NoError(t, err)

	fields := s.Fields()
	fields[0].Name = "mutated"

	again := s.Fields()
	assert.Equal(t, "a", again[0].Name)
}

func TestSchemaRender(t *testing.T) {
	s, err := NewBuilder().
		String("gender", "Patient's gender").
		Int("age", "Patient's age", validator.NewValidRange(0, 120, validator.OnFailFix)).
		Build()
	require.NoError(t, err)

	rendered := s.Render()

	assert.True(t, strings.HasPrefix(rendered, "{"))
	assert.True(t, strings.HasSuffix(rendered, "}"))
	assert.Contains(t, rendered, `"gender": "<string: Patient's gender>"`)
	assert.Contains(t, rendered, `"age": "<integer: Patient's age; value must be between 0 and 120>"`)

	// Declaration order survives rendering.
	assert.Less(t, strings.Index(rendered, "gender"), strings.Index(rendered, "age"))
}

func TestFromStruct(t *testing.T) {
	type PatientInfo struct {
		Gender string `json:"gender" guard:"desc=Patient's gender"`
		Age    int    `json:"age" guard:"desc=Patient's age,range=0:120,onfail=fix"`
	}

	s, err := FromStruct(PatientInfo{})
	require.NoError(t, err)

	assert.Equal(t, []string{"gender", "age"}, s.Names())

	gender, ok := s.Field("gender")
	require.True(t, ok)
	assert.Equal(t, TypeString, gender.Type)
	assert.Equal(t, "Patient's gender", gender.Description)
	assert.Empty(t, gender.Validators)

	age, ok := s.Field("age")
	require.True(t, ok)
	assert.Equal(t, TypeInteger, age.Type)
	require.Len(t, age.Validators, 1)
	assert.Equal(t, "valid_range", age.Validators[0].Name())
	assert.Equal(t, validator.OnFailFix, age.Validators[0].OnFail())
}

func TestFromStructPointerAndSkips(t *testing.T) {
	type record struct {
		Value   *float64 `json:"value" guard:"desc=A measurement"`
		Ignored string   `json:"-"`
		hidden  int      //nolint:unused
	}

	s, err := FromStruct(&record{})
	require.NoError(t, err)
	assert.Equal(t, []string{"value"}, s.Names())

	value, ok := s.Field("value")
	require.True(t, ok)
	assert.Equal(t, TypeFloat, value.Type)
}

func TestFromStructAllTagValidators(t *testing.T) {
	type form struct {
		Status   string `json:"status" guard:"choices=open|closed|pending,onfail=reask"`
		Summary  string `json:"summary" guard:"length=1:200,onfail=fix"`
		Username string `json:"username" guard:"pattern=^[a-z0-9_]+$,lower,onfail=exception"`
	}

	s, err := FromStruct(form{})
	require.NoError(t, err)

	status, _ := s.Field("status")
	require.Len(t, status.Validators, 1)
	assert.Equal(t, "valid_choices", status.Validators[0].Name())
	assert.Equal(t, validator.OnFailReask, status.Validators[0].OnFail())

	summary, _ := s.Field("summary")
	require.Len(t, summary.Validators, 1)
	assert.Equal(t, "valid_length", summary.Validators[0].Name())

	username, _ := s.Field("username")
	require.Len(t, username.Validators, 2)
	assert.Equal(t, "valid_pattern", username.Validators[0].Name())
	assert.Equal(t, "lower_case", username.Validators[1].Name())
}

func TestFromStructDescriptionWithComma(t *testing.T) {
	type note struct {
		Body string `json:"body" guard:"desc=Short, plain-text note,length=0:80,onfail=fix"`
	}

	s, err := FromStruct(note{})
	require.NoError(t, err)

	body, _ := s.Field("body")
	assert.Equal(t, "Short, plain-text note", body.Description)
	require.Len(t, body.Validators, 1)
	assert.Equal(t, "valid_length", body.Validators[0].Name())
}

func TestFromStructErrors(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		_, err := FromStruct(nil)
		assert.Error(t, err)
	})

	t.Run("non-struct", func(t *testing.T) {
		_, err := FromStruct(42)
		assert.Error(t, err)
	})

	t.Run("unsupported field kind", func(t *testing.T) {
		type bad struct {
			Tags []string `json:"tags"`
		}
		_, err := FromStruct(bad{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported field kind")
	})

	t.Run("bad range bounds", func(t *testing.T) {
		type bad struct {
			Age int `json:"age" guard:"range=0,onfail=fix"`
		}
		_, err := FromStruct(bad{})
		assert.Error(t, err)
	})

	t.Run("bad onfail", func(t *testing.T) {
		type bad struct {
			Age int `json:"age" guard:"range=0:10,onfail=explode"`
		}
		_, err := FromStruct(bad{})
		assert.Error(t, err)
	})
}
