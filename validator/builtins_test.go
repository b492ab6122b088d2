package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidRange_Pass(t *testing.T) {
	v := NewValidRange(0, 10, OnFailFix)

	tests := []struct {
		name  string
		value any
	}{
		{"int inside", 5},
		{"int at min", 0},
		{"int at max", 10},
		{"float inside", 7.5},
		{"int64 inside", int64(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.value)
			assert.True(t, res.Valid)
			assert.Nil(t, res.Fixed)
		})
	}
}

func TestValidRange_ClampBelow(t *testing.T) {
	v := NewValidRange(0, 10, OnFailFix)

	res := v.Validate(-2)
	require.False(t, res.Valid)
	assert.Equal(t, 0, res.Fixed)
	assert.Contains(t, res.Reason, "outside range")
}

func TestValidRange_ClampAbove(t *testing.T) {
	v := NewValidRange(0, 10, OnFailFix)

	res := v.Validate(14)
	require.False(t, res.Valid)
	assert.Equal(t, 10, res.Fixed)
}

func TestValidRange_FloatKeepsFloat(t *testing.T) {
	v := NewValidRange(0, 1, OnFailFix)

	res := v.Validate(1.5)
	require.False(t, res.Valid)
	assert.Equal(t, 1.0, res.Fixed)
}

func TestValidRange_NonNumeric(t *testing.T) {
	v := NewValidRange(0, 10, OnFailReask)

	res := v.Validate("not a number")
	require.False(t, res.Valid)
	assert.Nil(t, res.Fixed)
	assert.Contains(t, res.Reason, "expected a number")
}

func TestValidRange_NilValue(t *testing.T) {
	v := NewValidRange(0, 10, OnFailReask)

	res := v.Validate(nil)
	require.False(t, res.Valid)
	assert.Contains(t, res.Reason, "no value")
}

func TestValidRange_SwappedBounds(t *testing.T) {
	v := NewValidRange(10, 0, OnFailFix)

	assert.True(t, v.Validate(5).Valid)
}

func TestValidChoices(t *testing.T) {
	v := NewValidChoices([]any{"male", "female", "other"}, OnFailReask)

	assert.True(t, v.Validate("male").Valid)
	assert.False(t, v.Validate("unknown").Valid)
	assert.False(t, v.Validate(nil).Valid)
}

func TestValidChoices_NumericWidths(t *testing.T) {
	// Decoded JSON integers may arrive as int or int64 depending on the
	// coercion path; both must match an int choice.
	v := NewValidChoices([]any{1, 2, 3}, OnFailReask)

	assert.True(t, v.Validate(2).Valid)
	assert.True(t, v.Validate(int64(2)).Valid)
	assert.False(t, v.Validate(4).Valid)
}

func TestValidLength(t *testing.T) {
	v := NewValidLength(2, 5, OnFailFix)

	tests := []struct {
		name      string
		value     any
		wantValid bool
		wantFixed any
	}{
		{"inside", "abc", true, nil},
		{"at min", "ab", true, nil},
		{"at max", "abcde", true, nil},
		{"too long truncates", "abcdefg", false, "abcde"},
		{"too short has no fix", "a", false, nil},
		{"not a string", 3, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.value)
			assert.Equal(t, tt.wantValid, res.Valid)
			assert.Equal(t, tt.wantFixed, res.Fixed)
		})
	}
}

func TestValidLength_RuneCounting(t *testing.T) {
	v := NewValidLength(0, 2, OnFailFix)

	res := v.Validate("日本語")
	require.False(t, res.Valid)
	assert.Equal(t, "日本", res.Fixed)
}

func TestValidPattern(t *testing.T) {
	v, err := NewValidPattern(`^[a-z]+$`, OnFailReask)
	require.NoError(t, err)

	assert.True(t, v.Validate("abc").Valid)
	assert.False(t, v.Validate("Abc").Valid)
	assert.False(t, v.Validate(42).Valid)
}

func TestValidPattern_BadPattern(t *testing.T) {
	_, err := NewValidPattern(`([`, OnFailReask)
	assert.Error(t, err)
}

func TestLowerCase(t *testing.T) {
	v := NewLowerCase(OnFailFix)

	assert.True(t, v.Validate("hello").Valid)

	res := v.Validate("Hello")
	require.False(t, res.Valid)
	assert.Equal(t, "hello", res.Fixed)
}

func TestParseOnFail(t *testing.T) {
	for _, s := range []string{"reask", "fix", "filter", "refrain", "noop", "exception", "fix_reask"} {
		f, err := ParseOnFail(s)
		require.NoError(t, err)
		assert.Equal(t, OnFail(s), f)
	}

	_, err := ParseOnFail("explode")
	assert.Error(t, err)
}

func TestRegistry_BuildBuiltins(t *testing.T) {
	v, err := DefaultRegistry.Build("valid_range", map[string]string{"min": "0", "max": "10"}, OnFailFix)
	require.NoError(t, err)
	assert.Equal(t, "valid_range", v.Name())
	assert.Equal(t, OnFailFix, v.OnFail())

	res := v.Validate(-2)
	require.False(t, res.Valid)
	assert.Equal(t, 0, res.Fixed)
}

func TestRegistry_BuildChoices(t *testing.T) {
	v, err := DefaultRegistry.Build("valid_choices", map[string]string{"choices": "red|green|blue"}, OnFailReask)
	require.NoError(t, err)
	assert.True(t, v.Validate("green").Valid)
	assert.False(t, v.Validate("yellow").Valid)
}

func TestRegistry_UnknownName(t *testing.T) {
	_, err := DefaultRegistry.Build("no_such_validator", nil, OnFailNoOp)
	assert.Error(t, err)
}

func TestRegistry_BadParams(t *testing.T) {
	_, err := DefaultRegistry.Build("valid_range", map[string]string{"min": "x", "max": "10"}, OnFailFix)
	assert.Error(t, err)

	_, err = DefaultRegistry.Build("valid_choices", map[string]string{}, OnFailReask)
	assert.Error(t, err)
}
