package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// For any bounds and any input, a failing ValidRange always supplies a
// correction, and that correction passes the same validator.
func TestProperty_ValidRange_FixSatisfiesConstraint(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		min := rapid.Float64Range(-1e6, 1e6).Draw(rt, "min")
		max := rapid.Float64Range(min, 1e6).Draw(rt, "max")
		v := NewValidRange(min, max, OnFailFix)

		value := rapid.Float64Range(-2e6, 2e6).Draw(rt, "value")
		res := v.Validate(value)

		if res.Valid {
			assert.GreaterOrEqual(rt, value, min)
			assert.LessOrEqual(rt, value, max)
			return
		}

		require.NotNil(rt, res.Fixed, "fix-policy range validator must supply a correction")
		fixed := v.Validate(res.Fixed)
		assert.True(rt, fixed.Valid, "corrected value must satisfy the constraint")
	})
}

// Integer inputs must be corrected to integers so the coerced field type
// survives the fix.
func TestProperty_ValidRange_IntInputYieldsIntFix(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		min := rapid.IntRange(-1000, 1000).Draw(rt, "min")
		max := rapid.IntRange(min, 1000).Draw(rt, "max")
		v := NewValidRange(float64(min), float64(max), OnFailFix)

		value := rapid.IntRange(-5000, 5000).Draw(rt, "value")
		res := v.Validate(value)
		if res.Valid {
			return
		}

		_, isInt := res.Fixed.(int)
		assert.True(rt, isInt, "fix for int input should be int, got %T", res.Fixed)
	})
}

// Truncation always yields a string that passes the same length validator.
func TestProperty_ValidLength_TruncationSatisfiesConstraint(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		max := rapid.IntRange(1, 50).Draw(rt, "max")
		v := NewValidLength(0, max, OnFailFix)

		value := rapid.String().Draw(rt, "value")
		res := v.Validate(value)
		if res.Valid {
			return
		}

		require.NotNil(rt, res.Fixed)
		assert.True(rt, v.Validate(res.Fixed).Valid)
	})
}
