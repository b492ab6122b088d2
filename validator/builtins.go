package validator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ValidRange checks that a numeric value falls inside [Min, Max].
// Its correction clamps the value to the nearest bound, preserving the
// input's integer-ness.
type ValidRange struct {
	min    float64
	max    float64
	onFail OnFail
}

// NewValidRange creates a range validator over [min, max].
func NewValidRange(min, max float64, onFail OnFail) *ValidRange {
	if min > max {
		min, max = max, min
	}
	return &ValidRange{min: min, max: max, onFail: onFail}
}

func (v *ValidRange) Name() string   { return "valid_range" }
func (v *ValidRange) OnFail() OnFail { return v.onFail }

// Describe returns a human-readable constraint for prompt rendering.
func (v *ValidRange) Describe() string {
	return fmt.Sprintf("value must be between %v and %v", v.min, v.max)
}

// Validate implements Validator.
func (v *ValidRange) Validate(value any) *Result {
	if value == nil {
		return Fail("no value to validate")
	}
	num, isInt, ok := toNumber(value)
	if !ok {
		return Fail(fmt.Sprintf("expected a number, got %T", value))
	}
	if num >= v.min && num <= v.max {
		return Pass()
	}

	// Clamp to the nearest bound.
	clamped := num
	if num < v.min {
		clamped = v.min
	} else if num > v.max {
		clamped = v.max
	}
	reason := fmt.Sprintf("value %v is outside range [%v, %v]", trimNumber(num, isInt), v.min, v.max)
	if isInt {
		return FailWithFix(reason, int(clamped))
	}
	return FailWithFix(reason, clamped)
}

// ValidChoices checks that a value is one of an enumerated set.
type ValidChoices struct {
	choices []any
	onFail  OnFail
}

// NewValidChoices creates a choice validator over the given values.
func NewValidChoices(choices []any, onFail OnFail) *ValidChoices {
	copied := make([]any, len(choices))
	copy(copied, choices)
	return &ValidChoices{choices: copied, onFail: onFail}
}

func (v *ValidChoices) Name() string   { return "valid_choices" }
func (v *ValidChoices) OnFail() OnFail { return v.onFail }

// Describe returns a human-readable constraint for prompt rendering.
func (v *ValidChoices) Describe() string {
	parts := make([]string, len(v.choices))
	for i, c := range v.choices {
		parts[i] = fmt.Sprintf("%v", c)
	}
	return "value must be one of: " + strings.Join(parts, ", ")
}

// Validate implements Validator.
func (v *ValidChoices) Validate(value any) *Result {
	if value == nil {
		return Fail("no value to validate")
	}
	for _, choice := range v.choices {
		if equalValues(value, choice) {
			return Pass()
		}
	}
	return Fail(fmt.Sprintf("value %v is not one of %v", value, v.choices))
}

// ValidLength checks string length in runes against [Min, Max].
// Its correction truncates over-long strings to Max; under-long strings
// cannot be corrected.
type ValidLength struct {
	min    int
	max    int
	onFail OnFail
}

// NewValidLength creates a length validator over [min, max] runes.
func NewValidLength(min, max int, onFail OnFail) *ValidLength {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	return &ValidLength{min: min, max: max, onFail: onFail}
}

func (v *ValidLength) Name() string   { return "valid_length" }
func (v *ValidLength) OnFail() OnFail { return v.onFail }

// Describe returns a human-readable constraint for prompt rendering.
func (v *ValidLength) Describe() string {
	return fmt.Sprintf("length must be between %d and %d characters", v.min, v.max)
}

// Validate implements Validator.
func (v *ValidLength) Validate(value any) *Result {
	if value == nil {
		return Fail("no value to validate")
	}
	str, ok := value.(string)
	if !ok {
		return Fail(fmt.Sprintf("expected a string, got %T", value))
	}
	// Rune count, not bytes, so multi-byte text measures correctly.
	runes := []rune(str)
	n := len(runes)
	if n < v.min {
		return Fail(fmt.Sprintf("string length %d is less than minimum %d", n, v.min))
	}
	if n > v.max {
		return FailWithFix(
			fmt.Sprintf("string length %d exceeds maximum %d", n, v.max),
			string(runes[:v.max]),
		)
	}
	return Pass()
}

// ValidPattern checks a string against a regular expression.
type ValidPattern struct {
	pattern *regexp.Regexp
	onFail  OnFail
}

// NewValidPattern creates a pattern validator. The pattern is compiled at
// construction; a malformed pattern is a configuration error.
func NewValidPattern(pattern string, onFail OnFail) (*ValidPattern, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return &ValidPattern{pattern: re, onFail: onFail}, nil
}

func (v *ValidPattern) Name() string   { return "valid_pattern" }
func (v *ValidPattern) OnFail() OnFail { return v.onFail }

// Describe returns a human-readable constraint for prompt rendering.
func (v *ValidPattern) Describe() string {
	return fmt.Sprintf("value must match the pattern %q", v.pattern.String())
}

// Validate implements Validator.
func (v *ValidPattern) Validate(value any) *Result {
	if value == nil {
		return Fail("no value to validate")
	}
	str, ok := value.(string)
	if !ok {
		return Fail(fmt.Sprintf("expected a string, got %T", value))
	}
	if v.pattern.MatchString(str) {
		return Pass()
	}
	return Fail(fmt.Sprintf("string does not match pattern %q", v.pattern.String()))
}

// LowerCase checks that a string is entirely lower case. Its correction
// lowercases the value.
type LowerCase struct {
	onFail OnFail
}

// NewLowerCase creates a lower-case validator.
func NewLowerCase(onFail OnFail) *LowerCase {
	return &LowerCase{onFail: onFail}
}

func (v *LowerCase) Name() string   { return "lower_case" }
func (v *LowerCase) OnFail() OnFail { return v.onFail }

// Describe returns a human-readable constraint for prompt rendering.
func (v *LowerCase) Describe() string {
	return "value must be lower case"
}

// Validate implements Validator.
func (v *LowerCase) Validate(value any) *Result {
	if value == nil {
		return Fail("no value to validate")
	}
	str, ok := value.(string)
	if !ok {
		return Fail(fmt.Sprintf("expected a string, got %T", value))
	}
	lowered := strings.ToLower(str)
	if str == lowered {
		return Pass()
	}
	return FailWithFix("string is not lower case", lowered)
}

// toNumber converts a decoded value to float64 and reports whether the
// original carried an integer type.
func toNumber(value any) (num float64, isInt bool, ok bool) {
	switch n := value.(type) {
	case int:
		return float64(n), true, true
	case int32:
		return float64(n), true, true
	case int64:
		return float64(n), true, true
	case float32:
		return float64(n), false, true
	case float64:
		return n, false, true
	default:
		return 0, false, false
	}
}

// equalValues compares two decoded values, treating numbers of different
// widths as equal when their values match.
func equalValues(a, b any) bool {
	aNum, _, aOK := toNumber(a)
	bNum, _, bOK := toNumber(b)
	if aOK && bOK {
		return aNum == bNum
	}
	return a == b
}

func trimNumber(num float64, isInt bool) any {
	if isInt {
		return int(num)
	}
	return num
}

func init() {
	DefaultRegistry.Register("valid_range", func(params map[string]string, onFail OnFail) (Validator, error) {
		min, err := strconv.ParseFloat(params["min"], 64)
		if err != nil {
			return nil, fmt.Errorf("valid_range: bad min %q", params["min"])
		}
		max, err := strconv.ParseFloat(params["max"], 64)
		if err != nil {
			return nil, fmt.Errorf("valid_range: bad max %q", params["max"])
		}
		return NewValidRange(min, max, onFail), nil
	})
	DefaultRegistry.Register("valid_choices", func(params map[string]string, onFail OnFail) (Validator, error) {
		raw, ok := params["choices"]
		if !ok || raw == "" {
			return nil, fmt.Errorf("valid_choices: missing choices")
		}
		parts := strings.Split(raw, "|")
		choices := make([]any, len(parts))
		for i, p := range parts {
			choices[i] = strings.TrimSpace(p)
		}
		return NewValidChoices(choices, onFail), nil
	})
	DefaultRegistry.Register("valid_length", func(params map[string]string, onFail OnFail) (Validator, error) {
		min := 0
		if raw, ok := params["min"]; ok {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("valid_length: bad min %q", raw)
			}
			min = v
		}
		max, err := strconv.Atoi(params["max"])
		if err != nil {
			return nil, fmt.Errorf("valid_length: bad max %q", params["max"])
		}
		return NewValidLength(min, max, onFail), nil
	})
	DefaultRegistry.Register("valid_pattern", func(params map[string]string, onFail OnFail) (Validator, error) {
		return NewValidPattern(params["pattern"], onFail)
	})
	DefaultRegistry.Register("lower_case", func(params map[string]string, onFail OnFail) (Validator, error) {
		return NewLowerCase(onFail), nil
	})
}
