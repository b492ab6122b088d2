package output

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/marwan116/structured-output-llm/schema"
)

// Issue records one field that could not be recovered from raw output:
// absent from the payload, or present with an uncoercible value.
type Issue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ParseError reports raw output from which no schema field could be
// recovered. It is a per-attempt failure, not a terminal one: the
// caller may re-ask for the entire payload.
type ParseError struct {
	Raw    string
	Issues []Issue
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("output: no schema field could be recovered (%d issues)", len(e.Issues))
}

// Result is the structured view of one raw model response. Values holds
// the coerced value for every recovered field; fields listed in Issues
// have no entry.
type Result struct {
	Values map[string]any
	Raw    string
	Issues []Issue
}

// Value returns the coerced value for a field and whether it was
// recovered.
func (r *Result) Value(name string) (any, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// Parse extracts a JSON object from raw model output and coerces each
// schema field to its declared type. Parsing is best-effort per field:
// one bad field never discards its siblings. It fails with *ParseError
// only when not a single field is recoverable.
func Parse(raw string, s *schema.Schema) (*Result, error) {
	result := &Result{
		Values: make(map[string]any),
		Raw:    raw,
	}

	payload, err := decodeObject(extractJSON(raw))
	if err != nil {
		for _, name := range s.Names() {
			result.Issues = append(result.Issues, Issue{Field: name, Reason: err.Error()})
		}
		return nil, &ParseError{Raw: raw, Issues: result.Issues}
	}

	for _, f := range s.Fields() {
		v, ok := payload[f.Name]
		if !ok {
			result.Issues = append(result.Issues, Issue{Field: f.Name, Reason: "field is missing"})
			continue
		}

		coerced, err := coerce(v, f.Type)
		if err != nil {
			result.Issues = append(result.Issues, Issue{Field: f.Name, Reason: err.Error()})
			continue
		}
		result.Values[f.Name] = coerced
	}

	if len(result.Values) == 0 {
		return nil, &ParseError{Raw: raw, Issues: result.Issues}
	}
	return result, nil
}

// extractJSON pulls a JSON object out of a response that may wrap it in
// markdown fences or surrounding prose.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if strings.Contains(response, "```") {
		re := regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")
		if matches := re.FindStringSubmatch(response); len(matches) > 1 {
			response = strings.TrimSpace(matches[1])
		}
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start >= 0 && end > start {
		return response[start : end+1]
	}

	return response
}

// decodeObject decodes a JSON object, preserving number fidelity.
func decodeObject(jsonStr string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(jsonStr))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("not a JSON object: %v", err)
	}
	return payload, nil
}

// coerce converts a decoded JSON value to the field's declared type.
// Models frequently quote numbers and booleans; string forms of the
// target type are accepted.
func coerce(v any, t schema.FieldType) (any, error) {
	if v == nil {
		return nil, fmt.Errorf("value is null")
	}

	switch t {
	case schema.TypeInteger:
		return coerceInt(v)
	case schema.TypeFloat:
		return coerceFloat(v)
	case schema.TypeString:
		return coerceString(v)
	case schema.TypeBoolean:
		return coerceBool(v)
	default:
		return nil, fmt.Errorf("unknown field type %q", t)
	}
}

func coerceInt(v any) (any, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
		if f, err := n.Float64(); err == nil && f == float64(int(f)) {
			return int(f), nil
		}
		return nil, fmt.Errorf("number %s is not an integer", n.String())
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.Atoi(s); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
			return int(f), nil
		}
		return nil, fmt.Errorf("string %q is not an integer", n)
	default:
		return nil, fmt.Errorf("cannot coerce %T to integer", v)
	}
}

func coerceFloat(v any) (any, error) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %s is not a float", n.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil, fmt.Errorf("string %q is not a float", n)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to float", v)
	}
}

func coerceString(v any) (any, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case json.Number:
		return s.String(), nil
	case bool:
		return strconv.FormatBool(s), nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to string", v)
	}
}

func coerceBool(v any) (any, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(b)))
		if err != nil {
			return nil, fmt.Errorf("string %q is not a boolean", b)
		}
		return parsed, nil
	case json.Number:
		switch b.String() {
		case "0":
			return false, nil
		case "1":
			return true, nil
		}
		return nil, fmt.Errorf("number %s is not a boolean", b.String())
	default:
		return nil, fmt.Errorf("cannot coerce %T to boolean", v)
	}
}
