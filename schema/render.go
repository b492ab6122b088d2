package schema

import (
	"strings"
)

// Describer is implemented by validators that can explain their
// constraint in prose for prompt rendering.
type Describer interface {
	Describe() string
}

// Render produces a deterministic, machine-readable rendering of the
// schema for embedding in prompts: a JSON skeleton whose values describe
// each field's type, description, and constraints, in declaration order.
func (s *Schema) Render() string {
	var sb strings.Builder

	sb.WriteString("{\n")
	for i, f := range s.fields {
		sb.WriteString("  ")
		sb.WriteString(`"`)
		sb.WriteString(f.Name)
		sb.WriteString(`": "<`)
		sb.WriteString(string(f.Type))
		if f.Description != "" {
			sb.WriteString(": ")
			sb.WriteString(f.Description)
		}
		for _, v := range f.Validators {
			if d, ok := v.(Describer); ok {
				sb.WriteString("; ")
				sb.WriteString(d.Describe())
			}
		}
		sb.WriteString(`>"`)
		if i < len(s.fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}")

	return sb.String()
}
