// Copyright 2026 Structured Output LLM Authors
// Use of this source code is governed by the project license.

// Package output turns raw model text into typed field values. It
// tolerates the usual model habits: markdown fences, surrounding
// prose, quoted numbers.
//
// Recovery is best-effort per field. A field that is missing or
// uncoercible becomes an Issue; only a payload with zero recoverable
// fields is a *ParseError.
package output
