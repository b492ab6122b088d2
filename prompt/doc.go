// Copyright 2026 Structured Output LLM Authors
// Use of this source code is governed by the project license.

// Package prompt renders deterministic prompts from a schema and a
// user query: the initial ask and the corrective re-ask that restates
// the query, the previous raw output, and the constraint violations.
//
// Composition is pure string assembly. An optional token budget,
// measured with tiktoken, rejects prompts that would not fit the
// target model's context window.
package prompt
