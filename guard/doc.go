// Copyright 2026 Structured Output LLM Authors
// Use of this source code is governed by the project license.

// Package guard drives schema-constrained LLM generation with
// corrective re-asking.
//
// A run composes a prompt from a schema and a query, calls the model,
// parses the raw output into typed fields, and validates each field.
// Every validator carries a corrective action that decides what a
// failure triggers: replace the value with a correction (fix), ask the
// model again with the violations spelled out (reask), drop the field
// (filter), discard the whole result (refrain), keep the invalid value
// annotated (noop), or terminate the run (exception).
//
// Re-asking is budgeted: a guard with n re-asks makes at most n+1 model
// calls. Spending the whole budget is not an error; the outcome simply
// reports what stayed unresolved.
//
//	g, err := guard.New(s, provider,
//	    guard.WithModel("gpt-4o-mini"),
//	    guard.WithMaxReasks(2),
//	)
//	outcome, err := g.Run(ctx, "How many moons does Jupiter have?")
package guard
