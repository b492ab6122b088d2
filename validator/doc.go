// Copyright 2026 Structured Output LLM Authors
// Use of this source code is governed by the project license.

/*
Package validator provides per-field constraint predicates with attached
corrective actions.

A Validator is a pure predicate over a single decoded field value. Each
validator carries an OnFail action that tells the orchestrator how to react
when the predicate fails: re-ask the model, apply a deterministic fix,
filter the field, refrain from answering, record and continue, or raise.

# Core types

  - Validator: predicate interface with Name / OnFail / Validate
  - OnFail: closed set of corrective actions (reask, fix, filter,
    refrain, noop, exception, fix_reask)
  - Result: pass, or fail with a reason and an optional corrected value
  - Failure: one recorded validator failure on one field
  - Registry: name-keyed validator factories for tag- and config-driven
    schema construction

# Built-in validators

  - ValidRange: numeric bounds; fix clamps to the nearest bound
  - ValidChoices: enumerated values
  - ValidLength: string rune-length bounds; fix truncates
  - ValidPattern: regular expression match
  - LowerCase: lower-case strings; fix lowercases

Validators are immutable after construction and safe to share across
concurrent runs.
*/
package validator
