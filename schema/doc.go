// Copyright 2026 Structured Output LLM Authors
// Use of this source code is governed by the project license.

// Package schema declares the expected shape of model output: an
// ordered sequence of named, typed fields, each carrying an optional
// description and a list of validators.
//
// Schemas are immutable once built and safe to share across concurrent
// generation runs. Construct one programmatically with a Builder:
//
//	s, err := schema.NewBuilder().
//	    String("gender", "Patient's gender").
//	    Int("age", "Patient's age", validator.NewValidRange(0, 120, validator.OnFailFix)).
//	    Build()
//
// or derive one from an annotated struct with FromStruct.
package schema
