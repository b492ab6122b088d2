// Copyright 2026 Structured Output LLM Authors
// Use of this source code is governed by the project license.

// Package history persists run transcripts: every prompt sent, every
// raw response received, and the validation failures each attempt
// produced. Backends: in-memory for tests, SQLite and Postgres via
// GORM for durable audit trails.
package history
