// Copyright 2026 Structured Output LLM Authors
// Use of this source code is governed by the project license.

// Package openai implements the llm.Provider interface over the OpenAI
// chat completions API. Pointing BaseURL at any backend that speaks the
// same wire format makes it work there too.
package openai
