// Copyright 2026 Structured Output LLM Authors
// Use of this source code is governed by the project license.

// Package llm defines the provider-agnostic completion interface, the
// unified error taxonomy, and the middleware chain that wraps provider
// calls with logging, timeouts, rate limiting, metrics, and response
// caching.
//
// A Provider turns a ChatRequest into a ChatResponse. Cross-cutting
// behavior is layered on with a Chain:
//
//	handler := llm.NewChain(
//	    llm.RecoveryMiddleware(logger),
//	    llm.LoggingMiddleware(logger),
//	    llm.TimeoutMiddleware(30*time.Second),
//	).Then(llm.ProviderHandler(provider))
package llm
