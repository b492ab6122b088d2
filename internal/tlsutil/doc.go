// Copyright 2026 Structured Output LLM Authors
// Use of this source code is governed by the project license.

// Package tlsutil centralizes hardened TLS settings for outbound HTTP
// clients.
package tlsutil
