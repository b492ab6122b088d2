// Copyright 2026 Structured Output LLM Authors
// Use of this source code is governed by the project license.

// Package config loads process configuration from defaults, a YAML
// file, and environment variables, in that precedence order.
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("GUARD").
//	    Load()
package config
