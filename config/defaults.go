package config

import "time"

// DefaultConfig returns the configuration used when nothing overrides
// it. The defaults run entirely in process: no Redis, no database, no
// telemetry export.
func DefaultConfig() *Config {
	return &Config{
		Guard: GuardConfig{
			MaxReasks:   1,
			Model:       "gpt-4o-mini",
			Temperature: 0,
			Timeout:     60 * time.Second,
		},
		LLM: LLMConfig{
			Provider:       "openai",
			BaseURL:        "https://api.openai.com/v1",
			Timeout:        30 * time.Second,
			RateLimitRPS:   0,
			RateLimitBurst: 1,
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			DB:       0,
			PoolSize: 10,
		},
		Database: DatabaseConfig{
			Driver:  "",
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		Cache: CacheConfig{
			Enabled:  true,
			MaxSize:  1000,
			LocalTTL: 5 * time.Minute,
			RedisTTL: time.Hour,
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "console",
			OutputPaths: []string{"stderr"},
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "structured-output-llm",
			SampleRate:  1.0,
		},
	}
}
