// guardcli runs one schema-constrained generation from the command line.
//
// Usage:
//
//	guardcli run --schema schema.json --query "How many moons does Jupiter have?"
//	guardcli run --config config.yaml --schema schema.json --query "..."
//	guardcli version
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/marwan116/structured-output-llm/config"
	"github.com/marwan116/structured-output-llm/guard"
	"github.com/marwan116/structured-output-llm/history"
	"github.com/marwan116/structured-output-llm/internal/metrics"
	"github.com/marwan116/structured-output-llm/internal/telemetry"
	"github.com/marwan116/structured-output-llm/llm"
	"github.com/marwan116/structured-output-llm/prompt"
	"github.com/marwan116/structured-output-llm/providers/openai"
	"github.com/marwan116/structured-output-llm/schema"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runGuard(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runGuard(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file (YAML)")
	schemaPath := fs.String("schema", "", "Path to schema file (JSON)")
	query := fs.String("query", "", "Query to run")
	maxReasks := fs.Int("max-reasks", -1, "Override the configured re-ask budget")
	fs.Parse(args)

	if *schemaPath == "" || *query == "" {
		fmt.Fprintln(os.Stderr, "run requires --schema and --query")
		os.Exit(1)
	}

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.Log.BuildLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Debug("starting",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if otelProviders != nil {
			if err := otelProviders.Shutdown(ctx); err != nil {
				logger.Warn("telemetry shutdown failed", zap.Error(err))
			}
		}
	}()

	s, err := schema.FromFile(*schemaPath, nil)
	if err != nil {
		logger.Fatal("failed to load schema", zap.Error(err))
	}

	g, err := buildGuard(cfg, s, *maxReasks, logger)
	if err != nil {
		logger.Fatal("failed to build guard", zap.Error(err))
	}

	ctx := context.Background()
	outcome, err := g.Run(ctx, *query)
	if err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}

	printOutcome(outcome)
	if !outcome.Valid() {
		os.Exit(2)
	}
}

func buildGuard(cfg *config.Config, s *schema.Schema, maxReasks int, logger *zap.Logger) (*guard.Guard, error) {
	collector := metrics.NewCollector("guard", logger)

	provider := openai.New(openai.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.Guard.Model,
		Timeout: cfg.LLM.Timeout,
	}, logger)

	middlewares := []llm.Middleware{
		llm.RecoveryMiddleware(logger),
		llm.LoggingMiddleware(logger),
		llm.MetricsMiddleware(collector),
	}
	if cfg.Guard.Timeout > 0 {
		middlewares = append(middlewares, llm.TimeoutMiddleware(cfg.Guard.Timeout))
	}
	if cfg.LLM.RateLimitRPS > 0 {
		burst := cfg.LLM.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		limiter := rate.NewLimiter(rate.Limit(cfg.LLM.RateLimitRPS), burst)
		middlewares = append(middlewares, llm.RateLimitMiddleware(limiter))
	}
	if cfg.Cache.Enabled {
		middlewares = append(middlewares, llm.CacheMiddleware(buildCache(cfg, logger)))
	}

	store, err := buildHistory(cfg)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	budget := cfg.Guard.MaxReasks
	if maxReasks >= 0 {
		budget = maxReasks
	}

	opts := []guard.Option{
		guard.WithModel(cfg.Guard.Model),
		guard.WithTemperature(float32(cfg.Guard.Temperature)),
		guard.WithMaxTokens(cfg.Guard.MaxTokens),
		guard.WithMaxReasks(budget),
		guard.WithLogger(logger),
		guard.WithHistory(store),
		guard.WithMetrics(collector),
		guard.WithMiddleware(middlewares...),
	}
	if cfg.Guard.PromptTokenBudget > 0 {
		counter := prompt.NewTiktokenCounter(cfg.Guard.Model)
		opts = append(opts, guard.WithComposerOptions(
			prompt.WithTokenBudget(counter, cfg.Guard.PromptTokenBudget)))
	}

	return guard.New(s, provider, opts...)
}

func buildCache(cfg *config.Config, logger *zap.Logger) *llm.MultiLevelCache {
	cacheCfg := llm.DefaultCacheConfig()
	cacheCfg.EnableRedis = cfg.Redis.Enabled
	if cfg.Cache.MaxSize > 0 {
		cacheCfg.LocalMaxSize = cfg.Cache.MaxSize
	}
	if cfg.Cache.LocalTTL > 0 {
		cacheCfg.LocalTTL = cfg.Cache.LocalTTL
	}
	if cfg.Cache.RedisTTL > 0 {
		cacheCfg.RedisTTL = cfg.Cache.RedisTTL
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
	}
	return llm.NewMultiLevelCache(rdb, cacheCfg, logger)
}

func buildHistory(cfg *config.Config) (history.Store, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		return history.OpenSQLite(cfg.Database.Name)
	case "postgres":
		return history.OpenPostgres(cfg.Database.DSN())
	default:
		return history.NewMemoryStore(), nil
	}
}

func printOutcome(outcome *guard.Outcome) {
	type output struct {
		RunID      string         `json:"run_id"`
		Valid      bool           `json:"valid"`
		Refrained  bool           `json:"refrained,omitempty"`
		Attempts   int            `json:"attempts"`
		Values     map[string]any `json:"values"`
		Unresolved []string       `json:"unresolved,omitempty"`
		Raw        string         `json:"raw"`
	}

	out := output{
		RunID:     outcome.RunID,
		Valid:     outcome.Valid(),
		Refrained: outcome.Refrained,
		Attempts:  outcome.Attempts,
		Values:    outcome.Values,
		Raw:       outcome.Raw,
	}
	for _, f := range outcome.Unresolved {
		out.Unresolved = append(out.Unresolved, f.String())
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}

func printVersion() {
	fmt.Printf("guardcli %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`guardcli - schema-constrained LLM generation

Usage:
  guardcli <command> [options]

Commands:
  run       Run one guarded query
  version   Show version information
  help      Show this help message

Options for 'run':
  --config <path>    Path to configuration file (YAML)
  --schema <path>    Path to schema file (JSON), required
  --query <text>     Query to run, required
  --max-reasks <n>   Override the configured re-ask budget

Exit codes:
  0  all fields valid
  2  finished with unresolved fields or refrained

Examples:
  guardcli run --schema schema.json --query "How many moons does Jupiter have?"
  GUARD_LLM_API_KEY=sk-... guardcli run --config config.yaml --schema schema.json --query "..."`)
}
