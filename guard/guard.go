package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/marwan116/structured-output-llm/history"
	"github.com/marwan116/structured-output-llm/llm"
	"github.com/marwan116/structured-output-llm/output"
	"github.com/marwan116/structured-output-llm/prompt"
	"github.com/marwan116/structured-output-llm/schema"
	"github.com/marwan116/structured-output-llm/validator"
)

const tracerName = "github.com/marwan116/structured-output-llm/guard"

// Metrics receives run-level measurements. The internal Prometheus
// collector satisfies it; a nil Guard metrics sink drops everything.
type Metrics interface {
	RecordRun(status string, duration time.Duration, reasks, unresolved int)
	RecordValidatorFailure(validator, action string)
}

// Guard drives schema-constrained generation: compose, call the model,
// parse, validate, and re-ask within a bounded budget.
// A Guard is immutable after New and safe for concurrent runs.
type Guard struct {
	schema    *schema.Schema
	composer  *prompt.Composer
	handler   llm.Handler
	maxReasks int

	model       string
	temperature float32
	maxTokens   int

	logger       *zap.Logger
	hist         history.Store
	metrics      Metrics
	tracer       trace.Tracer
	composerOpts []prompt.Option
}

// Option configures a Guard.
type Option func(*Guard)

// WithMaxReasks bounds corrective re-asks. A guard with n re-asks makes
// at most n+1 model calls per run. Default 1.
func WithMaxReasks(n int) Option {
	return func(g *Guard) { g.maxReasks = n }
}

// WithModel sets the model identifier sent to the provider.
func WithModel(model string) Option {
	return func(g *Guard) { g.model = model }
}

// WithTemperature sets the sampling temperature. The default 0 keeps
// requests deterministic and cacheable.
func WithTemperature(t float32) Option {
	return func(g *Guard) { g.temperature = t }
}

// WithMaxTokens caps completion length.
func WithMaxTokens(n int) Option {
	return func(g *Guard) { g.maxTokens = n }
}

// WithLogger sets the logger. Default is a nop logger.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Guard) { g.logger = logger }
}

// WithHistory persists every attempt to the given store.
func WithHistory(store history.Store) Option {
	return func(g *Guard) { g.hist = store }
}

// WithMetrics reports run and validator measurements to the collector.
func WithMetrics(m Metrics) Option {
	return func(g *Guard) { g.metrics = m }
}

// WithMiddleware wraps the provider with a middleware chain.
func WithMiddleware(middlewares ...llm.Middleware) Option {
	return func(g *Guard) {
		g.handler = llm.NewChain(middlewares...).Then(g.handler)
	}
}

// WithComposerOptions forwards options to the prompt composer, e.g.
// custom instructions or a token budget.
func WithComposerOptions(opts ...prompt.Option) Option {
	return func(g *Guard) { g.composerOpts = append(g.composerOpts, opts...) }
}

// New creates a Guard over a schema and a provider.
func New(s *schema.Schema, provider llm.Provider, opts ...Option) (*Guard, error) {
	if s == nil {
		return nil, errors.New("guard: schema must not be nil")
	}
	if provider == nil {
		return nil, errors.New("guard: provider must not be nil")
	}

	g := &Guard{
		schema:    s,
		handler:   llm.ProviderHandler(provider),
		maxReasks: 1,
		logger:    zap.NewNop(),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.maxReasks < 0 {
		return nil, fmt.Errorf("guard: max re-asks must not be negative, got %d", g.maxReasks)
	}

	g.composer = prompt.NewComposer(s, g.composerOpts...)
	return g, nil
}

// Run executes one generation run for a query.
//
// Exhausting the re-ask budget is not an error: the outcome carries the
// best-effort values and annotates what stayed unresolved. Run fails
// only on transport errors, oversized prompts, and exception-policy
// validation failures.
func (g *Guard) Run(ctx context.Context, query string) (*Outcome, error) {
	runID := uuid.NewString()
	logger := g.logger.With(zap.String("run_id", runID))
	start := time.Now()

	ctx, span := g.tracer.Start(ctx, "guard.run",
		trace.WithAttributes(
			attribute.String("guard.run_id", runID),
			attribute.Int("guard.max_reasks", g.maxReasks),
		))
	defer span.End()

	promptText, err := g.composer.Compose(query)
	if err != nil {
		g.recordRun("failed", start, 0, 0)
		return nil, fmt.Errorf("guard: compose: %w", err)
	}

	attempts := 0
	for {
		resp, err := g.handler(ctx, g.newRequest(runID, promptText))
		attempts++
		if err != nil {
			g.recordRun("failed", start, attempts-1, 0)
			return nil, fmt.Errorf("guard: model call %d: %w", attempts, err)
		}

		raw := resp.FirstText()
		res := g.evaluate(raw)

		logger.Debug("attempt evaluated",
			zap.Int("attempt", attempts),
			zap.Int("failures", len(res.failures)),
			zap.Int("reask", len(res.reask)),
			zap.Bool("refrain", res.refrain))

		g.appendHistory(ctx, logger, runID, attempts, query, promptText, raw, res.failures)

		if res.exception != nil {
			span.SetAttributes(attribute.Int("guard.attempts", attempts))
			g.recordRun("failed", start, attempts-1, len(res.failures))
			return nil, &ValidationError{RunID: runID, Failures: []validator.Failure{*res.exception}}
		}

		if res.refrain {
			span.SetAttributes(attribute.Int("guard.attempts", attempts))
			g.recordRun("refrained", start, attempts-1, 0)
			return &Outcome{
				RunID:     runID,
				Values:    map[string]any{},
				Raw:       raw,
				Refrained: true,
				Attempts:  attempts,
			}, nil
		}

		if len(res.reask) > 0 && attempts <= g.maxReasks {
			promptText, err = g.composer.ComposeReask(query, raw, res.reask)
			if err != nil {
				g.recordRun("failed", start, attempts-1, len(res.reask))
				return nil, fmt.Errorf("guard: compose re-ask: %w", err)
			}
			continue
		}

		// Done: either everything passed or the budget is spent.
		unresolved := append(res.unresolved, res.reask...)
		status := "ok"
		if len(unresolved) > 0 {
			status = "unresolved"
		}
		span.SetAttributes(
			attribute.Int("guard.attempts", attempts),
			attribute.Int("guard.unresolved", len(unresolved)),
		)
		g.recordRun(status, start, attempts-1, len(unresolved))

		return &Outcome{
			RunID:      runID,
			Values:     res.values,
			Raw:        raw,
			Unresolved: unresolved,
			Attempts:   attempts,
		}, nil
	}
}

// attemptResult is the per-attempt verdict after parsing and
// validation.
type attemptResult struct {
	values     map[string]any
	failures   []validator.Failure // everything recorded this attempt
	reask      []validator.Failure // failures that demand a re-ask
	unresolved []validator.Failure // kept-but-invalid annotations
	refrain    bool
	exception  *validator.Failure
}

// evaluate parses one raw output and applies every field validator,
// dispatching each failure's corrective action.
func (g *Guard) evaluate(raw string) attemptResult {
	res := attemptResult{values: make(map[string]any)}

	parsed, err := output.Parse(raw, g.schema)
	if err != nil {
		// Nothing recoverable: re-ask for the whole payload.
		var parseErr *output.ParseError
		if errors.As(err, &parseErr) {
			for _, issue := range parseErr.Issues {
				f := validator.Failure{
					Field:     issue.Field,
					Validator: "parser",
					Action:    validator.OnFailReask,
					Reason:    issue.Reason,
				}
				res.failures = append(res.failures, f)
				res.reask = append(res.reask, f)
			}
		}
		return res
	}

	// Fields lost to partial parse failures are re-asked individually.
	for _, issue := range parsed.Issues {
		f := validator.Failure{
			Field:     issue.Field,
			Validator: "parser",
			Action:    validator.OnFailReask,
			Reason:    issue.Reason,
		}
		res.failures = append(res.failures, f)
		res.reask = append(res.reask, f)
	}

	for _, field := range g.schema.Fields() {
		value, ok := parsed.Value(field.Name)
		if !ok {
			continue
		}

		keep := true
		for _, v := range field.Validators {
			result := v.Validate(value)
			if result.Valid {
				continue
			}

			failure := validator.Failure{
				Field:     field.Name,
				Validator: v.Name(),
				Action:    v.OnFail(),
				Reason:    result.Reason,
				Fixed:     result.Fixed,
			}
			res.failures = append(res.failures, failure)
			if g.metrics != nil {
				g.metrics.RecordValidatorFailure(v.Name(), string(v.OnFail()))
			}

			switch v.OnFail() {
			case validator.OnFailFix:
				// A correction is only trusted once it passes the same
				// validator; otherwise the field degrades to noop and
				// keeps the parsed value, annotated.
				if result.Fixed != nil && v.Validate(result.Fixed).Valid {
					value = result.Fixed
				} else {
					res.unresolved = append(res.unresolved, failure)
				}

			case validator.OnFailFixReask:
				// Fix first; escalate only if the correction still fails.
				if result.Fixed != nil && v.Validate(result.Fixed).Valid {
					value = result.Fixed
				} else {
					res.reask = append(res.reask, failure)
				}

			case validator.OnFailReask:
				res.reask = append(res.reask, failure)

			case validator.OnFailFilter:
				keep = false

			case validator.OnFailRefrain:
				res.refrain = true
				return res

			case validator.OnFailNoOp:
				res.unresolved = append(res.unresolved, failure)

			case validator.OnFailException:
				res.exception = &failure
				return res
			}
		}

		if keep {
			res.values[field.Name] = value
		}
	}

	return res
}

func (g *Guard) newRequest(runID, promptText string) *llm.ChatRequest {
	return &llm.ChatRequest{
		TraceID:     runID,
		Model:       g.model,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: promptText},
		},
	}
}

func (g *Guard) appendHistory(ctx context.Context, logger *zap.Logger, runID string, attempt int, query, promptText, raw string, failures []validator.Failure) {
	if g.hist == nil {
		return
	}
	rec := &history.Record{
		RunID:     runID,
		Attempt:   attempt,
		Query:     query,
		Prompt:    promptText,
		RawOutput: raw,
		Failures:  failures,
		CreatedAt: time.Now(),
	}
	if err := g.hist.Append(ctx, rec); err != nil {
		// History is an audit trail, not a correctness dependency.
		logger.Warn("append history failed", zap.Error(err))
	}
}

func (g *Guard) recordRun(status string, start time.Time, reasks, unresolved int) {
	if g.metrics == nil {
		return
	}
	g.metrics.RecordRun(status, time.Since(start), reasks, unresolved)
}
