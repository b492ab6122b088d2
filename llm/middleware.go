package llm

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Handler processes a request and returns a response.
type Handler func(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

// Middleware wraps a handler with additional functionality.
type Middleware func(next Handler) Handler

// Chain composes middleware around a terminal handler.
type Chain struct {
	mu          sync.RWMutex
	middlewares []Middleware
}

// NewChain creates a middleware chain.
func NewChain(middlewares ...Middleware) *Chain {
	return &Chain{middlewares: middlewares}
}

// Use appends middleware to the chain.
func (c *Chain) Use(m Middleware) *Chain {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middlewares = append(c.middlewares, m)
	return c
}

// Then wraps a handler with all middleware, first added outermost.
func (c *Chain) Then(h Handler) Handler {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := len(c.middlewares) - 1; i >= 0; i-- {
		h = c.middlewares[i](h)
	}
	return h
}

// Len returns the number of middleware in the chain.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.middlewares)
}

// ProviderHandler adapts a Provider into the terminal Handler of a chain.
func ProviderHandler(p Provider) Handler {
	return p.Completion
}

// LoggingMiddleware logs request and response details.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
			start := time.Now()
			logger.Debug("llm request",
				zap.String("trace_id", req.TraceID),
				zap.String("model", req.Model),
				zap.Int("messages", len(req.Messages)))

			resp, err := next(ctx, req)

			duration := time.Since(start)
			if err != nil {
				logger.Warn("llm request failed",
					zap.String("trace_id", req.TraceID),
					zap.String("model", req.Model),
					zap.Duration("duration", duration),
					zap.Error(err))
			} else {
				logger.Debug("llm response",
					zap.String("trace_id", req.TraceID),
					zap.String("model", req.Model),
					zap.Int("total_tokens", resp.Usage.TotalTokens),
					zap.Duration("duration", duration))
			}

			return resp, err
		}
	}
}

// TimeoutMiddleware bounds each request with a deadline.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(ctx, req)
		}
	}
}

// RecoveryMiddleware converts panics in downstream handlers into errors.
func RecoveryMiddleware(logger *zap.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *ChatRequest) (resp *ChatResponse, err error) {
			defer func() {
				if r := recover(); r != nil {
					if logger != nil {
						logger.Error("llm handler panic", zap.Any("panic", r))
					}
					err = &PanicError{Value: r}
				}
			}()
			return next(ctx, req)
		}
	}
}

// PanicError represents a recovered panic.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return "panic recovered" }

// RateLimitMiddleware throttles requests with a token bucket. Waiting
// respects the request context.
func RateLimitMiddleware(limiter *rate.Limiter) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
			if err := limiter.Wait(ctx); err != nil {
				return nil, &Error{
					Code:      ErrRateLimited,
					Message:   "rate limit wait: " + err.Error(),
					Retryable: true,
				}
			}
			return next(ctx, req)
		}
	}
}

// MetricsCollector receives per-request measurements.
type MetricsCollector interface {
	RecordRequest(model string, duration time.Duration, success bool)
	RecordTokens(model string, tokens int)
}

// MetricsMiddleware records request duration, outcome, and token usage.
func MetricsMiddleware(collector MetricsCollector) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			duration := time.Since(start)

			collector.RecordRequest(req.Model, duration, err == nil)
			if resp != nil {
				collector.RecordTokens(req.Model, resp.Usage.TotalTokens)
			}

			return resp, err
		}
	}
}

// CacheMiddleware serves repeated deterministic requests from cache.
func CacheMiddleware(cache *MultiLevelCache) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
			if !cache.IsCacheable(req) {
				return next(ctx, req)
			}

			key := cache.GenerateKey(req)
			if entry, err := cache.Get(ctx, key); err == nil {
				return entry.Response, nil
			}

			resp, err := next(ctx, req)
			if err != nil {
				return nil, err
			}

			// Cache write failures are non-fatal; the response is valid.
			_ = cache.Set(ctx, key, &CacheEntry{Response: resp})
			return resp, nil
		}
	}
}
