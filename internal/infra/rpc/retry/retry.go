// Package retry wraps a logical RPC call with bounded attempts,
// exponential backoff, and endpoint failure reporting.
package retry

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/vietddude/solgate/internal/core/domain"
	"github.com/vietddude/solgate/internal/infra/metrics"
	"github.com/vietddude/solgate/internal/infra/rpc/endpoint"
	"github.com/vietddude/solgate/internal/infra/rpc/queue"
)

// Config defines retry behavior.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultConfig provides the reference defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
	}
}

// Policy executes operations through the dispatch queue with retries.
// Each attempt enqueues a fresh operation, so a retried call goes back
// through priority scheduling and endpoint selection; the rotation
// cursor has advanced, so a retry lands on a different endpoint unless
// only one is selectable.
type Policy struct {
	cfg      Config
	registry *endpoint.Registry
	queue    *queue.Dispatcher
	log      *slog.Logger

	// isRetryable decides whether an error is worth another attempt.
	// The default retries everything, preserving the original behavior;
	// pass Transient via WithPredicate to stop early on terminal errors.
	isRetryable func(error) bool

	// sleep waits out a backoff delay. Overridable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option customizes a Policy.
type Option func(*Policy)

// WithPredicate replaces the retry-everything default.
func WithPredicate(pred func(error) bool) Option {
	return func(p *Policy) { p.isRetryable = pred }
}

// WithLogger sets the policy logger.
func WithLogger(log *slog.Logger) Option {
	return func(p *Policy) { p.log = log }
}

// WithSleep replaces the backoff timer, for deterministic tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Policy) { p.sleep = sleep }
}

// New creates a retry policy bound to a registry and dispatch queue.
func New(registry *endpoint.Registry, q *queue.Dispatcher, cfg Config, opts ...Option) *Policy {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = def.Multiplier
	}

	p := &Policy{
		cfg:         cfg,
		registry:    registry,
		queue:       q,
		log:         slog.Default(),
		isRetryable: func(error) bool { return true },
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Do executes op through the queue, retrying per the policy. On success
// the result is returned immediately with no failure report. On failure
// the endpoint that served the attempt is penalized, the policy backs
// off, and the op re-enters the queue. When attempts are exhausted the
// last underlying error is returned unchanged so the root cause stays
// visible; callers must not assume it names the endpoint that served
// earlier attempts.
//
// op must be idempotent-safe: at-most-once per attempt, at-least-once
// overall. Exactly-once is the caller's concern.
func (p *Policy) Do(ctx context.Context, priority domain.Priority, name string, op queue.Op) (any, error) {
	var lastErr error

	for attempt := 0; attempt < p.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			metrics.RetryAttempts.WithLabelValues(name).Inc()
			if err := p.sleep(ctx, p.backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		t := p.queue.Enqueue(ctx, priority, name, op)
		res := t.Wait(ctx)
		if res.Err == nil {
			return res.Value, nil
		}
		lastErr = res.Err

		if res.Endpoint != nil {
			p.registry.ReportFailure(res.Endpoint)
		}
		if ctx.Err() != nil {
			break
		}
		if !p.isRetryable(res.Err) {
			p.log.Debug("error classified terminal, not retrying",
				"op", name, "error", res.Err)
			break
		}
		if attempt < p.cfg.MaxAttempts-1 {
			p.log.Debug("attempt failed, backing off",
				"op", name,
				"attempt", attempt+1,
				"delay", p.backoff(attempt),
				"error", res.Err,
			)
		}
	}

	return nil, lastErr
}

// backoff returns the delay before the attempt following failed attempt
// i: BaseDelay × Multiplier^i, capped at MaxDelay.
func (p *Policy) backoff(i int) time.Duration {
	d := float64(p.cfg.BaseDelay) * math.Pow(p.cfg.Multiplier, float64(i))
	if d > float64(p.cfg.MaxDelay) {
		d = float64(p.cfg.MaxDelay)
	}
	return time.Duration(d)
}

// sleepContext waits for d on a real timer, aborting when ctx is
// canceled so a caller-level deadline can cut a backoff wait short.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
