package endpoint

import (
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/solgate/internal/infra/metrics"
)

// Spec describes one endpoint from static configuration.
type Spec struct {
	Name   string
	Addr   string
	Weight int
}

// Config controls failure thresholds and time-based recovery.
type Config struct {
	// MaxFailures is the failure count at which an endpoint is marked down.
	MaxFailures int
	// RecoveryWindow is how long a down endpoint stays down before it is
	// optimistically considered healthy again. No probe is performed.
	RecoveryWindow time.Duration
}

// DefaultConfig returns the reference thresholds.
func DefaultConfig() Config {
	return Config{
		MaxFailures:    3,
		RecoveryWindow: 60 * time.Second,
	}
}

// Registry owns the endpoint pool. It is the only component allowed to
// mutate endpoint health; every mutation is serialized behind mu so
// failure reports from concurrent workers cannot lose updates.
type Registry struct {
	mu        sync.Mutex
	endpoints []*Endpoint
	strategy  Strategy
	cfg       Config
	clock     Clock
	log       *slog.Logger
}

// Option customizes a Registry.
type Option func(*Registry)

// WithClock injects a deterministic clock for tests.
func WithClock(c Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// WithStrategy replaces the default round-robin selection strategy.
func WithStrategy(s Strategy) Option {
	return func(r *Registry) { r.strategy = s }
}

// WithLogger sets the registry logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// NewRegistry builds the pool from static configuration. Specs must be
// non-empty (NewRegistry panics otherwise, keeping Select total); the
// pool never changes size afterwards.
func NewRegistry(specs []Spec, cfg Config, opts ...Option) *Registry {
	if len(specs) == 0 {
		panic("endpoint: NewRegistry requires at least one endpoint")
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = DefaultConfig().MaxFailures
	}
	if cfg.RecoveryWindow <= 0 {
		cfg.RecoveryWindow = DefaultConfig().RecoveryWindow
	}

	r := &Registry{
		cfg:      cfg,
		strategy: NewRoundRobin(),
		clock:    SystemClock(),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, s := range specs {
		r.endpoints = append(r.endpoints, newEndpoint(s.Name, s.Addr, s.Weight))
	}
	return r
}

// Select returns exactly one endpoint. It never blocks on I/O and never
// fails:
//
//  1. Down endpoints whose recovery window has elapsed are cleared.
//  2. If no endpoint is available, the whole pool is reset and the first
//     endpoint returned. Total outage is treated as stale bookkeeping,
//     not a reason to stop serving traffic.
//  3. Otherwise the strategy picks from the available subset.
//
// A returned endpoint is not guaranteed to be healthy on the fail-open
// path; it is merely selectable.
func (r *Registry) Select() *Endpoint {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	for _, e := range r.endpoints {
		if e.down && now.Sub(e.lastFailure) > r.cfg.RecoveryWindow {
			e.down = false
			e.failures = 0
			metrics.EndpointDown.WithLabelValues(e.name).Set(0)
			r.log.Debug("endpoint recovered after cooldown", "endpoint", e.name)
		}
	}

	available := r.endpoints[:0:0]
	for _, e := range r.endpoints {
		if !e.down {
			available = append(available, e)
		}
	}

	if len(available) == 0 {
		r.log.Warn("all endpoints down, resetting pool")
		for _, e := range r.endpoints {
			e.down = false
			e.failures = 0
			metrics.EndpointDown.WithLabelValues(e.name).Set(0)
		}
		return r.endpoints[0]
	}

	return r.strategy.Pick(available)
}

// ReportFailure increments the endpoint's failure count and stamps the
// failure time. Reaching MaxFailures is the only transition that marks
// an endpoint down.
func (r *Registry) ReportFailure(e *Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.failures++
	e.lastFailure = r.clock.Now()
	metrics.EndpointFailures.WithLabelValues(e.name).Inc()

	if !e.down && e.failures >= r.cfg.MaxFailures {
		e.down = true
		metrics.EndpointDown.WithLabelValues(e.name).Set(1)
		r.log.Warn("endpoint marked down",
			"endpoint", e.name,
			"failures", e.failures,
		)
	}
}

// Snapshot returns a read-only view of every endpoint's health.
func (r *Registry) Snapshot() []Health {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Health, 0, len(r.endpoints))
	for _, e := range r.endpoints {
		out = append(out, Health{
			Name:        e.name,
			Addr:        e.addr,
			Weight:      e.weight,
			Failures:    e.failures,
			LastFailure: e.lastFailure,
			Down:        e.down,
		})
	}
	return out
}

// Len returns the pool size.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.endpoints)
}
