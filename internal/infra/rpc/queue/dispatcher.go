// Package queue schedules RPC operations onto a bounded worker pool,
// always draining higher priority classes first.
//
// Class-level ordering is the only ordering guarantee: HIGH drains ahead
// of MEDIUM ahead of LOW, best-effort within the worker-pool bound. FIFO
// within one class is not guaranteed because workers complete out of
// order. A configured number of workers serves HIGH work exclusively so
// a burst of background polling cannot delay a trade submission.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vietddude/solgate/internal/core/domain"
	"github.com/vietddude/solgate/internal/infra/metrics"
	"github.com/vietddude/solgate/internal/infra/rpc/endpoint"
)

// ErrClosed is returned for operations enqueued after Close.
var ErrClosed = errors.New("dispatch queue closed")

// Config sizes the worker pool. The pool is a fixed resource budget and
// is not resized at runtime.
type Config struct {
	// Workers is the maximum number of in-flight operations.
	Workers int
	// HighReserved is how many of those workers only ever serve
	// high-priority work. Must be less than Workers.
	HighReserved int
}

// DefaultConfig returns the reference pool sizing.
func DefaultConfig() Config {
	return Config{Workers: 8, HighReserved: 2}
}

// Record describes one completed dispatch, for journaling and tests.
type Record struct {
	ID       string
	Name     string
	Priority domain.Priority
	Endpoint string
	Err      error
	Latency  time.Duration
	At       time.Time
}

// Observer receives a Record after each dispatch completes. It runs on
// the worker goroutine and must not block.
type Observer func(Record)

type counters struct {
	completed atomic.Int64
	failed    atomic.Int64
	inflight  atomic.Int64
}

// Dispatcher is the priority dispatch queue.
type Dispatcher struct {
	registry *endpoint.Registry
	cfg      Config
	log      *slog.Logger
	observer Observer

	mu     sync.Mutex
	cond   *sync.Cond
	queues [domain.NumPriorities][]*Task
	closed bool

	counts [domain.NumPriorities]counters
	wg     sync.WaitGroup
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(log *slog.Logger) Option {
	return func(d *Dispatcher) { d.log = log }
}

// WithObserver registers a completion observer.
func WithObserver(obs Observer) Option {
	return func(d *Dispatcher) { d.observer = obs }
}

// New starts a dispatcher with cfg.Workers worker goroutines. The first
// cfg.HighReserved workers only serve the HIGH sub-queue.
func New(registry *endpoint.Registry, cfg Config, opts ...Option) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.HighReserved < 0 {
		cfg.HighReserved = 0
	}
	if cfg.HighReserved >= cfg.Workers {
		cfg.HighReserved = cfg.Workers - 1
	}

	d := &Dispatcher{
		registry: registry,
		cfg:      cfg,
		log:      slog.Default(),
	}
	d.cond = sync.NewCond(&d.mu)
	for _, opt := range opts {
		opt(d)
	}

	for i := 0; i < cfg.Workers; i++ {
		highOnly := i < cfg.HighReserved
		d.wg.Add(1)
		go d.worker(highOnly)
	}
	return d
}

// Enqueue inserts op into its priority sub-queue and returns a handle
// the caller awaits. ctx is carried to the op at dispatch time; if it is
// already canceled when a worker picks the task up, the op is not invoked.
func (d *Dispatcher) Enqueue(ctx context.Context, p domain.Priority, name string, op Op) *Task {
	if !p.Valid() {
		p = domain.PriorityLow
	}
	t := newTask(ctx, p, name, op)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		t.resolve(Result{Err: ErrClosed})
		return t
	}
	d.queues[p] = append(d.queues[p], t)
	d.mu.Unlock()

	metrics.QueueDepth.WithLabelValues(p.String()).Inc()
	d.cond.Broadcast()
	return t
}

// Metrics returns a side-effect-free snapshot of per-priority counts and
// per-endpoint health.
func (d *Dispatcher) Metrics() Snapshot {
	snap := Snapshot{
		Priorities: make(map[string]PriorityCounts, domain.NumPriorities),
		Endpoints:  d.registry.Snapshot(),
	}

	d.mu.Lock()
	pending := [domain.NumPriorities]int{}
	for p := 0; p < domain.NumPriorities; p++ {
		pending[p] = len(d.queues[p])
	}
	d.mu.Unlock()

	for p := 0; p < domain.NumPriorities; p++ {
		pr := domain.Priority(p)
		snap.Priorities[pr.String()] = PriorityCounts{
			Pending:   int64(pending[p]),
			InFlight:  d.counts[p].inflight.Load(),
			Completed: d.counts[p].completed.Load(),
			Failed:    d.counts[p].failed.Load(),
		}
	}
	return snap
}

// Close stops accepting work and blocks until queued and in-flight
// operations have drained. Operations enqueued after Close fail with
// ErrClosed.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.cond.Broadcast()
	d.wg.Wait()
}

func (d *Dispatcher) worker(highOnly bool) {
	defer d.wg.Done()
	for {
		t := d.next(highOnly)
		if t == nil {
			return
		}
		d.dispatch(t)
	}
}

// next blocks until a task is available for this worker or the
// dispatcher closes. Reserved workers only look at the HIGH sub-queue.
func (d *Dispatcher) next(highOnly bool) *Task {
	d.mu.Lock()
	defer d.mu.Unlock()

	for {
		if t := d.popLocked(highOnly); t != nil {
			return t
		}
		if d.closed {
			return nil
		}
		d.cond.Wait()
	}
}

func (d *Dispatcher) popLocked(highOnly bool) *Task {
	limit := domain.NumPriorities
	if highOnly {
		limit = 1
	}
	for p := 0; p < limit; p++ {
		if q := d.queues[p]; len(q) > 0 {
			t := q[0]
			d.queues[p] = q[1:]
			return t
		}
	}
	return nil
}

func (d *Dispatcher) dispatch(t *Task) {
	pr := t.priority.String()
	metrics.QueueDepth.WithLabelValues(pr).Dec()

	if err := t.ctx.Err(); err != nil {
		d.counts[t.priority].failed.Add(1)
		t.resolve(Result{Err: err})
		return
	}

	t.state.Store(int32(StateDispatched))
	d.counts[t.priority].inflight.Add(1)
	metrics.InFlight.WithLabelValues(pr).Inc()

	ep := d.registry.Select()
	start := time.Now()
	value, err := t.op(t.ctx, ep)
	latency := time.Since(start)

	d.counts[t.priority].inflight.Add(-1)
	metrics.InFlight.WithLabelValues(pr).Dec()
	metrics.DispatchTotal.WithLabelValues(pr, t.name, ep.Name()).Inc()
	metrics.DispatchLatency.WithLabelValues(pr, t.name).Observe(latency.Seconds())

	if err != nil {
		d.counts[t.priority].failed.Add(1)
		metrics.DispatchErrors.WithLabelValues(pr, ep.Name()).Inc()
		d.log.Debug("dispatch failed",
			"op", t.name,
			"priority", pr,
			"endpoint", ep.Name(),
			"error", err,
		)
	} else {
		d.counts[t.priority].completed.Add(1)
	}

	t.resolve(Result{Value: value, Err: err, Endpoint: ep})

	if d.observer != nil {
		d.observer(Record{
			ID:       t.id,
			Name:     t.name,
			Priority: t.priority,
			Endpoint: ep.Name(),
			Err:      err,
			Latency:  latency,
			At:       start,
		})
	}
}
