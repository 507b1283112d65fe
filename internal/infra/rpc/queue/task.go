package queue

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/solgate/internal/core/domain"
	"github.com/vietddude/solgate/internal/infra/rpc/endpoint"
)

// Op is one unit of remote work. The dispatcher resolves which endpoint
// backs the call at dispatch time. An Op may be invoked more than once
// across retries and must be safe to re-invoke; this layer does not
// deduplicate side effects.
type Op func(ctx context.Context, ep *endpoint.Endpoint) (any, error)

// State is the lifecycle of a queued operation.
type State int32

const (
	StatePending State = iota
	StateDispatched
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDispatched:
		return "dispatched"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result carries the outcome of one dispatched operation along with the
// endpoint that served it, so the retry layer can penalize the right node.
type Result struct {
	Value    any
	Err      error
	Endpoint *endpoint.Endpoint
}

// Task is the caller's handle to a queued operation.
type Task struct {
	id       string
	name     string
	priority domain.Priority
	op       Op
	ctx      context.Context
	enqueued time.Time

	state  atomic.Int32
	result Result
	done   chan struct{}
}

func newTask(ctx context.Context, p domain.Priority, name string, op Op) *Task {
	return &Task{
		id:       uuid.NewString(),
		name:     name,
		priority: p,
		op:       op,
		ctx:      ctx,
		enqueued: time.Now(),
		done:     make(chan struct{}),
	}
}

// ID returns the task's unique identifier.
func (t *Task) ID() string { return t.id }

// Name returns the operation name (e.g., "getAccountInfo").
func (t *Task) Name() string { return t.name }

// Priority returns the task's priority class.
func (t *Task) Priority() domain.Priority { return t.priority }

// State returns the task's current lifecycle state.
func (t *Task) State() State { return State(t.state.Load()) }

// Wait blocks until the task resolves or ctx is canceled. A canceled
// Wait does not cancel the operation itself; the worker slot is released
// when the op returns.
func (t *Task) Wait(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	case <-t.done:
		return t.result
	}
}

// Done exposes the completion channel for select loops.
func (t *Task) Done() <-chan struct{} { return t.done }

func (t *Task) resolve(res Result) {
	if res.Err != nil {
		t.state.Store(int32(StateFailed))
	} else {
		t.state.Store(int32(StateSucceeded))
	}
	t.result = res
	close(t.done)
}
