package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/solgate/internal/core/domain"
	"github.com/vietddude/solgate/internal/infra/rpc/endpoint"
	"github.com/vietddude/solgate/internal/infra/rpc/queue"
	"github.com/vietddude/solgate/internal/infra/rpc/retry"
)

// fakeTransport returns canned results per method and records calls.
type fakeTransport struct {
	mu      sync.Mutex
	results map[string]json.RawMessage
	errs    map[string]error
	calls   []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		results: make(map[string]json.RawMessage),
		errs:    make(map[string]error),
	}
}

func (f *fakeTransport) Invoke(ctx context.Context, addr, method string, params any) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, method)
	if err, ok := f.errs[method]; ok {
		return nil, err
	}
	if res, ok := f.results[method]; ok {
		return res, nil
	}
	return json.RawMessage(`null`), nil
}

func (f *fakeTransport) Close() error { return nil }

func (f *fakeTransport) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.calls {
		if m == method {
			n++
		}
	}
	return n
}

// fakeCache is an in-memory Cache.
type fakeCache struct {
	mu   sync.Mutex
	data map[string]json.RawMessage
	gets int
	sets int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]json.RawMessage)}
}

func (c *fakeCache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	val, ok := c.data[key]
	return val, ok
}

func (c *fakeCache) Set(ctx context.Context, key string, val json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = val
}

// dispatchRecorder captures per-operation priorities via the queue observer.
type dispatchRecorder struct {
	mu      sync.Mutex
	records []queue.Record
}

func (r *dispatchRecorder) observe(rec queue.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func (r *dispatchRecorder) priorityOf(name string) (domain.Priority, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.Name == name {
			return rec.Priority, true
		}
	}
	return 0, false
}

func newTestClient(t *testing.T, ft *fakeTransport, opts ...ClientOption) (*Client, *dispatchRecorder) {
	t.Helper()
	specs := []endpoint.Spec{
		{Name: "a", Addr: "http://a.test", Weight: 1},
		{Name: "b", Addr: "http://b.test", Weight: 1},
	}
	registry := endpoint.NewRegistry(specs, endpoint.DefaultConfig())
	rec := &dispatchRecorder{}
	q := queue.New(registry, queue.Config{Workers: 4, HighReserved: 1}, queue.WithObserver(rec.observe))
	t.Cleanup(q.Close)
	policy := retry.New(registry, q, retry.Config{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2.0})
	return NewClient(registry, q, policy, ft, opts...), rec
}

func TestMethodDefaultPriorities(t *testing.T) {
	ft := newFakeTransport()
	client, rec := newTestClient(t, ft)
	ctx := context.Background()

	if _, err := client.LatestBlockhash(ctx); err != nil {
		t.Fatalf("LatestBlockhash: %v", err)
	}
	if _, err := client.Balance(ctx, "pubkey"); err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if _, err := client.Transaction(ctx, "sig"); err != nil {
		t.Fatalf("Transaction: %v", err)
	}

	tests := []struct {
		method string
		want   domain.Priority
	}{
		{"getLatestBlockhash", domain.PriorityHigh},
		{"getBalance", domain.PriorityMedium},
		{"getTransaction", domain.PriorityLow},
	}
	for _, tt := range tests {
		got, ok := rec.priorityOf(tt.method)
		if !ok {
			t.Fatalf("no dispatch recorded for %s", tt.method)
		}
		if got != tt.want {
			t.Fatalf("%s priority = %v, want %v", tt.method, got, tt.want)
		}
	}
}

func TestWithPriorityOverride(t *testing.T) {
	ft := newFakeTransport()
	client, rec := newTestClient(t, ft)

	if _, err := client.Balance(context.Background(), "pubkey", WithPriority(domain.PriorityHigh)); err != nil {
		t.Fatalf("Balance: %v", err)
	}
	got, ok := rec.priorityOf("getBalance")
	if !ok {
		t.Fatal("no dispatch recorded for getBalance")
	}
	if got != domain.PriorityHigh {
		t.Fatalf("priority = %v, want high after override", got)
	}
}

func TestCachedCallShortCircuits(t *testing.T) {
	ft := newFakeTransport()
	ft.results["getTransaction"] = json.RawMessage(`{"slot":123}`)
	cache := newFakeCache()
	client, _ := newTestClient(t, ft, WithCache(cache))
	ctx := context.Background()

	first, err := client.Transaction(ctx, "sig1")
	if err != nil {
		t.Fatalf("first Transaction: %v", err)
	}
	second, err := client.Transaction(ctx, "sig1")
	if err != nil {
		t.Fatalf("second Transaction: %v", err)
	}

	if string(first) != string(second) {
		t.Fatalf("cached result %s differs from original %s", second, first)
	}
	if got := ft.callCount("getTransaction"); got != 1 {
		t.Fatalf("transport calls = %d, want 1 (second read served from cache)", got)
	}
	if cache.sets != 1 {
		t.Fatalf("cache sets = %d, want 1", cache.sets)
	}
}

func TestCacheNotPopulatedOnError(t *testing.T) {
	ft := newFakeTransport()
	ft.errs["getTransaction"] = errors.New("node is behind")
	cache := newFakeCache()
	client, _ := newTestClient(t, ft, WithCache(cache))

	if _, err := client.Transaction(context.Background(), "sig1"); err == nil {
		t.Fatal("expected error")
	}
	if cache.sets != 0 {
		t.Fatalf("cache sets = %d, want 0 after failed fetch", cache.sets)
	}
}

func TestSubmitReturnsRemoteError(t *testing.T) {
	ft := newFakeTransport()
	client, _ := newTestClient(t, ft)

	wantErr := errors.New("node unavailable")
	_, err := client.Submit(context.Background(), domain.PriorityMedium, "custom",
		func(ctx context.Context, ep *endpoint.Endpoint) (any, error) {
			return nil, wantErr
		})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v unchanged", err, wantErr)
	}
}

func TestTransactionsFanOut(t *testing.T) {
	ft := newFakeTransport()
	ft.results["getTransaction"] = json.RawMessage(`{"slot":7}`)
	client, _ := newTestClient(t, ft)

	sigs := []string{"s1", "s2", "s3", "s4", "s5"}
	results, err := client.Transactions(context.Background(), sigs)
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	if len(results) != len(sigs) {
		t.Fatalf("results len = %d, want %d", len(results), len(sigs))
	}
	for i, raw := range results {
		if string(raw) != `{"slot":7}` {
			t.Fatalf("result %d = %s", i, raw)
		}
	}
	if got := ft.callCount("getTransaction"); got != len(sigs) {
		t.Fatalf("transport calls = %d, want %d", got, len(sigs))
	}
}

func TestCacheKeyIncludesParams(t *testing.T) {
	k1 := cacheKey("getTransaction", []any{"sig1"})
	k2 := cacheKey("getTransaction", []any{"sig2"})
	if k1 == k2 {
		t.Fatalf("distinct params produced the same key %q", k1)
	}
	k3 := cacheKey("getSignaturesForAddress", []any{"sig1"})
	if k1 == k3 {
		t.Fatalf("distinct methods produced the same key %q", k1)
	}
}
