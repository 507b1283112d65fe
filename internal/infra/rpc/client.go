// Package rpc is the unified client surface for the dispatch layer.
// Every read and write against remote Solana nodes goes through it.
//
//	registry := endpoint.NewRegistry(specs, endpoint.DefaultConfig())
//	q := queue.New(registry, queue.DefaultConfig())
//	policy := retry.New(registry, q, retry.DefaultConfig())
//	client := rpc.NewClient(registry, q, policy, transport.NewHTTPTransport(30*time.Second))
//
//	hash, err := client.LatestBlockhash(ctx)
//	sig, err := client.SendRawTransaction(ctx, signedTx)
//
// Methods are thin wrappers: a default priority plus parameter
// pass-through. Domain interpretation of payloads belongs to callers.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/solgate/internal/core/domain"
	"github.com/vietddude/solgate/internal/infra/metrics"
	"github.com/vietddude/solgate/internal/infra/rpc/endpoint"
	"github.com/vietddude/solgate/internal/infra/rpc/queue"
	"github.com/vietddude/solgate/internal/infra/rpc/retry"
	"github.com/vietddude/solgate/internal/infra/rpc/transport"
)

// Cache is a read-through store for idempotent low-priority reads.
// Implementations decide TTLs; misses are reported as ok=false.
type Cache interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool)
	Set(ctx context.Context, key string, val json.RawMessage)
}

// Client is the façade other components call. It owns no business
// logic beyond default priorities.
type Client struct {
	registry  *endpoint.Registry
	queue     *queue.Dispatcher
	retry     *retry.Policy
	transport transport.Transport
	cache     Cache
	log       *slog.Logger

	// batchConcurrency bounds fan-out of batch lookups.
	batchConcurrency int
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithCache enables read-through caching for historical reads.
func WithCache(c Cache) ClientOption {
	return func(cl *Client) { cl.cache = c }
}

// WithClientLogger sets the client logger.
func WithClientLogger(log *slog.Logger) ClientOption {
	return func(cl *Client) { cl.log = log }
}

// NewClient wires the dispatch layer together.
func NewClient(
	registry *endpoint.Registry,
	q *queue.Dispatcher,
	policy *retry.Policy,
	t transport.Transport,
	opts ...ClientOption,
) *Client {
	c := &Client{
		registry:         registry,
		queue:            q,
		retry:            policy,
		transport:        t,
		log:              slog.Default(),
		batchConcurrency: 4,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit is the generic entry point: op runs through priority scheduling
// and retry. The returned error is the original remote error.
func (c *Client) Submit(ctx context.Context, priority domain.Priority, name string, op queue.Op) (any, error) {
	return c.retry.Do(ctx, priority, name, op)
}

// Metrics returns per-priority operation counts and per-endpoint health.
func (c *Client) Metrics() queue.Snapshot {
	return c.queue.Metrics()
}

// call dispatches one JSON-RPC method with retry at the given priority.
func (c *Client) call(ctx context.Context, priority domain.Priority, method string, params any, opts ...CallOption) (json.RawMessage, error) {
	for _, opt := range opts {
		priority = opt.apply(priority)
	}

	op := func(ctx context.Context, ep *endpoint.Endpoint) (any, error) {
		return c.transport.Invoke(ctx, ep.Addr(), method, params)
	}

	v, err := c.retry.Do(ctx, priority, method, op)
	if err != nil {
		return nil, err
	}
	raw, ok := v.(json.RawMessage)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected result type %T", method, v)
	}
	return raw, nil
}

// cachedCall consults the cache before dispatching and stores successful
// results. Used only for idempotent historical reads.
func (c *Client) cachedCall(ctx context.Context, priority domain.Priority, method string, params any, opts ...CallOption) (json.RawMessage, error) {
	if c.cache == nil {
		return c.call(ctx, priority, method, params, opts...)
	}

	key := cacheKey(method, params)
	if val, ok := c.cache.Get(ctx, key); ok {
		metrics.CacheHits.WithLabelValues("hit").Inc()
		return val, nil
	}
	metrics.CacheHits.WithLabelValues("miss").Inc()

	raw, err := c.call(ctx, priority, method, params, opts...)
	if err != nil {
		return nil, err
	}
	c.cache.Set(ctx, key, raw)
	return raw, nil
}

func cacheKey(method string, params any) string {
	encoded, err := json.Marshal(params)
	if err != nil {
		return method
	}
	var b strings.Builder
	b.WriteString("solgate:")
	b.WriteString(method)
	b.WriteString(":")
	b.Write(encoded)
	return b.String()
}

// AccountInfo fetches an account's data. Default priority MEDIUM.
func (c *Client) AccountInfo(ctx context.Context, pubkey string, opts ...CallOption) (json.RawMessage, error) {
	params := []any{pubkey, map[string]string{"encoding": "base64"}}
	return c.call(ctx, domain.PriorityMedium, "getAccountInfo", params, opts...)
}

// Balance fetches an account's lamport balance. Default priority MEDIUM.
func (c *Client) Balance(ctx context.Context, pubkey string, opts ...CallOption) (json.RawMessage, error) {
	return c.call(ctx, domain.PriorityMedium, "getBalance", []any{pubkey}, opts...)
}

// Transaction fetches one confirmed transaction by signature. Historical
// read; default priority LOW, cached when a cache is configured.
func (c *Client) Transaction(ctx context.Context, signature string, opts ...CallOption) (json.RawMessage, error) {
	params := []any{signature, map[string]any{"encoding": "json", "maxSupportedTransactionVersion": 0}}
	return c.cachedCall(ctx, domain.PriorityLow, "getTransaction", params, opts...)
}

// Transactions fetches several transactions, fanning the lookups out
// through the queue with bounded concurrency. Results are positional;
// on error the partial results are returned with the first error.
func (c *Client) Transactions(ctx context.Context, signatures []string, opts ...CallOption) ([]json.RawMessage, error) {
	results := make([]json.RawMessage, len(signatures))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.batchConcurrency)
	for i, sig := range signatures {
		g.Go(func() error {
			raw, err := c.Transaction(gctx, sig, opts...)
			if err != nil {
				return err
			}
			results[i] = raw
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// SignaturesForAddress lists recent signatures involving an address.
// Historical read; default priority LOW, cached.
func (c *Client) SignaturesForAddress(ctx context.Context, address string, limit int, opts ...CallOption) (json.RawMessage, error) {
	params := []any{address, map[string]int{"limit": limit}}
	return c.cachedCall(ctx, domain.PriorityLow, "getSignaturesForAddress", params, opts...)
}

// LatestBlockhash fetches a recent blockhash for transaction assembly.
// On the trade path; default priority HIGH.
func (c *Client) LatestBlockhash(ctx context.Context, opts ...CallOption) (json.RawMessage, error) {
	return c.call(ctx, domain.PriorityHigh, "getLatestBlockhash", nil, opts...)
}

// SendRawTransaction submits a signed, serialized transaction. Default
// priority HIGH. Resubmitting the same signed payload is safe at the
// network layer; composing a new payload per attempt is not, and is the
// caller's responsibility to avoid.
func (c *Client) SendRawTransaction(ctx context.Context, signedTx string, opts ...CallOption) (json.RawMessage, error) {
	params := []any{signedTx, map[string]string{"encoding": "base64"}}
	return c.call(ctx, domain.PriorityHigh, "sendTransaction", params, opts...)
}

// SimulateTransaction dry-runs a signed transaction. Default priority
// HIGH.
func (c *Client) SimulateTransaction(ctx context.Context, signedTx string, opts ...CallOption) (json.RawMessage, error) {
	params := []any{signedTx, map[string]string{"encoding": "base64"}}
	return c.call(ctx, domain.PriorityHigh, "simulateTransaction", params, opts...)
}

// ConfirmTransaction fetches the confirmation status of a submitted
// signature. Default priority MEDIUM.
func (c *Client) ConfirmTransaction(ctx context.Context, signature string, opts ...CallOption) (json.RawMessage, error) {
	params := []any{[]string{signature}}
	return c.call(ctx, domain.PriorityMedium, "getSignatureStatuses", params, opts...)
}
