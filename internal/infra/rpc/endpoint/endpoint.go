// Package endpoint tracks the pool of configured node endpoints and
// their live health state.
//
// This package contains:
//   - Endpoint: one remote node with circuit-breaker style health tracking
//   - Registry: the pool, its rotation cursor, and all health mutation
//   - Strategy: pluggable selection (round-robin default, smooth weighted)
//
// Endpoints are created once from static configuration and never removed
// while the process runs. All health mutation goes through the Registry,
// which serializes it behind a single mutex.
package endpoint

import "time"

// Endpoint is one configured remote node. Name, address, and weight are
// immutable after construction; the health fields are guarded by the
// owning Registry's lock and must not be touched elsewhere.
type Endpoint struct {
	name   string
	addr   string
	weight int

	failures    int
	lastFailure time.Time
	down        bool
}

func newEndpoint(name, addr string, weight int) *Endpoint {
	if weight <= 0 {
		weight = 1
	}
	return &Endpoint{name: name, addr: addr, weight: weight}
}

// Name returns the endpoint identifier (e.g., "helius", "quicknode").
func (e *Endpoint) Name() string { return e.name }

// Addr returns the endpoint URL.
func (e *Endpoint) Addr() string { return e.addr }

// Weight returns the configured selection weight. The default round-robin
// strategy does not consume it; SmoothWeighted does.
func (e *Endpoint) Weight() int { return e.weight }

// Health is a point-in-time view of one endpoint's state.
type Health struct {
	Name        string    `json:"name"`
	Addr        string    `json:"addr"`
	Weight      int       `json:"weight"`
	Failures    int       `json:"failures"`
	LastFailure time.Time `json:"last_failure,omitempty"`
	Down        bool      `json:"down"`
}
