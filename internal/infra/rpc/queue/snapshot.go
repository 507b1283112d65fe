package queue

import "github.com/vietddude/solgate/internal/infra/rpc/endpoint"

// PriorityCounts holds operation counts for one priority class.
type PriorityCounts struct {
	Pending   int64 `json:"pending"`
	InFlight  int64 `json:"in_flight"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// Snapshot is a read-only view of queue and endpoint state, keyed by
// priority class name.
type Snapshot struct {
	Priorities map[string]PriorityCounts `json:"priorities"`
	Endpoints  []endpoint.Health         `json:"endpoints"`
}
