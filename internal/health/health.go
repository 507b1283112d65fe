// Package health exposes dispatch-layer health and metrics over HTTP.
package health

import (
	"github.com/vietddude/solgate/internal/infra/rpc/queue"
)

// Status represents the overall health state of the dispatch layer.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusCritical Status = "critical"
)

// Report is the full health report served at /health/detailed.
type Report struct {
	Status Status         `json:"status"`
	Queue  queue.Snapshot `json:"queue"`
}

// QueueMetrics is the read-only view the monitor pulls from.
type QueueMetrics interface {
	Metrics() queue.Snapshot
}

// Monitor derives a health status from the dispatch snapshot: degraded
// when any endpoint is down, critical when all are. The fail-open reset
// clears critical on the next selection, so a persistent critical status
// means no selections are flowing at all.
type Monitor struct {
	queue QueueMetrics
}

// NewMonitor creates a monitor over the dispatch queue.
func NewMonitor(q QueueMetrics) *Monitor {
	return &Monitor{queue: q}
}

// Check builds the current health report.
func (m *Monitor) Check() Report {
	snap := m.queue.Metrics()

	down := 0
	for _, ep := range snap.Endpoints {
		if ep.Down {
			down++
		}
	}

	status := StatusHealthy
	switch {
	case len(snap.Endpoints) > 0 && down == len(snap.Endpoints):
		status = StatusCritical
	case down > 0:
		status = StatusDegraded
	}

	return Report{Status: status, Queue: snap}
}
