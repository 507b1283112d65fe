package health

import (
	"testing"

	"github.com/vietddude/solgate/internal/infra/rpc/endpoint"
	"github.com/vietddude/solgate/internal/infra/rpc/queue"
)

type fakeMetrics struct {
	snap queue.Snapshot
}

func (f fakeMetrics) Metrics() queue.Snapshot { return f.snap }

func snapshotWith(down ...bool) queue.Snapshot {
	eps := make([]endpoint.Health, len(down))
	for i, d := range down {
		eps[i] = endpoint.Health{Name: "ep", Down: d}
	}
	return queue.Snapshot{Endpoints: eps}
}

func TestMonitorStatus(t *testing.T) {
	tests := []struct {
		name string
		snap queue.Snapshot
		want Status
	}{
		{"all up", snapshotWith(false, false, false), StatusHealthy},
		{"one down", snapshotWith(true, false, false), StatusDegraded},
		{"all down", snapshotWith(true, true, true), StatusCritical},
		{"single endpoint down", snapshotWith(true), StatusCritical},
		{"no endpoints", snapshotWith(), StatusHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor(fakeMetrics{snap: tt.snap})
			if got := m.Check().Status; got != tt.want {
				t.Fatalf("status = %s, want %s", got, tt.want)
			}
		})
	}
}
