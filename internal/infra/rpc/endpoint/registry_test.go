package endpoint

import (
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func testSpecs(names ...string) []Spec {
	specs := make([]Spec, 0, len(names))
	for _, n := range names {
		specs = append(specs, Spec{Name: n, Addr: "http://" + n + ".test", Weight: 1})
	}
	return specs
}

func TestSelectRoundRobin(t *testing.T) {
	r := NewRegistry(testSpecs("a", "b", "c"), DefaultConfig(), WithClock(newFakeClock()))

	want := []string{"b", "c", "a", "b", "c", "a"}
	for i, expect := range want {
		if got := r.Select().Name(); got != expect {
			t.Fatalf("select %d = %s, want %s", i, got, expect)
		}
	}
}

func TestFailureThreshold(t *testing.T) {
	clock := newFakeClock()
	r := NewRegistry(testSpecs("a", "b"), Config{MaxFailures: 3, RecoveryWindow: time.Minute}, WithClock(clock))
	a := r.endpoints[0]

	r.ReportFailure(a)
	r.ReportFailure(a)
	if a.down {
		t.Fatalf("endpoint down after 2 failures, threshold is 3")
	}

	r.ReportFailure(a)
	if !a.down {
		t.Fatalf("endpoint not down after reaching threshold")
	}
	if a.failures != 3 {
		t.Fatalf("failures = %d, want 3", a.failures)
	}
}

func TestSelectSkipsDownEndpoints(t *testing.T) {
	clock := newFakeClock()
	r := NewRegistry(testSpecs("a", "b"), Config{MaxFailures: 3, RecoveryWindow: time.Minute}, WithClock(clock))
	a := r.endpoints[0]

	for i := 0; i < 3; i++ {
		r.ReportFailure(a)
	}

	for i := 0; i < 10; i++ {
		if got := r.Select().Name(); got != "b" {
			t.Fatalf("select %d = %s, want b while a is down", i, got)
		}
	}
}

func TestRecoveryWindow(t *testing.T) {
	clock := newFakeClock()
	r := NewRegistry(testSpecs("a", "b"), Config{MaxFailures: 1, RecoveryWindow: time.Minute}, WithClock(clock))
	a := r.endpoints[0]

	r.ReportFailure(a)
	if !a.down {
		t.Fatalf("endpoint not down after reaching threshold")
	}

	// Within the window the endpoint stays down.
	clock.Advance(59 * time.Second)
	r.Select()
	if !a.down {
		t.Fatalf("endpoint recovered before the window elapsed")
	}

	// Strictly past the window it recovers with a clean slate.
	clock.Advance(2 * time.Second)
	r.Select()
	if a.down {
		t.Fatalf("endpoint still down after recovery window elapsed")
	}
	if a.failures != 0 {
		t.Fatalf("failures = %d after recovery, want 0", a.failures)
	}
}

func TestRecoveryAppliesToAllDownEndpoints(t *testing.T) {
	clock := newFakeClock()
	r := NewRegistry(testSpecs("a", "b"), Config{MaxFailures: 1, RecoveryWindow: time.Minute}, WithClock(clock))

	r.ReportFailure(r.endpoints[0])
	r.ReportFailure(r.endpoints[1])

	clock.Advance(61 * time.Second)
	ep := r.Select()
	if ep == nil {
		t.Fatal("Select returned nil")
	}

	for _, h := range r.Snapshot() {
		if h.Down || h.Failures != 0 {
			t.Fatalf("endpoint %s not recovered: down=%v failures=%d", h.Name, h.Down, h.Failures)
		}
	}
}

func TestFailOpenReset(t *testing.T) {
	clock := newFakeClock()
	r := NewRegistry(testSpecs("a", "b", "c"), Config{MaxFailures: 1, RecoveryWindow: time.Hour}, WithClock(clock))

	for _, e := range r.endpoints {
		r.ReportFailure(e)
	}
	for _, h := range r.Snapshot() {
		if !h.Down {
			t.Fatalf("endpoint %s should be down", h.Name)
		}
	}

	// Recovery window has not elapsed, so this hits the fail-open path.
	ep := r.Select()
	if ep.Name() != "a" {
		t.Fatalf("fail-open select = %s, want first endpoint a", ep.Name())
	}
	for _, h := range r.Snapshot() {
		if h.Down || h.Failures != 0 {
			t.Fatalf("endpoint %s not reset: down=%v failures=%d", h.Name, h.Down, h.Failures)
		}
	}
}

func TestNewRegistryRequiresEndpoints(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for an empty endpoint pool")
		}
	}()
	NewRegistry(nil, DefaultConfig())
}

func TestSnapshot(t *testing.T) {
	clock := newFakeClock()
	r := NewRegistry(testSpecs("a", "b"), Config{MaxFailures: 5, RecoveryWindow: time.Minute}, WithClock(clock))

	if r.Len() != 2 {
		t.Fatalf("Len = %d, want 2", r.Len())
	}

	r.ReportFailure(r.endpoints[0])
	r.ReportFailure(r.endpoints[0])

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot len = %d, want 2", len(snap))
	}
	if snap[0].Failures != 2 || snap[0].Down {
		t.Fatalf("snapshot[0] = %+v, want 2 failures, not down", snap[0])
	}
	if snap[1].Failures != 0 {
		t.Fatalf("snapshot[1].Failures = %d, want 0", snap[1].Failures)
	}
	if !snap[0].LastFailure.Equal(clock.now) {
		t.Fatalf("snapshot[0].LastFailure = %v, want %v", snap[0].LastFailure, clock.now)
	}
}

func TestWeightIgnoredByDefaultStrategy(t *testing.T) {
	specs := []Spec{
		{Name: "heavy", Addr: "http://heavy.test", Weight: 100},
		{Name: "light", Addr: "http://light.test", Weight: 1},
	}
	r := NewRegistry(specs, DefaultConfig(), WithClock(newFakeClock()))

	counts := map[string]int{}
	for i := 0; i < 10; i++ {
		counts[r.Select().Name()]++
	}
	if counts["heavy"] != 5 || counts["light"] != 5 {
		t.Fatalf("round-robin should ignore weights, got %v", counts)
	}
}
