package execdur

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/your-org/exec-duration/internal/registry"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func findResult(results []ExecDuration, name string) (ExecDuration, bool) {
	for _, r := range results {
		if r.Name() == name {
			return r, true
		}
	}
	return ExecDuration{}, false
}

func TestProbeAggregatesRepeatedInvocations(t *testing.T) {
	const (
		name   = "probe_test.aggregate"
		n      = 5
		sleep1 = 20 * time.Millisecond
		sleep2 = 10 * time.Millisecond
		slack  = 50 * time.Millisecond
	)
	for i := 0; i < n; i++ {
		p := New(name)
		time.Sleep(sleep1)
		p.AddPoint("func1")
		time.Sleep(sleep2)
		p.AddPoint("func2")
		p.Stop()
	}

	r, ok := findResult(FetchResults(), name)
	if !ok {
		t.Fatalf("expected %q in results", name)
	}
	if r.ExecCount() != n {
		t.Fatalf("expected %d executions, got %d", n, r.ExecCount())
	}
	if r.TotalDuration() < n*(sleep1+sleep2) || r.TotalDuration() > n*(sleep1+sleep2+slack) {
		t.Fatalf("total %s outside expected range", r.TotalDuration())
	}
	if r.AvgDuration() < sleep1+sleep2 {
		t.Fatalf("average %s below %s", r.AvgDuration(), sleep1+sleep2)
	}

	elems := r.Elements()
	if len(elems) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(elems))
	}
	for i, want := range []struct {
		name  string
		sleep time.Duration
	}{{"func1", sleep1}, {"func2", sleep2}} {
		e := elems[i]
		if e.Name() != want.name {
			t.Fatalf("element %d: expected %q, got %q", i, want.name, e.Name())
		}
		if e.ExecCount() != n {
			t.Fatalf("%s: expected %d executions, got %d", e.Name(), n, e.ExecCount())
		}
		if e.TotalDuration() < n*want.sleep || e.TotalDuration() > n*(want.sleep+slack) {
			t.Fatalf("%s: total %s outside expected range", e.Name(), e.TotalDuration())
		}
		if len(e.Elements()) != 0 {
			t.Fatalf("%s: segments must not have children", e.Name())
		}
	}
}

func TestProbeWithoutPointsIsDiscarded(t *testing.T) {
	const name = "probe_test.no_points"
	p := New(name)
	time.Sleep(time.Millisecond)
	p.Stop()

	if _, ok := findResult(FetchResults(), name); ok {
		t.Fatalf("probe %q without checkpoints must not be reported", name)
	}
}

func TestProbeWithZeroTotalIsDiscarded(t *testing.T) {
	reg := registry.New()
	clock := newFakeClock()
	p := newProbe("frozen", reg, clock.now)
	p.AddPoint("a")
	if p.Points() != 1 {
		t.Fatalf("zero elapsed checkpoint should be kept, got %d points", p.Points())
	}
	p.Stop()
	if reg.Len() != 0 {
		t.Fatal("probe with zero total must not be reported")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	reg := registry.New()
	clock := newFakeClock()

	p := newProbe("idem", reg, clock.now)
	clock.advance(10 * time.Millisecond)
	p.AddPoint("a")
	p.Stop()
	clock.advance(time.Second)
	p.Stop()
	p.AddPoint("late")
	p.Stop()

	snap := reg.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected 1 result, got %d", len(snap))
	}
	if snap[0].ExecCount() != 1 || snap[0].TotalDuration() != 10*time.Millisecond {
		t.Fatalf("unexpected aggregate after repeated stops: %s", snap[0])
	}
	if len(snap[0].Elements()) != 1 {
		t.Fatalf("points added after Stop must be ignored, got %v", snap[0].Elements())
	}
}

func TestDeferredStopAfterExplicitStop(t *testing.T) {
	reg := registry.New()
	clock := newFakeClock()

	func() {
		p := newProbe("deferred", reg, clock.now)
		defer p.Stop()
		clock.advance(time.Millisecond)
		p.AddPoint("a")
		p.Stop()
	}()

	if got := reg.Snapshot()[0].ExecCount(); got != 1 {
		t.Fatalf("expected exactly one commit, got %d", got)
	}
}

func TestBackwardClockDropsCheckpoint(t *testing.T) {
	reg := registry.New()
	clock := newFakeClock()

	p := newProbe("skew", reg, clock.now)
	clock.advance(10 * time.Millisecond)
	p.AddPoint("a")
	clock.advance(-5 * time.Millisecond)
	p.AddPoint("dropped")
	clock.advance(15 * time.Millisecond)
	p.AddPoint("b")
	p.Stop()

	root := reg.Snapshot()[0]
	elems := root.Elements()
	if len(elems) != 2 || elems[0].Name() != "a" || elems[1].Name() != "b" {
		t.Fatalf("unexpected elements: %v", elems)
	}
	if elems[1].TotalDuration() != 10*time.Millisecond {
		t.Fatalf("b should be measured from the last kept checkpoint, got %s", elems[1].TotalDuration())
	}
	if root.TotalDuration() != 20*time.Millisecond {
		t.Fatalf("unexpected total %s", root.TotalDuration())
	}
}

func TestBackwardClockDiscardsProbe(t *testing.T) {
	reg := registry.New()
	clock := newFakeClock()

	p := newProbe("rewind", reg, clock.now)
	clock.advance(time.Millisecond)
	p.AddPoint("a")
	clock.advance(-time.Hour)
	p.Stop()

	if reg.Len() != 0 {
		t.Fatal("probe stopped before its start must be discarded")
	}
	clock.advance(2 * time.Hour)
	p.Stop()
	if reg.Len() != 0 {
		t.Fatal("discarded probe must stay stopped")
	}
}

func TestMeasureStopsOnEveryExitPath(t *testing.T) {
	const name = "probe_test.measure"
	errBoom := errors.New("boom")

	err := Measure(name, func(p *Probe) error {
		time.Sleep(time.Millisecond)
		p.AddPoint("work")
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected fn error to propagate, got %v", err)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = Measure(name, func(p *Probe) error {
			time.Sleep(time.Millisecond)
			p.AddPoint("work")
			panic("unwinding")
		})
	}()

	if err := Measure(name, func(p *Probe) error {
		time.Sleep(time.Millisecond)
		p.AddPoint("work")
		p.Stop()
		return nil
	}); err != nil {
		t.Fatalf("measure: %v", err)
	}

	r, ok := findResult(FetchResults(), name)
	if !ok {
		t.Fatalf("expected %q in results", name)
	}
	if r.ExecCount() != 3 {
		t.Fatalf("expected 3 commits, got %d", r.ExecCount())
	}
}

func TestMonotonicAccumulationThroughFetch(t *testing.T) {
	const name = "probe_test.monotonic"
	run := func(times int) {
		for i := 0; i < times; i++ {
			p := New(name)
			time.Sleep(time.Millisecond)
			p.AddPoint("step")
			p.Stop()
		}
	}

	run(2)
	first, _ := findResult(FetchResults(), name)
	run(3)
	second, _ := findResult(FetchResults(), name)

	if second.ExecCount()-first.ExecCount() != 3 {
		t.Fatalf("expected count to grow by 3, got %d -> %d", first.ExecCount(), second.ExecCount())
	}
	if second.TotalDuration() < first.TotalDuration() {
		t.Fatal("total duration decreased between snapshots")
	}
}

func TestNilProbeIsSafe(t *testing.T) {
	var p *Probe
	p.AddPoint("a")
	p.Stop()
	if p.Name() != "" || p.Points() != 0 {
		t.Fatal("nil probe should report zero values")
	}
}

func TestSetLoggerReportsDrops(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { SetLogger(nil) })

	reg := registry.New()
	clock := newFakeClock()
	p := newProbe("logged", reg, clock.now)
	clock.advance(-time.Millisecond)
	p.AddPoint("a")
	p.Stop()

	out := buf.String()
	if !strings.Contains(out, "checkpoint dropped") || !strings.Contains(out, "probe=logged") {
		t.Fatalf("expected drop to be logged, got %q", out)
	}
}
