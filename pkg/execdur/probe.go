package execdur

import (
	"time"

	"github.com/your-org/exec-duration/internal/registry"
)

// Probe times one execution of a named block. It must stay on the goroutine that created it.
type Probe struct {
	name    string
	start   time.Time
	last    time.Time
	points  []registry.Checkpoint
	stopped bool

	reg *registry.Registry
	now func() time.Time
}

// New starts a probe reporting to the process-wide registry.
func New(name string) *Probe {
	return newProbe(name, registry.Default(), time.Now)
}

func newProbe(name string, reg *registry.Registry, now func() time.Time) *Probe {
	t := now()
	return &Probe{
		name:  name,
		start: t,
		last:  t,
		reg:   reg,
		now:   now,
	}
}

// Name returns the block name the probe reports under.
func (p *Probe) Name() string {
	if p == nil {
		return ""
	}
	return p.name
}

// Points returns how many checkpoints have been kept so far.
func (p *Probe) Points() int {
	if p == nil {
		return 0
	}
	return len(p.points)
}

// AddPoint records the time elapsed since the previous checkpoint (or since New) under name.
//
// If the clock reads earlier than the previous checkpoint the point is dropped and the
// next checkpoint is measured from the previous one. Points added after Stop are ignored.
func (p *Probe) AddPoint(name string) {
	if p == nil || p.stopped {
		return
	}
	t := p.now()
	elapsed := t.Sub(p.last)
	if elapsed < 0 {
		logger().Debug("execdur: checkpoint dropped, clock moved backwards",
			"probe", p.name, "point", name, "skew", -elapsed)
		return
	}
	p.points = append(p.points, registry.Checkpoint{Name: name, Elapsed: elapsed})
	p.last = t
}

// Stop commits the probe. Only the first call has an effect.
//
// Nothing is committed when no checkpoint was added, when the total is zero, or when
// the clock reads earlier than the probe start.
func (p *Probe) Stop() {
	if p == nil || p.stopped {
		return
	}
	p.stopped = true

	total := p.now().Sub(p.start)
	if total < 0 {
		logger().Debug("execdur: probe discarded, clock moved backwards",
			"probe", p.name, "skew", -total)
		return
	}

	rec := registry.Record{
		Name:        p.name,
		Start:       p.start,
		Total:       total,
		Checkpoints: p.points,
	}
	p.points = nil
	if !p.reg.Fold(rec) {
		logger().Debug("execdur: probe discarded, nothing to report",
			"probe", rec.Name, "points", len(rec.Checkpoints), "total", rec.Total)
	}
}

// Measure runs fn with a fresh probe and stops it when fn returns, errors or panics.
// fn's error is returned unchanged.
func Measure(name string, fn func(p *Probe) error) error {
	p := New(name)
	defer p.Stop()
	return fn(p)
}
