package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/your-org/exec-duration/pkg/report"
)

// Registry folds finished probe records into per-name running statistics.
//
// Entries are never evicted: a process that keeps inventing probe or checkpoint
// names grows the table without bound.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	total    time.Duration
	count    uint64
	segments map[string]*segment
}

// segment order is fixed at first sight of the checkpoint name.
type segment struct {
	order int
	count uint64
	total time.Duration
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry, creating it on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = New()
	})
	return defaultRegistry
}

func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Fold adds rec to the aggregate for rec.Name. Records with no checkpoints or a
// non-positive total are ignored and Fold returns false.
func (r *Registry) Fold(rec Record) bool {
	if !rec.Committable() {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[rec.Name]
	if !ok {
		e = &entry{segments: make(map[string]*segment)}
		r.entries[rec.Name] = e
	}
	e.total += rec.Total
	e.count++

	for _, cp := range rec.Checkpoints {
		s, ok := e.segments[cp.Name]
		if !ok {
			s = &segment{order: len(e.segments)}
			e.segments[cp.Name] = s
		}
		s.total += cp.Elapsed
		s.count++
	}
	return true
}

// Snapshot materializes the current state. Roots are sorted by name; children
// follow first-seen checkpoint order and report against the root total.
func (r *Registry) Snapshot() []report.ExecDuration {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]report.ExecDuration, 0, len(names))
	for _, name := range names {
		e := r.entries[name]

		ordered := make([]string, len(e.segments))
		for segName, s := range e.segments {
			ordered[s.order] = segName
		}
		children := make([]report.ExecDuration, 0, len(ordered))
		for _, segName := range ordered {
			s := e.segments[segName]
			children = append(children, report.New(segName, s.count, s.total, e.total))
		}
		out = append(out, report.New(name, e.count, e.total, e.total, children...))
	}
	return out
}

// Len returns the number of distinct probe names recorded so far.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
