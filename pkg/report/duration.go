package report

import (
	"fmt"
	"io"
	"math/bits"
	"strings"
	"time"
)

// ExecDuration is an immutable snapshot of one measured block or one of its segments.
//
// Roots carry their own total as parent total, so ExecPercent is always 100 for them.
// Children carry the root total, which makes their percentages fractions of the whole block.
type ExecDuration struct {
	name        string
	count       uint64
	duration    time.Duration
	parentTotal time.Duration
	children    []ExecDuration
}

// New builds a report node. Children are copied in the given order.
func New(name string, count uint64, duration, parentTotal time.Duration, children ...ExecDuration) ExecDuration {
	d := ExecDuration{
		name:        name,
		count:       count,
		duration:    duration,
		parentTotal: parentTotal,
	}
	if len(children) > 0 {
		d.children = append([]ExecDuration(nil), children...)
	}
	return d
}

// Name returns the probe or checkpoint name.
func (d ExecDuration) Name() string {
	return d.name
}

// ExecCount returns how many times the block or segment was recorded.
func (d ExecDuration) ExecCount() uint64 {
	return d.count
}

// TotalDuration returns the accumulated duration across all recorded executions.
func (d ExecDuration) TotalDuration() time.Duration {
	return d.duration
}

// ParentTotal returns the duration percentages are computed against.
func (d ExecDuration) ParentTotal() time.Duration {
	return d.parentTotal
}

// AvgDuration returns TotalDuration divided by ExecCount, or 0 when nothing was recorded.
func (d ExecDuration) AvgDuration() time.Duration {
	if d.count == 0 || d.duration <= 0 {
		return 0
	}
	return time.Duration(uint64(d.duration) / d.count)
}

// ExecPercent returns 100*TotalDuration/ParentTotal truncated to an integer.
// A non-positive parent total yields 0.
func (d ExecDuration) ExecPercent() int {
	if d.parentTotal <= 0 || d.duration <= 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(d.duration), 100)
	total := uint64(d.parentTotal)
	if hi >= total {
		// quotient would not fit in 64 bits; only reachable with a child larger than its parent
		return 100 * int(uint64(d.duration)/total)
	}
	quo, _ := bits.Div64(hi, lo, total)
	return int(quo)
}

// Elements returns a copy of the direct children, in first-seen checkpoint order.
func (d ExecDuration) Elements() []ExecDuration {
	if len(d.children) == 0 {
		return nil
	}
	return append([]ExecDuration(nil), d.children...)
}

// String renders the node on one line, then one line per child prefixed with "[<name>] ".
func (d ExecDuration) String() string {
	var b strings.Builder
	d.writeTo(&b)
	return b.String()
}

func (d ExecDuration) writeTo(b *strings.Builder) {
	fmt.Fprintf(b, "[%s] %d%% Call: %d T: %s Avg: %s\n",
		d.name,
		d.ExecPercent(),
		d.count,
		d.duration,
		d.AvgDuration(),
	)
	for _, child := range d.children {
		fmt.Fprintf(b, "[%s] ", d.name)
		child.writeTo(b)
	}
}

// Render writes the textual form of every result to w.
func Render(w io.Writer, results []ExecDuration) error {
	for _, r := range results {
		if _, err := io.WriteString(w, r.String()); err != nil {
			return fmt.Errorf("report: render %q: %w", r.name, err)
		}
	}
	return nil
}
