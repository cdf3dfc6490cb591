package execdur

import (
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/your-org/exec-duration/internal/registry"
	"github.com/your-org/exec-duration/pkg/report"
)

// ExecDuration is the aggregated report of one block or segment.
type ExecDuration = report.ExecDuration

// FetchResults snapshots everything recorded so far in the process.
func FetchResults() []ExecDuration {
	return registry.Default().Snapshot()
}

// Print writes the textual form of FetchResults to w.
func Print(w io.Writer) error {
	return report.Render(w, FetchResults())
}

var pkgLogger atomic.Pointer[slog.Logger]

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))

// SetLogger installs the logger used for debug records about dropped checkpoints and
// discarded probes. A nil logger restores the silent default.
func SetLogger(l *slog.Logger) {
	pkgLogger.Store(l)
}

func logger() *slog.Logger {
	if l := pkgLogger.Load(); l != nil {
		return l
	}
	return discardLogger
}
