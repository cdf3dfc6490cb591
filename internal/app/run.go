package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/your-org/exec-duration/internal/config"
	"github.com/your-org/exec-duration/pkg/execdur"
	"github.com/your-org/exec-duration/pkg/report"
)

// RunReport captures the outputs from one config execution.
type RunReport struct {
	Workloads []WorkloadResult
	Document  report.Document
	Format    report.Format
}

// WorkloadResult is the wall time one workload took across all its iterations.
type WorkloadResult struct {
	Name       string
	Iterations int
	Elapsed    time.Duration
}

// LoadConfig reads path, or returns the defaults when path is empty, then applies env overrides.
func LoadConfig(path string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	cfg = config.ApplyEnv(cfg)
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// ValidateConfig loads and validates a config only.
func ValidateConfig(path string) error {
	if _, err := LoadConfig(path); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// Run loads the config at path, executes its workloads and writes the report to
// out, or to the configured output file.
func Run(ctx context.Context, path string, out io.Writer, logger *slog.Logger) error {
	logger = orDiscard(logger)
	cfg, err := LoadConfig(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	rep, err := RunReportFor(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Output == "" {
		return report.Encode(out, rep.Format, rep.Document)
	}
	if err := writeReportFile(cfg.Output, rep); err != nil {
		return err
	}
	logger.Info("report written", "path", cfg.Output, "format", string(rep.Format), "results", len(rep.Document.Results))
	return nil
}

// RunReportFor executes every workload of cfg through probes and snapshots the results.
func RunReportFor(ctx context.Context, cfg config.Config, logger *slog.Logger) (RunReport, error) {
	logger = orDiscard(logger)
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return RunReport{}, err
	}
	if format.Structured() && !report.SerializationEnabled {
		return RunReport{}, fmt.Errorf("format %q: %w", format, report.ErrSerializationDisabled)
	}

	rep := RunReport{Format: format}
	names := make(map[string]struct{}, len(cfg.Workloads))
	for _, w := range cfg.Workloads {
		res, err := runWorkload(ctx, w)
		status := "success"
		if err != nil {
			status = "error"
		}
		logger.Info("workload finished",
			"workload", w.Name,
			"iterations", res.Iterations,
			"duration_ms", res.Elapsed.Milliseconds(),
			"status", status,
		)
		if err != nil {
			return RunReport{}, fmt.Errorf("workload %q: %w", w.Name, err)
		}
		rep.Workloads = append(rep.Workloads, res)
		names[w.Name] = struct{}{}
	}

	var results []report.ExecDuration
	for _, r := range execdur.FetchResults() {
		if _, ok := names[r.Name()]; ok {
			results = append(results, r)
		}
	}
	rep.Document = report.NewDocument(results)
	return rep, nil
}

func runWorkload(ctx context.Context, w config.Workload) (WorkloadResult, error) {
	sleeps := make([]time.Duration, len(w.Segments))
	for i, s := range w.Segments {
		d, err := s.Duration()
		if err != nil {
			return WorkloadResult{Name: w.Name}, fmt.Errorf("segment %q: %w", s.Name, err)
		}
		sleeps[i] = d
	}

	iterations := w.Iterations
	if iterations == 0 {
		iterations = 1
	}

	res := WorkloadResult{Name: w.Name}
	start := time.Now()

	for i := 0; i < iterations; i++ {
		err := execdur.Measure(w.Name, func(p *execdur.Probe) error {
			for j, s := range w.Segments {
				if err := sleepCtx(ctx, sleeps[j]); err != nil {
					return err
				}
				p.AddPoint(s.Name)
			}
			return nil
		})
		if err != nil {
			res.Elapsed = time.Since(start)
			return res, err
		}
		res.Iterations++
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func writeReportFile(path string, rep RunReport) (retErr error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report mkdir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report create %q: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil && retErr == nil {
			retErr = fmt.Errorf("report close %q: %w", path, err)
		}
	}()
	return report.Encode(f, rep.Format, rep.Document)
}
