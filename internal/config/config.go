package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/your-org/exec-duration/pkg/report"
	"gopkg.in/yaml.v3"
)

var (
	ErrNoWorkloads        = errors.New("config: workloads list is empty")
	ErrEmptyWorkloadName  = errors.New("config: workload name is empty")
	ErrEmptySegmentName   = errors.New("config: segment name is empty")
	ErrDuplicateWorkload  = errors.New("config: duplicate workload name")
	ErrNegativeIterations = errors.New("config: iterations must not be negative")
	ErrUnknownLogLevel    = errors.New("config: unknown log level")
)

// Config drives the demo runner: which blocks to execute and how to report them.
type Config struct {
	Format    string     `yaml:"format"`
	LogLevel  string     `yaml:"log_level"`
	Output    string     `yaml:"output"`
	Workloads []Workload `yaml:"workloads"`
}

// Workload is one probed block executed Iterations times.
type Workload struct {
	Name       string    `yaml:"name"`
	Iterations int       `yaml:"iterations"`
	Segments   []Segment `yaml:"segments"`
}

// Segment sleeps for Sleep and then adds a checkpoint named Name.
type Segment struct {
	Name  string `yaml:"name"`
	Sleep string `yaml:"sleep"`
}

// Duration parses Sleep. Empty means no sleep.
func (s Segment) Duration() (time.Duration, error) {
	if strings.TrimSpace(s.Sleep) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Sleep)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s.Sleep)
	}
	return d, nil
}

// Default mirrors the classic two-function example: main runs func1 (100ms) then func2 (50ms), ten times.
func Default() Config {
	return Config{
		Format:   string(report.FormatText),
		LogLevel: "info",
		Workloads: []Workload{
			{
				Name:       "main",
				Iterations: 10,
				Segments: []Segment{
					{Name: "func1", Sleep: "100ms"},
					{Name: "func2", Sleep: "50ms"},
				},
			},
		},
	}
}

// Load parses and validates a YAML config. Keys missing from the file keep their defaults.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := Default()
	cfg.Workloads = nil
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces structural correctness before anything runs.
func Validate(cfg Config) error {
	if _, err := report.ParseFormat(cfg.Format); err != nil {
		return fmt.Errorf("config: invalid format: %w", err)
	}
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	if len(cfg.Workloads) == 0 {
		return ErrNoWorkloads
	}

	seen := make(map[string]struct{}, len(cfg.Workloads))
	for _, w := range cfg.Workloads {
		if strings.TrimSpace(w.Name) == "" {
			return ErrEmptyWorkloadName
		}
		if _, exists := seen[w.Name]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateWorkload, w.Name)
		}
		seen[w.Name] = struct{}{}

		if w.Iterations < 0 {
			return fmt.Errorf("%w: workload %q", ErrNegativeIterations, w.Name)
		}
		for _, s := range w.Segments {
			if strings.TrimSpace(s.Name) == "" {
				return fmt.Errorf("%w: workload %q", ErrEmptySegmentName, w.Name)
			}
			if _, err := s.Duration(); err != nil {
				return fmt.Errorf("config: workload %q segment %q has invalid sleep: %w", w.Name, s.Name, err)
			}
		}
	}
	return nil
}

// ApplyEnv overrides cfg from EXECDUR_* variables. Unparsable values are ignored.
func ApplyEnv(cfg Config) Config {
	if v := strings.TrimSpace(os.Getenv("EXECDUR_FORMAT")); v != "" {
		if _, err := report.ParseFormat(v); err == nil {
			cfg.Format = v
		}
	}
	if v := strings.TrimSpace(os.Getenv("EXECDUR_LOG_LEVEL")); v != "" {
		if _, err := ParseLogLevel(v); err == nil {
			cfg.LogLevel = v
		}
	}
	if v, ok := os.LookupEnv("EXECDUR_OUTPUT"); ok {
		cfg.Output = strings.TrimSpace(v)
	}
	if v := os.Getenv("EXECDUR_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			workloads := make([]Workload, len(cfg.Workloads))
			copy(workloads, cfg.Workloads)
			for i := range workloads {
				workloads[i].Iterations = n
			}
			cfg.Workloads = workloads
		}
	}
	return cfg
}

// ParseLogLevel maps debug, info, warn and error to slog levels. Empty means info.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLogLevel, s)
	}
}
