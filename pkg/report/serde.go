//go:build execdur_serde

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SerializationEnabled reports whether this build carries the structured codecs.
const SerializationEnabled = true

// wireDuration is the encoded form of ExecDuration. Percent and average are written
// for readers and ignored on decode.
type wireDuration struct {
	Name          string         `json:"name" yaml:"name"`
	Count         uint64         `json:"count" yaml:"count"`
	DurationNS    int64          `json:"duration_ns" yaml:"duration_ns"`
	ParentTotalNS int64          `json:"parent_total_ns" yaml:"parent_total_ns"`
	ExecPercent   int            `json:"exec_percent" yaml:"exec_percent"`
	AvgNS         int64          `json:"avg_duration_ns" yaml:"avg_duration_ns"`
	Children      []ExecDuration `json:"children,omitempty" yaml:"children,omitempty"`
}

func (d ExecDuration) toWire() wireDuration {
	return wireDuration{
		Name:          d.name,
		Count:         d.count,
		DurationNS:    int64(d.duration),
		ParentTotalNS: int64(d.parentTotal),
		ExecPercent:   d.ExecPercent(),
		AvgNS:         int64(d.AvgDuration()),
		Children:      d.children,
	}
}

func (d *ExecDuration) fromWire(w wireDuration) {
	*d = New(w.Name, w.Count, time.Duration(w.DurationNS), time.Duration(w.ParentTotalNS), w.Children...)
}

func (d ExecDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.toWire())
}

func (d *ExecDuration) UnmarshalJSON(b []byte) error {
	var w wireDuration
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	d.fromWire(w)
	return nil
}

func (d ExecDuration) MarshalYAML() (interface{}, error) {
	return d.toWire(), nil
}

func (d *ExecDuration) UnmarshalYAML(value *yaml.Node) error {
	var w wireDuration
	if err := value.Decode(&w); err != nil {
		return err
	}
	d.fromWire(w)
	return nil
}

func encodeStructured(w io.Writer, format Format, doc Document) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("report: encode json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("report: encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("report: encode yaml: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
	return nil
}

func decodeStructured(r io.Reader, format Format) (Document, error) {
	var doc Document
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return Document{}, fmt.Errorf("report: decode json: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return Document{}, fmt.Errorf("report: decode yaml: %w", err)
		}
	default:
		return Document{}, fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
	return doc, nil
}

// SaveToFile writes doc to path, choosing yaml for .yaml/.yml and json otherwise.
func SaveToFile(path string, doc Document) error {
	var b strings.Builder
	if err := encodeStructured(&b, formatForPath(path), doc); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("report: write %q: %w", path, err)
	}
	return nil
}

// LoadFromFile reads a document written by SaveToFile.
func LoadFromFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("report: read %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	doc, err := decodeStructured(f, formatForPath(path))
	if err != nil {
		return Document{}, fmt.Errorf("report: load %q: %w", path, err)
	}
	return doc, nil
}

func formatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}
