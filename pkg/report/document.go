package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrSerializationDisabled is returned by structured codecs in builds without the execdur_serde tag.
var ErrSerializationDisabled = errors.New("report: structured serialization disabled (build with -tags execdur_serde)")

// ErrUnknownFormat is returned for format names other than text, json and yaml.
var ErrUnknownFormat = errors.New("report: unknown format")

// Format selects how a Document is written.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat normalizes a format name. Empty input means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Structured reports whether the format needs the structured codecs.
func (f Format) Structured() bool {
	return f == FormatJSON || f == FormatYAML
}

// Document wraps one snapshot for export.
type Document struct {
	ID          string         `json:"id" yaml:"id"`
	GeneratedAt time.Time      `json:"generated_at" yaml:"generated_at"`
	Results     []ExecDuration `json:"results" yaml:"results"`
}

// NewDocument stamps results with a fresh id and the current UTC time.
func NewDocument(results []ExecDuration) Document {
	return Document{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Results:     append([]ExecDuration(nil), results...),
	}
}

// Encode writes doc in the given format. Text is always available; json and yaml
// require the execdur_serde build tag.
func Encode(w io.Writer, format Format, doc Document) error {
	switch format {
	case FormatText, "":
		return Render(w, doc.Results)
	case FormatJSON, FormatYAML:
		return encodeStructured(w, format, doc)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
}

// Decode reads a document previously written with Encode in a structured format.
func Decode(r io.Reader, format Format) (Document, error) {
	if !format.Structured() {
		return Document{}, fmt.Errorf("%w: cannot decode %q", ErrUnknownFormat, string(format))
	}
	return decodeStructured(r, format)
}
