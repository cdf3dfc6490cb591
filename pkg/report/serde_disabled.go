//go:build !execdur_serde

package report

import (
	"io"
)

// SerializationEnabled reports whether this build carries the structured codecs.
const SerializationEnabled = false

func encodeStructured(io.Writer, Format, Document) error {
	return ErrSerializationDisabled
}

func decodeStructured(io.Reader, Format) (Document, error) {
	return Document{}, ErrSerializationDisabled
}

// SaveToFile always fails in builds without the execdur_serde tag.
func SaveToFile(string, Document) error {
	return ErrSerializationDisabled
}

// LoadFromFile always fails in builds without the execdur_serde tag.
func LoadFromFile(string) (Document, error) {
	return Document{}, ErrSerializationDisabled
}
