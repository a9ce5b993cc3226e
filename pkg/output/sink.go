package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sdejongh/filerecon/pkg/models"
)

// Sink receives the records of a run as they are produced.
// The engine writes from a single goroutine.
type Sink interface {
	WriteResult(result models.ComparisonResult) error
	WriteWarning(warning models.Warning) error
	WriteUnmatched(entry models.Unmatched) error
	Close() error
}

// Sink formats
const (
	SinkJSONL = "jsonl"
	SinkCSV   = "csv"
)

// OpenSink creates a results file in the given format.
// An empty path yields a sink that discards everything.
func OpenSink(path, format string) (Sink, error) {
	if path == "" {
		return Discard{}, nil
	}

	var w io.WriteCloser
	if path == "-" {
		w = nopCloser{os.Stdout}
	} else {
		file, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create results file: %w", err)
		}
		w = file
	}

	switch format {
	case SinkCSV:
		return NewCSVSink(w)
	case SinkJSONL, "":
		return NewJSONLSink(w), nil
	}
	w.Close()
	return nil, &models.ConfigError{Field: "results-format", Message: fmt.Sprintf("unknown format %q (valid: jsonl, csv)", format)}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// Discard drops every record
type Discard struct{}

func (Discard) WriteResult(models.ComparisonResult) error { return nil }
func (Discard) WriteWarning(models.Warning) error         { return nil }
func (Discard) WriteUnmatched(models.Unmatched) error     { return nil }
func (Discard) Close() error                              { return nil }

// JSONLSink writes one JSON object per line. Results carry their own
// "type" discriminator; warnings and unmatched entries are tagged here.
type JSONLSink struct {
	w   io.WriteCloser
	enc *json.Encoder
}

// NewJSONLSink creates a JSON lines sink over w
func NewJSONLSink(w io.WriteCloser) *JSONLSink {
	return &JSONLSink{w: w, enc: json.NewEncoder(w)}
}

// WriteResult writes a comparison result
func (s *JSONLSink) WriteResult(result models.ComparisonResult) error {
	return s.enc.Encode(result)
}

// WriteWarning writes a warning record
func (s *JSONLSink) WriteWarning(warning models.Warning) error {
	return s.enc.Encode(struct {
		Type string `json:"type"`
		models.Warning
	}{"warning", warning})
}

// WriteUnmatched writes an unmatched file record
func (s *JSONLSink) WriteUnmatched(entry models.Unmatched) error {
	return s.enc.Encode(struct {
		Type string `json:"type"`
		models.Unmatched
	}{"unmatched", entry})
}

// Close closes the underlying writer
func (s *JSONLSink) Close() error {
	return s.w.Close()
}
