package output

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/sdejongh/filerecon/pkg/models"
)

var csvHeader = []string{
	"record", "linked_id", "file1", "file2", "similarity", "identical",
	"common", "only_in_1", "only_in_2", "detail",
}

// CSVSink writes a flattened summary row per record
type CSVSink struct {
	w  io.WriteCloser
	cw *csv.Writer
}

// NewCSVSink creates a CSV sink over w and writes the header row
func NewCSVSink(w io.WriteCloser) (*CSVSink, error) {
	s := &CSVSink{w: w, cw: csv.NewWriter(w)}
	if err := s.cw.Write(csvHeader); err != nil {
		return nil, err
	}
	return s, nil
}

// WriteResult writes one summary row for a comparison result
func (s *CSVSink) WriteResult(result models.ComparisonResult) error {
	file1, file2 := result.Files()
	row := []string{
		string(result.Kind()),
		result.ID(),
		file1,
		file2,
		strconv.FormatFloat(result.Score(), 'f', 6, 64),
		strconv.FormatBool(result.IsIdentical()),
	}

	switch r := result.(type) {
	case *models.TextResult:
		row = append(row, strconv.Itoa(r.CommonLines), strconv.Itoa(r.OnlyIn1), strconv.Itoa(r.OnlyIn2), string(r.ScoreMode))
	case *models.StructuredResult:
		row = append(row, strconv.Itoa(r.CommonRecords), strconv.Itoa(r.OnlyIn1), strconv.Itoa(r.OnlyIn2), mismatchSummary(r))
	default:
		row = append(row, "", "", "", "")
	}
	return s.cw.Write(row)
}

// WriteWarning writes a warning row
func (s *CSVSink) WriteWarning(warning models.Warning) error {
	return s.cw.Write([]string{
		"warning", warning.LinkedID, warning.Path, warning.Path2, "", "", "", "", "",
		string(warning.Kind) + ": " + warning.Message,
	})
}

// WriteUnmatched writes an unmatched file row
func (s *CSVSink) WriteUnmatched(entry models.Unmatched) error {
	file1, file2 := entry.Path, ""
	if entry.Side == models.SideRight {
		file1, file2 = "", entry.Path
	}
	return s.cw.Write([]string{"unmatched", "", file1, file2, "", "", "", "", "", entry.Reason})
}

// Close flushes buffered rows and closes the writer
func (s *CSVSink) Close() error {
	s.cw.Flush()
	if err := s.cw.Error(); err != nil {
		s.w.Close()
		return err
	}
	return s.w.Close()
}

// mismatchSummary renders per-column counts as "col=n;col=n" sorted by column
func mismatchSummary(r *models.StructuredResult) string {
	columns := make([]string, 0, len(r.FieldMismatches))
	for c := range r.FieldMismatches {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = c + "=" + strconv.Itoa(r.FieldMismatches[c].Count)
	}
	return strings.Join(parts, ";")
}
