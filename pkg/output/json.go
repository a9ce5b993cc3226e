package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/sdejongh/filerecon/pkg/models"
)

// JSONFormatter writes the run report as a single JSON document for automation
type JSONFormatter struct {
	writer   io.Writer
	warnings []models.Warning
	errors   []string
}

// JSONReportData represents the final report data
type JSONReportData struct {
	RunID      string            `json:"run_id"`
	LeftRoot   string            `json:"left_root"`
	RightRoot  string            `json:"right_root"`
	Mode       string            `json:"mode"`
	Pairing    string            `json:"pairing"`
	Status     string            `json:"status"`
	Duration   string            `json:"duration"`
	DurationMs int64             `json:"duration_ms"`
	Stats      models.Statistics `json:"stats"`
	Warnings   []models.Warning  `json:"warnings,omitempty"`
	Errors     []string          `json:"errors,omitempty"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(writer io.Writer) *JSONFormatter {
	if writer == nil {
		writer = os.Stdout
	}
	return &JSONFormatter{writer: writer}
}

// Start initializes the formatter
func (f *JSONFormatter) Start(report *models.RunReport) error {
	f.warnings = nil
	f.errors = nil
	return nil
}

// Progress collects warnings; nothing is written until Complete
// to keep the output a single parseable document
func (f *JSONFormatter) Progress(update ProgressUpdate) error {
	if update.Type == UpdateWarning && update.Warning != nil {
		f.warnings = append(f.warnings, *update.Warning)
	}
	return nil
}

// Complete writes the report as indented JSON
func (f *JSONFormatter) Complete(report *models.RunReport) error {
	data := JSONReportData{
		RunID:      report.RunID,
		LeftRoot:   report.LeftRoot,
		RightRoot:  report.RightRoot,
		Mode:       report.Mode,
		Pairing:    report.Pairing,
		Status:     string(report.Status),
		Duration:   report.Duration.Round(time.Millisecond).String(),
		DurationMs: report.Duration.Milliseconds(),
		Stats:      report.Stats,
		Warnings:   f.warnings,
		Errors:     f.errors,
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Error records a fatal error for the final document
func (f *JSONFormatter) Error(err error) error {
	f.errors = append(f.errors, err.Error())
	return nil
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}
