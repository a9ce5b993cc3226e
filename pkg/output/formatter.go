package output

import (
	"github.com/sdejongh/filerecon/pkg/models"
)

// Progress update types
const (
	UpdatePhase        = "phase"
	UpdatePairsTotal   = "pairs_total"
	UpdatePairComplete = "pair_complete"
	UpdatePairFailed   = "pair_failed"
	UpdateWarning      = "warning"
)

// ProgressUpdate represents a progress notification during a run
type ProgressUpdate struct {
	Type    string // one of the Update* constants
	Phase   string
	Total   int
	Done    int
	Result  models.ComparisonResult
	Warning *models.Warning
}

// Formatter defines the interface for run output
// Implementations include human-readable, JSON and progress bar formatters
type Formatter interface {
	// Start announces a new run
	Start(report *models.RunReport) error

	// Progress reports progress during the run
	Progress(update ProgressUpdate) error

	// Complete finalizes output and displays the summary
	Complete(report *models.RunReport) error

	// Error reports a fatal error
	Error(err error) error

	// Name returns the formatter name
	Name() string
}
