package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sdejongh/filerecon/pkg/models"
)

// HumanFormatter formats output in human-readable format
type HumanFormatter struct {
	writer  io.Writer
	verbose bool
}

// NewHumanFormatter creates a new human-readable formatter.
// When verbose is set every compared pair is printed as it completes.
func NewHumanFormatter(writer io.Writer, verbose bool) *HumanFormatter {
	if writer == nil {
		writer = os.Stdout
	}
	return &HumanFormatter{writer: writer, verbose: verbose}
}

// Start initializes the formatter
func (f *HumanFormatter) Start(report *models.RunReport) error {
	fmt.Fprintf(f.writer, "Comparing %s with %s (mode %s, pairing %s)\n",
		report.LeftRoot, report.RightRoot, report.Mode, report.Pairing)
	return nil
}

// Progress reports progress during the run
func (f *HumanFormatter) Progress(update ProgressUpdate) error {
	if !f.verbose {
		return nil
	}

	switch update.Type {
	case UpdatePairComplete:
		file1, file2 := update.Result.Files()
		mark := "≠"
		if update.Result.IsIdentical() {
			mark = "="
		}
		fmt.Fprintf(f.writer, "[%d/%d] %s %s %s (%.3f)\n",
			update.Done, update.Total, file1, mark, file2, update.Result.Score())

	case UpdateWarning:
		fmt.Fprintf(f.writer, "warning: %s\n", describeWarning(update.Warning))
	}

	return nil
}

// Complete finalizes output and displays summary
func (f *HumanFormatter) Complete(report *models.RunReport) error {
	writeSummary(f.writer, report)
	return nil
}

// Error reports an error
func (f *HumanFormatter) Error(err error) error {
	fmt.Fprintf(f.writer, "Error: %v\n", err)
	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}

func writeSummary(w io.Writer, report *models.RunReport) {
	s := report.Stats
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Run %s completed in %s\n", report.RunID, report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "  Indexed:\n")
	fmt.Fprintf(w, "    Left:           %d files\n", s.LeftFiles)
	fmt.Fprintf(w, "    Right:          %d files\n", s.RightFiles)
	fmt.Fprintf(w, "    Fingerprinted:  %d files, %s\n", s.Fingerprinted, formatBytes(s.BytesHashed))
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Pairs:\n")
	fmt.Fprintf(w, "    Candidates:     %d\n", s.CandidatePairs)
	fmt.Fprintf(w, "    Compared:       %d\n", s.PairsCompared)
	fmt.Fprintf(w, "    Identical:      %d\n", s.PairsIdentical)
	fmt.Fprintf(w, "    Failed:         %d\n", s.PairsFailed)
	fmt.Fprintf(w, "    Aborted:        %d\n", s.PairsAborted)
	if s.PairsCompared > 0 {
		fmt.Fprintf(w, "    Average score:  %.3f\n", s.AverageScore)
	}
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Unmatched:\n")
	fmt.Fprintf(w, "    Left:           %d\n", s.UnmatchedLeft)
	fmt.Fprintf(w, "    Right:          %d\n", s.UnmatchedRight)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Warnings:         %d\n", s.Warnings)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Status: %s\n", report.Status)
}

func describeWarning(w *models.Warning) string {
	if w == nil {
		return ""
	}
	switch {
	case w.Path != "" && w.Path2 != "":
		return fmt.Sprintf("[%s] %s <-> %s: %s", w.Kind, w.Path, w.Path2, w.Message)
	case w.Path != "":
		return fmt.Sprintf("[%s] %s: %s", w.Kind, w.Path, w.Message)
	default:
		return fmt.Sprintf("[%s] %s", w.Kind, w.Message)
	}
}

// formatBytes formats bytes in human-readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
