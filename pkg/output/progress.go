package output

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"

	"github.com/sdejongh/filerecon/pkg/models"
)

const progressTemplate = `{{string . "phase"}} {{counters . }} {{bar . "[" "=" ">" " " "]"}} {{percent . }} {{string . "current"}}`

// getUpdateInterval returns the progress refresh interval based on OS
// Windows terminals have higher latency with ANSI sequences, so we use a longer interval
func getUpdateInterval() time.Duration {
	if runtime.GOOS == "windows" {
		return 300 * time.Millisecond
	}
	return 100 * time.Millisecond
}

// ProgressFormatter draws a progress bar over compared pairs
type ProgressFormatter struct {
	writer    io.Writer
	termWidth int
	terminal  bool

	mu        sync.Mutex
	bar       *pb.ProgressBar
	warnings  int
	lastPhase string
}

// NewProgressFormatter creates a new progress bar formatter.
// Outside a terminal only phase changes and the summary are printed.
func NewProgressFormatter(writer io.Writer) *ProgressFormatter {
	if writer == nil {
		writer = os.Stdout
	}
	f := &ProgressFormatter{writer: writer, termWidth: 120}

	if file, ok := writer.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		f.terminal = true
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
			f.termWidth = width
		}
	}
	return f
}

// Start initializes the formatter
func (f *ProgressFormatter) Start(report *models.RunReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.warnings = 0
	f.lastPhase = ""
	fmt.Fprintf(f.writer, "Comparing %s with %s\n", report.LeftRoot, report.RightRoot)
	return nil
}

// Progress reports progress during the run
func (f *ProgressFormatter) Progress(update ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch update.Type {
	case UpdatePhase:
		if update.Phase != f.lastPhase {
			f.lastPhase = update.Phase
			if f.bar == nil {
				fmt.Fprintf(f.writer, "%s...\n", update.Phase)
			}
		}

	case UpdatePairsTotal:
		if !f.terminal || update.Total == 0 {
			return nil
		}
		f.bar = pb.ProgressBarTemplate(progressTemplate).New(update.Total)
		f.bar.SetWriter(f.writer)
		f.bar.SetMaxWidth(f.termWidth)
		f.bar.SetRefreshRate(getUpdateInterval())
		f.bar.Set("phase", "compare")
		f.bar.Set("current", "")
		f.bar.Start()

	case UpdatePairComplete, UpdatePairFailed:
		if f.bar == nil {
			return nil
		}
		if update.Result != nil {
			file1, _ := update.Result.Files()
			f.bar.Set("current", f.truncate(file1))
		}
		f.bar.Increment()

	case UpdateWarning:
		f.warnings++
		if f.bar != nil {
			f.bar.Set("phase", fmt.Sprintf("compare (%d warnings)", f.warnings))
		}
	}

	return nil
}

// truncate keeps the bar on one line
func (f *ProgressFormatter) truncate(path string) string {
	limit := f.termWidth / 3
	if limit < 10 || len(path) <= limit {
		return path
	}
	return "..." + path[len(path)-limit+3:]
}

// Complete stops the bar and prints the summary
func (f *ProgressFormatter) Complete(report *models.RunReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bar != nil {
		f.bar.Set("current", "")
		f.bar.Finish()
		f.bar = nil
	}
	writeSummary(f.writer, report)
	return nil
}

// Error reports an error
func (f *ProgressFormatter) Error(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bar != nil {
		f.bar.Finish()
		f.bar = nil
	}
	fmt.Fprintf(f.writer, "Error: %v\n", err)
	return nil
}

// Name returns the formatter name
func (f *ProgressFormatter) Name() string {
	return "progress"
}
