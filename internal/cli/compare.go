package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sdejongh/filerecon/pkg/config"
	"github.com/sdejongh/filerecon/pkg/engine"
	"github.com/sdejongh/filerecon/pkg/models"
	"github.com/sdejongh/filerecon/pkg/output"
)

// CompareFlags holds compare command flags
type CompareFlags struct {
	// Comparison flags
	Mode             string
	Keys             []string
	NumericTolerance float64
	IgnoreEOL        bool
	IgnoreTrailingWS bool
	IgnoreAllWS      bool
	IgnoreCase       bool
	SkipEmptyLines   bool
	Similarity       string
	MaxDiffBytes     int64

	// Pairing flags
	Pairing     string
	Recursive   bool
	SizeRatio   float64
	TopK        int
	MaxDistance int
	MaxPairs    int
	MaxFanout   int
	Exclude     []string

	// Performance flags
	Parallel   int
	BatchSize  int
	TimeBudget time.Duration
	Bandwidth  string

	// Output flags
	Output        string
	Progress      bool
	Results       string
	ResultsFormat string

	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

var compareFlags CompareFlags

// NewCompareCommand creates the compare command
func NewCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare LEFT RIGHT",
		Short: "Reconcile two folders or files",
		Long: `Pair the files under LEFT with the files under RIGHT and report how
similar each pair is. Text files are diffed line by line; CSV, TSV and
JSON-lines tables are compared record by record when key columns are given.

LEFT and RIGHT may be local paths or s3://bucket/prefix URIs.

Exit codes: 0 success, 1 completed with warnings, 2 failed, 3 cancelled.`,
		Args: cobra.ExactArgs(2),
		RunE: runCompare,
	}

	addCompareFlags(cmd.Flags())
	return cmd
}

func addCompareFlags(fs *pflag.FlagSet) {
	def := config.Default()

	fs.StringVar(&compareFlags.Mode, "mode", def.Compare.Mode, "comparison mode: auto, text, structured")
	fs.StringArrayVar(&compareFlags.Keys, "key", nil, "key column for structured mode (repeatable, composite in order)")
	fs.Float64Var(&compareFlags.NumericTolerance, "numeric-tol", def.Compare.NumericTolerance, "absolute tolerance for numeric fields")
	fs.BoolVar(&compareFlags.IgnoreEOL, "ignore-eol", false, "treat CRLF, LF and a missing final newline as equal")
	fs.BoolVar(&compareFlags.IgnoreTrailingWS, "ignore-trailing-ws", false, "ignore trailing whitespace")
	fs.BoolVar(&compareFlags.IgnoreAllWS, "ignore-all-ws", false, "ignore all whitespace")
	fs.BoolVar(&compareFlags.IgnoreCase, "ignore-case", false, "compare lines case-insensitively")
	fs.BoolVar(&compareFlags.SkipEmptyLines, "skip-empty-lines", false, "drop blank lines before diffing")
	fs.StringVar(&compareFlags.Similarity, "similarity", def.Compare.Similarity, "text score: diff, char-jaro")
	fs.Int64Var(&compareFlags.MaxDiffBytes, "max-diff-bytes", def.Compare.MaxDiffBytes, "files above this size are compared by hash only")

	fs.StringVar(&compareFlags.Pairing, "pairing", def.Match.Pairing, "pairing strategy: same-path, same-name, all-vs-all")
	fs.BoolVar(&compareFlags.Recursive, "recursive", def.Match.Recursive, "descend into subdirectories")
	fs.Float64Var(&compareFlags.SizeRatio, "size-ratio", def.Match.SizeRatio, "minimum smaller/larger size ratio for all-vs-all")
	fs.IntVar(&compareFlags.TopK, "topk", def.Match.TopK, "fuzzy candidates kept per left file")
	fs.IntVar(&compareFlags.MaxDistance, "max-distance", def.Match.MaxDistance, "maximum locality hash distance for fuzzy pairs (0 = any)")
	fs.IntVar(&compareFlags.MaxPairs, "max-pairs", def.Match.MaxPairs, "cap on candidate pairs (0 = unlimited)")
	fs.IntVar(&compareFlags.MaxFanout, "max-fanout", def.Match.MaxFanout, "same-name candidates per left file (0 = unlimited)")
	fs.StringSliceVar(&compareFlags.Exclude, "exclude", nil, "glob patterns to exclude")

	fs.IntVarP(&compareFlags.Parallel, "parallel", "p", 0, "number of parallel workers (default: number of CPUs)")
	fs.IntVar(&compareFlags.BatchSize, "batch-size", def.Performance.BatchSize, "pairs dispatched between cancellation checks")
	fs.DurationVar(&compareFlags.TimeBudget, "time-budget", 0, "stop dispatching new batches after this long (0 = unlimited)")
	fs.StringVarP(&compareFlags.Bandwidth, "bandwidth", "b", "", "read bandwidth limit across both roots (e.g., \"10MB\", \"1GiB\")")

	fs.StringVarP(&compareFlags.Output, "output", "o", def.Output.Format, "output format: human, json")
	fs.BoolVar(&compareFlags.Progress, "progress", false, "show a progress bar")
	fs.StringVar(&compareFlags.Results, "results", "", "write result records to file (- for stdout)")
	fs.StringVar(&compareFlags.ResultsFormat, "results-format", def.Output.ResultsFormat, "results file format: jsonl, csv")

	fs.StringVar(&compareFlags.LogFile, "log-file", "", "write logs to file (enables logging)")
	fs.StringVar(&compareFlags.LogFormat, "log-format", def.Logging.Format, "log format: text, json")
	fs.StringVar(&compareFlags.LogLevel, "log-level", def.Logging.Level, "log level: debug, info, warn, error")
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	applyFlagsToConfig(cmd, cfg)

	if err := validateCompare(cfg, args[0], args[1]); err != nil {
		return err
	}

	report, err := executeCompare(ctx, cfg, args[0], args[1], os.Stdout)
	if report == nil {
		return err
	}
	if err != nil && cfg.Output.Quiet {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	// Exit with appropriate code
	os.Exit(report.Status.ExitCode())
	return nil
}

// executeCompare runs one reconciliation and closes every resource it opened.
// A nil report means the run could not be started.
func executeCompare(ctx context.Context, cfg *config.Config, left, right string, stdout io.Writer) (*models.RunReport, error) {
	engineConfig, err := buildEngineConfig(cfg, left, right)
	if err != nil {
		return nil, err
	}

	logger, err := createLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	sink, err := output.OpenSink(cfg.Output.Results, cfg.Output.ResultsFormat)
	if err != nil {
		return nil, err
	}

	// Results streamed to stdout push the summary to stderr
	summary := stdout
	if cfg.Output.Results == "-" {
		summary = os.Stderr
	}
	formatter := createFormatter(cfg.Output, summary)

	report, runErr := engine.NewEngine(engineConfig, sink, formatter, logger).Run(ctx)

	if err := sink.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to close results: %w", err)
		report.Status = models.StatusFailed
	}
	return report, runErr
}

// createFormatter picks the formatter for the configured output
func createFormatter(cfg config.OutputConfig, w io.Writer) output.Formatter {
	switch {
	case cfg.Quiet:
		return nil
	case cfg.Format == "json":
		return output.NewJSONFormatter(w)
	case cfg.Progress:
		return output.NewProgressFormatter(w)
	default:
		return output.NewHumanFormatter(w, cfg.Verbose)
	}
}
