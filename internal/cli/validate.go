package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sdejongh/filerecon/internal/platform"
	"github.com/sdejongh/filerecon/pkg/compare"
	"github.com/sdejongh/filerecon/pkg/config"
	"github.com/sdejongh/filerecon/pkg/engine"
	"github.com/sdejongh/filerecon/pkg/index"
	"github.com/sdejongh/filerecon/pkg/logging"
	"github.com/sdejongh/filerecon/pkg/match"
	"github.com/sdejongh/filerecon/pkg/models"
	"github.com/sdejongh/filerecon/pkg/ratelimit"
	"github.com/sdejongh/filerecon/pkg/storage"
)

// validateCompare checks the merged configuration and the two roots
func validateCompare(cfg *config.Config, left, right string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if left == "" || right == "" {
		return &models.ConfigError{Field: "roots", Message: "LEFT and RIGHT must not be empty"}
	}

	for _, root := range []string{left, right} {
		// Object store roots need an endpoint
		if _, _, isObject := storage.ParseObjectURI(root); isObject {
			if cfg.Storage.Endpoint == "" {
				return &models.ConfigError{Field: "storage.endpoint", Message: "required for " + root}
			}
			continue
		}
		if err := platform.ValidateRoot(root); err != nil {
			return &models.ConfigError{Field: "roots", Message: err.Error()}
		}
	}

	if sameLocalPath(left, right) {
		return &models.ConfigError{Field: "roots", Message: "LEFT and RIGHT are the same path: " + left}
	}

	return nil
}

func sameLocalPath(a, b string) bool {
	if _, _, ok := storage.ParseObjectURI(a); ok {
		return a == b
	}
	return platform.SameRoot(a, b)
}

// loadConfig loads configuration from the configured file or the default location
func loadConfig() (*config.Config, error) {
	path := globalFlags.ConfigFile
	if path == "" {
		defaultPath, err := config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(defaultPath); err == nil {
			path = defaultPath
		}
	}
	return config.Load(path, globalFlags.EnvFile)
}

// applyFlagsToConfig overrides config values with the flags set on the command line
func applyFlagsToConfig(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	// Comparison
	if flags.Changed("mode") {
		cfg.Compare.Mode = compareFlags.Mode
	}
	if flags.Changed("key") {
		cfg.Compare.KeyColumns = compareFlags.Keys
	}
	if flags.Changed("numeric-tol") {
		cfg.Compare.NumericTolerance = compareFlags.NumericTolerance
	}
	if flags.Changed("ignore-eol") {
		cfg.Compare.IgnoreEOL = compareFlags.IgnoreEOL
	}
	if flags.Changed("ignore-trailing-ws") {
		cfg.Compare.IgnoreTrailingWS = compareFlags.IgnoreTrailingWS
	}
	if flags.Changed("ignore-all-ws") {
		cfg.Compare.IgnoreAllWS = compareFlags.IgnoreAllWS
	}
	if flags.Changed("ignore-case") {
		cfg.Compare.IgnoreCase = compareFlags.IgnoreCase
	}
	if flags.Changed("skip-empty-lines") {
		cfg.Compare.SkipEmptyLines = compareFlags.SkipEmptyLines
	}
	if flags.Changed("similarity") {
		cfg.Compare.Similarity = compareFlags.Similarity
	}
	if flags.Changed("max-diff-bytes") {
		cfg.Compare.MaxDiffBytes = compareFlags.MaxDiffBytes
	}

	// Pairing
	if flags.Changed("pairing") {
		cfg.Match.Pairing = compareFlags.Pairing
	}
	if flags.Changed("recursive") {
		cfg.Match.Recursive = compareFlags.Recursive
	}
	if flags.Changed("size-ratio") {
		cfg.Match.SizeRatio = compareFlags.SizeRatio
	}
	if flags.Changed("topk") {
		cfg.Match.TopK = compareFlags.TopK
	}
	if flags.Changed("max-distance") {
		cfg.Match.MaxDistance = compareFlags.MaxDistance
	}
	if flags.Changed("max-pairs") {
		cfg.Match.MaxPairs = compareFlags.MaxPairs
	}
	if flags.Changed("max-fanout") {
		cfg.Match.MaxFanout = compareFlags.MaxFanout
	}
	if len(compareFlags.Exclude) > 0 {
		cfg.Exclude = compareFlags.Exclude
	}

	// Performance
	if compareFlags.Parallel > 0 {
		cfg.Performance.MaxWorkers = compareFlags.Parallel
	}
	if flags.Changed("batch-size") {
		cfg.Performance.BatchSize = compareFlags.BatchSize
	}
	if flags.Changed("time-budget") {
		cfg.Performance.TimeBudget = compareFlags.TimeBudget
	}
	if flags.Changed("bandwidth") {
		cfg.Performance.Bandwidth = compareFlags.Bandwidth
	}

	// Output
	if flags.Changed("output") {
		cfg.Output.Format = compareFlags.Output
	}
	if flags.Changed("progress") {
		cfg.Output.Progress = compareFlags.Progress
	}
	if flags.Changed("results") {
		cfg.Output.Results = compareFlags.Results
	}
	if flags.Changed("results-format") {
		cfg.Output.ResultsFormat = compareFlags.ResultsFormat
	}

	// Logging
	if compareFlags.LogFile != "" {
		cfg.Logging.Enabled = true
		cfg.Logging.File = compareFlags.LogFile
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = compareFlags.LogFormat
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = compareFlags.LogLevel
	}

	// Disable progress in quiet mode
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
	}

	if globalFlags.Verbose {
		cfg.Output.Verbose = true
	}
}

// buildEngineConfig translates the application configuration for one run
func buildEngineConfig(cfg *config.Config, left, right string) (engine.Config, error) {
	mode, err := engine.ParseMode(cfg.Compare.Mode)
	if err != nil {
		return engine.Config{}, err
	}
	strategy, err := match.ParseStrategy(cfg.Match.Pairing)
	if err != nil {
		return engine.Config{}, err
	}
	bandwidth, err := ratelimit.ParseRate(cfg.Performance.Bandwidth)
	if err != nil {
		return engine.Config{}, &models.ConfigError{Field: "performance.bandwidth", Message: err.Error()}
	}

	return engine.Config{
		Left:    left,
		Right:   right,
		Storage: cfg.Storage,
		Index: index.Options{
			Recursive: cfg.Match.Recursive,
			Exclude:   cfg.Exclude,
		},
		Match: match.Options{
			Strategy:    strategy,
			SizeRatio:   cfg.Match.SizeRatio,
			TopK:        cfg.Match.TopK,
			MaxDistance: cfg.Match.MaxDistance,
			MaxPairs:    cfg.Match.MaxPairs,
			MaxFanout:   cfg.Match.MaxFanout,
		},
		Selector: engine.SelectorConfig{
			Mode: mode,
			Text: compare.TextOptions{
				IgnoreEOL:        cfg.Compare.IgnoreEOL,
				IgnoreTrailingWS: cfg.Compare.IgnoreTrailingWS,
				IgnoreAllWS:      cfg.Compare.IgnoreAllWS,
				IgnoreCase:       cfg.Compare.IgnoreCase,
				SkipEmptyLines:   cfg.Compare.SkipEmptyLines,
				ScoreMode:        models.ScoreMode(cfg.Compare.Similarity),
				JaroMaxBytes:     cfg.Compare.JaroMaxBytes,
			},
			Structured: compare.StructuredOptions{
				KeyColumns:       cfg.Compare.KeyColumns,
				NumericTolerance: cfg.Compare.NumericTolerance,
				SampleLimit:      cfg.Compare.SampleLimit,
			},
			MaxDiffBytes: cfg.Compare.MaxDiffBytes,
		},
		Pipeline: engine.PipelineConfig{
			MaxWorkers: cfg.Performance.MaxWorkers,
			BatchSize:  cfg.Performance.BatchSize,
			TimeBudget: cfg.Performance.TimeBudget,
		},
		BufferSize: cfg.Performance.BufferSize,
		Bandwidth:  bandwidth,
	}, nil
}

// createLogger creates a logger based on configuration
func createLogger(cfg config.LoggingConfig) (logging.Logger, error) {
	if !cfg.Enabled {
		return logging.NewNullLogger(), nil
	}

	format := logging.FormatJSON
	if cfg.Format == "text" {
		format = logging.FormatText
	}

	logger, err := logging.NewZapLogger(logging.Config{
		Path:   cfg.File,
		Format: format,
		Level:  logging.ParseLevel(cfg.Level),
	})
	if err != nil {
		return nil, err
	}
	return logger, nil
}
