package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/sdejongh/filerecon/pkg/models"
	"github.com/sdejongh/filerecon/pkg/ratelimit"
	"github.com/sdejongh/filerecon/pkg/storage"
)

// Config represents the application configuration
type Config struct {
	Compare     CompareConfig             `yaml:"compare" mapstructure:"compare"`
	Match       MatchConfig               `yaml:"match" mapstructure:"match"`
	Performance PerformanceConfig         `yaml:"performance" mapstructure:"performance"`
	Output      OutputConfig              `yaml:"output" mapstructure:"output"`
	Logging     LoggingConfig             `yaml:"logging" mapstructure:"logging"`
	Storage     storage.ObjectStoreConfig `yaml:"storage" mapstructure:"storage"`
	Exclude     []string                  `yaml:"exclude" mapstructure:"exclude"`
}

// CompareConfig holds comparison settings
type CompareConfig struct {
	Mode             string   `yaml:"mode" mapstructure:"mode"` // "auto", "text" or "structured"
	KeyColumns       []string `yaml:"key_columns" mapstructure:"key_columns"`
	NumericTolerance float64  `yaml:"numeric_tolerance" mapstructure:"numeric_tolerance"`
	SampleLimit      int      `yaml:"sample_limit" mapstructure:"sample_limit"`
	IgnoreEOL        bool     `yaml:"ignore_eol" mapstructure:"ignore_eol"`
	IgnoreTrailingWS bool     `yaml:"ignore_trailing_ws" mapstructure:"ignore_trailing_ws"`
	IgnoreAllWS      bool     `yaml:"ignore_all_ws" mapstructure:"ignore_all_ws"`
	IgnoreCase       bool     `yaml:"ignore_case" mapstructure:"ignore_case"`
	SkipEmptyLines   bool     `yaml:"skip_empty_lines" mapstructure:"skip_empty_lines"`
	Similarity       string   `yaml:"similarity" mapstructure:"similarity"` // "diff" or "char-jaro"
	MaxDiffBytes     int64    `yaml:"max_diff_bytes" mapstructure:"max_diff_bytes"`
	JaroMaxBytes     int      `yaml:"jaro_max_bytes" mapstructure:"jaro_max_bytes"`
}

// MatchConfig holds candidate pairing settings
type MatchConfig struct {
	Pairing     string  `yaml:"pairing" mapstructure:"pairing"` // "same-path", "same-name" or "all-vs-all"
	Recursive   bool    `yaml:"recursive" mapstructure:"recursive"`
	SizeRatio   float64 `yaml:"size_ratio" mapstructure:"size_ratio"`
	TopK        int     `yaml:"topk" mapstructure:"topk"`
	MaxDistance int     `yaml:"max_distance" mapstructure:"max_distance"`
	MaxPairs    int     `yaml:"max_pairs" mapstructure:"max_pairs"`
	MaxFanout   int     `yaml:"max_fanout" mapstructure:"max_fanout"`
}

// PerformanceConfig holds performance-related settings
type PerformanceConfig struct {
	MaxWorkers int           `yaml:"max_workers" mapstructure:"max_workers"`
	BatchSize  int           `yaml:"batch_size" mapstructure:"batch_size"`
	BufferSize int           `yaml:"buffer_size" mapstructure:"buffer_size"`
	TimeBudget time.Duration `yaml:"time_budget" mapstructure:"time_budget"` // 0 = unlimited
	Bandwidth  string        `yaml:"bandwidth" mapstructure:"bandwidth"`     // e.g. "10MB", empty = unlimited
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format        string `yaml:"format" mapstructure:"format"`     // "human" or "json"
	Progress      bool   `yaml:"progress" mapstructure:"progress"` // Show progress bar
	Quiet         bool   `yaml:"quiet" mapstructure:"quiet"`       // Suppress non-error output
	Verbose       bool   `yaml:"verbose" mapstructure:"verbose"`   // Print every compared pair
	Results       string `yaml:"results" mapstructure:"results"`   // Results file ("-" = stdout)
	ResultsFormat string `yaml:"results_format" mapstructure:"results_format"`
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Format  string `yaml:"format" mapstructure:"format"` // "json" or "text"
	Level   string `yaml:"level" mapstructure:"level"`   // "debug", "info", "warn", "error"
	File    string `yaml:"file" mapstructure:"file"`     // Log file path (empty = stderr)
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Compare: CompareConfig{
			Mode:         "auto",
			SampleLimit:  5,
			Similarity:   "diff",
			MaxDiffBytes: 64 * 1024 * 1024,
			JaroMaxBytes: 64 * 1024,
		},
		Match: MatchConfig{
			Pairing:   "same-path",
			Recursive: true,
			SizeRatio: 0.5,
			TopK:      3,
			MaxFanout: 8,
		},
		Performance: PerformanceConfig{
			MaxWorkers: runtime.NumCPU(),
			BatchSize:  64,
			BufferSize: 65536,
		},
		Output: OutputConfig{
			Format:        "human",
			Progress:      false,
			ResultsFormat: "jsonl",
		},
		Logging: LoggingConfig{
			Enabled: false,
			Format:  "json",
			Level:   "info",
		},
		Storage: storage.ObjectStoreConfig{
			TimeoutSeconds: 30,
		},
		Exclude: []string{
			".git/",
			"*.tmp",
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := oneOf("compare.mode", c.Compare.Mode, "auto", "text", "structured"); err != nil {
		return err
	}
	if c.Compare.Mode == "structured" && len(c.Compare.KeyColumns) == 0 {
		return &models.ConfigError{
			Field:   "compare.key_columns",
			Message: "structured mode requires at least one key column (--key)",
		}
	}
	if c.Compare.NumericTolerance < 0 {
		return &models.ConfigError{Field: "compare.numeric_tolerance", Message: "must not be negative"}
	}
	if c.Compare.SampleLimit < 1 {
		return &models.ConfigError{Field: "compare.sample_limit", Message: "must be at least 1"}
	}
	if err := oneOf("compare.similarity", c.Compare.Similarity, "diff", "char-jaro"); err != nil {
		return err
	}
	if c.Compare.MaxDiffBytes <= 0 {
		return &models.ConfigError{Field: "compare.max_diff_bytes", Message: "must be positive"}
	}
	if c.Compare.JaroMaxBytes <= 0 {
		return &models.ConfigError{Field: "compare.jaro_max_bytes", Message: "must be positive"}
	}

	if err := oneOf("match.pairing", c.Match.Pairing, "same-path", "same-name", "all-vs-all"); err != nil {
		return err
	}
	if c.Match.SizeRatio <= 0 || c.Match.SizeRatio > 1 {
		return &models.ConfigError{Field: "match.size_ratio", Message: "must be in (0, 1]"}
	}
	if c.Match.TopK < 1 {
		return &models.ConfigError{Field: "match.topk", Message: "must be at least 1"}
	}
	if c.Match.MaxDistance < 0 || c.Match.MaxDistance > 64 {
		return &models.ConfigError{Field: "match.max_distance", Message: "must be between 0 and 64"}
	}
	if c.Match.MaxPairs < 0 {
		return &models.ConfigError{Field: "match.max_pairs", Message: "must not be negative"}
	}
	if c.Match.MaxFanout < 0 {
		return &models.ConfigError{Field: "match.max_fanout", Message: "must not be negative"}
	}

	if c.Performance.MaxWorkers < 1 {
		return &models.ConfigError{Field: "performance.max_workers", Message: "must be at least 1"}
	}
	if c.Performance.BatchSize < 1 {
		return &models.ConfigError{Field: "performance.batch_size", Message: "must be at least 1"}
	}
	if c.Performance.BufferSize < 1024 {
		return &models.ConfigError{Field: "performance.buffer_size", Message: "must be at least 1024 bytes"}
	}
	if c.Performance.TimeBudget < 0 {
		return &models.ConfigError{Field: "performance.time_budget", Message: "must not be negative"}
	}
	if _, err := ratelimit.ParseRate(c.Performance.Bandwidth); err != nil {
		return &models.ConfigError{Field: "performance.bandwidth", Message: err.Error()}
	}

	if err := oneOf("output.format", c.Output.Format, "human", "json"); err != nil {
		return err
	}
	if err := oneOf("output.results_format", c.Output.ResultsFormat, "jsonl", "csv"); err != nil {
		return err
	}
	if err := oneOf("logging.format", c.Logging.Format, "json", "text"); err != nil {
		return err
	}
	if err := oneOf("logging.level", c.Logging.Level, "debug", "info", "warn", "error"); err != nil {
		return err
	}

	return nil
}

func oneOf(field, value string, valid ...string) error {
	for _, v := range valid {
		if value == v {
			return nil
		}
	}
	return &models.ConfigError{
		Field:   field,
		Message: fmt.Sprintf("invalid value %q (valid: %s)", value, strings.Join(valid, ", ")),
	}
}
