package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sdejongh/filerecon/pkg/config"
)

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View or create the filerecon configuration file.`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			showConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}

func showConfig(w io.Writer, cfg *config.Config) {
	keys := "(none)"
	if len(cfg.Compare.KeyColumns) > 0 {
		keys = strings.Join(cfg.Compare.KeyColumns, ", ")
	}

	fmt.Fprintf(w, "Mode: %s\n", cfg.Compare.Mode)
	fmt.Fprintf(w, "Key Columns: %s\n", keys)
	fmt.Fprintf(w, "Similarity: %s\n", cfg.Compare.Similarity)
	fmt.Fprintf(w, "Pairing: %s\n", cfg.Match.Pairing)
	fmt.Fprintf(w, "Top-K: %d\n", cfg.Match.TopK)
	fmt.Fprintf(w, "Max Workers: %d\n", cfg.Performance.MaxWorkers)
	fmt.Fprintf(w, "Batch Size: %d\n", cfg.Performance.BatchSize)
	if cfg.Performance.Bandwidth != "" {
		fmt.Fprintf(w, "Bandwidth: %s/s\n", cfg.Performance.Bandwidth)
	}
	fmt.Fprintf(w, "Output Format: %s\n", cfg.Output.Format)
	fmt.Fprintf(w, "Results Format: %s\n", cfg.Output.ResultsFormat)
	fmt.Fprintf(w, "Log Format: %s\n", cfg.Logging.Format)
	fmt.Fprintf(w, "Log Level: %s\n", cfg.Logging.Level)
	if cfg.Storage.Endpoint != "" {
		fmt.Fprintf(w, "Object Store: %s\n", cfg.Storage.Endpoint)
	}
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := globalFlags.ConfigFile
			if path == "" {
				var err error
				if path, err = config.DefaultConfigPath(); err != nil {
					return err
				}
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
			}

			cfg := config.Default()
			if err := config.SaveToFile(cfg, path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")

	return cmd
}
