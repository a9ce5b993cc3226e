package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sdejongh/filerecon/internal/cli"
	"github.com/sdejongh/filerecon/pkg/models"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(models.StatusFailed.ExitCode())
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:   "filerecon",
		Short: "File and record reconciliation",
		Long: `filerecon pairs the files of two folders, buckets or single files and
measures how similar each pair is, line by line for text and record by
record for CSV, TSV and JSON-lines tables.`,
		Version:       cli.VersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	cli.AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(cli.NewCompareCommand())
	rootCmd.AddCommand(cli.NewConfigCommand())
	rootCmd.AddCommand(cli.NewVersionCommand())

	// Interrupts stop dispatch at the next batch boundary
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signals
		cancel()
	}()

	return rootCmd.ExecuteContext(ctx)
}
