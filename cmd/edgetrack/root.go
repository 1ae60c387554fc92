package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/swdee/go-edgetrack/tracker"
)

// Version is the application version
const Version = "0.1.0"

var (
	// cfg is the tracker configuration shared by subcommands
	cfg tracker.Config
	// configPath is the optional JSON configuration file
	configPath string
	// logStreams lists the tracker log streams written to stderr
	logStreams string
)

var rootCmd = &cobra.Command{
	Use:     "edgetrack",
	Short:   "Offline multi and single object tracking",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {

		if err := setupLogging(logStreams); err != nil {
			return err
		}

		if configPath == "" {
			cfg = tracker.DefaultConfig()
			return nil
		}

		var err error
		cfg, err = tracker.LoadConfig(configPath)

		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
	SilenceUsage: true,
}

// setupLogging enables the comma separated tracker log streams on stderr
func setupLogging(streams string) error {

	var w tracker.LogWriters

	for _, s := range strings.Split(streams, ",") {
		switch strings.TrimSpace(s) {
		case "":
		case "ops":
			w.Ops = os.Stderr
		case "diag":
			w.Diag = os.Stderr
		case "trace":
			w.Trace = os.Stderr
		default:
			return fmt.Errorf("unknown log stream %q, expected ops, diag or trace", s)
		}
	}

	tracker.SetLogWriters(w)

	return nil
}

// Execute runs the root command until completion or interrupt
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to JSON tracker configuration")
	rootCmd.PersistentFlags().StringVar(&logStreams, "log", "ops", "Comma separated tracker log streams to write to stderr (ops, diag, trace)")
}
