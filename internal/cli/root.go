// Package cli wires the chirplab commands: cataloging recordings,
// running the analysis pipeline, synthesizing test signals, and
// converting logged captures to WAV.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/chirplab/internal/config"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

// Execute runs the root command and returns its exit code.
func Execute(args []string) int {
	cmd := rootCommand()
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func rootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "chirplab",
		Short:         "Analyze speaker test recordings",
		Long:          "chirplab catalogs test-tone recordings, renders waveform and mel spectrogram plots, and converts logged microphone captures to audio.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (default: ./chirplab.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLogging(opts.verbose)
	}

	cmd.AddCommand(
		analyzeCommand(opts),
		catalogCommand(opts),
		synthCommand(),
		convertCommand(),
	)

	return cmd
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// loadSettings reads the config file selected by the root flags and applies
// any command-specific overrides before validation.
func loadSettings(opts *rootOptions, override func(*config.Settings)) (*config.Settings, error) {
	s, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(s)
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return s, nil
}
