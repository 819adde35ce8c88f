package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configFile string
	debugMode  bool
	logFile    string
)

func main() {
	rootCommand := newRootCommand()
	if err := rootCommand.Execute(); err != nil {
		if _, fprintfErr := fmt.Fprintf(os.Stderr, "failed to execute a command: %+v\n", err); fprintfErr != nil {
			panic(fmt.Errorf("failed to output an error: %w. Reason: %w", err, fprintfErr))
		}
		os.Exit(1)
	}
	os.Exit(0)
}

func newRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           "cinelog",
		Short:         "Search movies, keep a watch list and discuss them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				slog.Default().Warn("failed to load .env", "error", err)
			}
			setupLogger(debugMode, os.Stderr)
			return nil
		},
	}
	rootCommand.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCommand.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug mode")
	rootCommand.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to a rotated file instead of stderr")

	rootCommand.AddCommand(
		newSearchCommand(),
		newWatchlistCommand(),
		newNotesCommand(),
		newFeaturedCommand(),
	)
	return rootCommand
}

// setupLogger configures the default logger based on debug mode
func setupLogger(debugMode bool, w io.Writer) {
	logLevel := slog.LevelInfo
	if debugMode {
		logLevel = slog.LevelDebug
	}

	slog.SetDefault(
		slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		})),
	)
}
