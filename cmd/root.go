package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	logLevel    string
	logger      *slog.Logger
	databaseURL string
)

var rootCmd = &cobra.Command{
	Use:   "goiqdb",
	Short: "Reverse image search over a Haar wavelet signature index",
	Long: `goiqdb computes multiresolution Haar wavelet signatures for images and
indexes them for fast visual-similarity search, following the approach in
Jacobs, Finkelstein & Salesin's "Fast Multiresolution Image Querying".`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logger
		var level slog.Level
		switch logLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		opts := &slog.HandlerOptions{Level: level}
		handler := slog.NewJSONHandler(os.Stdout, opts)
		logger = slog.New(handler)
		slog.SetDefault(logger)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database", os.Getenv("DATABASE_URL"), "Catalog file location (defaults to $DATABASE_URL)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
