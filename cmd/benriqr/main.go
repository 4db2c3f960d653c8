// Command benriqr turns contact spreadsheets into printable QR code sheets.
//
//	benriqr convert contacts.xlsx -o contacts.html
//	benriqr card john.json > john.svg
//	benriqr serve --addr :8080
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	benriqr "github.com/ykszk/benri-qr"
)

var (
	verbose bool
	logger  = slog.New(slog.DiscardHandler)
)

var rootCmd = &cobra.Command{
	Use:           "benriqr",
	Short:         "Make printable QR code sheets from contact spreadsheets",
	Version:       benriqr.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = newLogger(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("benriqr failed", "error", err)
		os.Exit(1)
	}
}
