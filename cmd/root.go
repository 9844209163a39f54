package cmd

import (
	"fmt"
	"os"

	"github.com/nijaru/yt-summary/config"
	"github.com/nijaru/yt-summary/logger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "yt-summary",
	Short: "Summarize YouTube videos and transcripts",
	Long: `yt-summary fetches the captions of a YouTube video, or takes a pasted or
uploaded transcript, and produces a summary with optional timestamps.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig()
		if err != nil {
			return err
		}
		if err := config.ValidateConfig(loaded); err != nil {
			return err
		}
		cfg = loaded

		opts := logger.Options{
			Dir:    cfg.LogDir,
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
		}
		// summarize prints its result on stdout; keep logs out of it.
		if cmd == summarizeCmd {
			opts.Output = cmd.ErrOrStderr()
		}
		_, err = logger.Setup(opts)
		return err
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if err != errSilent {
			logrus.WithError(err).Debug("Command failed")
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(summarizeCmd)
}
