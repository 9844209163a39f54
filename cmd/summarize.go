package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/nijaru/yt-summary/pipeline"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	uploadFile string
	timestamps bool
	refresh    bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [url-or-text]",
	Short: "Summarize a YouTube URL, pasted text or a transcript file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := pipeline.Request{Timestamps: timestamps, Refresh: refresh}
		if len(args) == 1 {
			req.Input = args[0]
		}
		if uploadFile != "" {
			data, err := os.ReadFile(uploadFile)
			if err != nil {
				return errors.Wrapf(err, "read %s", uploadFile)
			}
			req.Upload = data
			req.UploadName = uploadFile
		}

		p, closeFn, err := newPipeline(cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, cancel := context.WithTimeout(ctx, cfg.SummarizeTimeout)
		defer cancel()

		result, err := p.Run(ctx, req)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), pipeline.RenderError(err))
			return errSilent
		}

		fmt.Fprint(cmd.OutOrStdout(), pipeline.Render(result))
		return nil
	},
}

// errSilent marks a failure that has already been reported.
var errSilent = errors.New("summarize failed")

func init() {
	summarizeCmd.Flags().StringVarP(&uploadFile, "file", "f", "", "Transcript file to summarize instead of the argument")
	summarizeCmd.Flags().BoolVarP(&timestamps, "timestamps", "t", false, "Attach caption timestamps to summary sentences")
	summarizeCmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore and replace any cached summary")
}
