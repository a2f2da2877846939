package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dataquery-sdk/dataquery/download"
	"github.com/dataquery-sdk/dataquery/utils"
)

func newDownloadCmd() *cobra.Command {
	var (
		datetime  string
		output    string
		parts     int
		overwrite bool
		single    bool
		quiet     bool
	)
	cmd := &cobra.Command{
		Use:   "download [FILE_GROUP_ID]",
		Short: "Download one file for a given datetime",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if datetime == "" {
				utils.PrintError("--datetime is required (YYYYMMDD, YYYYMMDDTHHMM or YYYYMMDDTHHMMSS)")
				os.Exit(1)
			}
			c, cfg := newClient()
			opts := download.DefaultOptions()
			opts.DestinationPath = output
			opts.OverwriteExisting = overwrite || cfg.OverwriteExisting
			opts.CreateDirectories = cfg.CreateDirectories
			opts.ShowProgress = !quiet

			var callback download.Callback
			if !quiet {
				callback = terminalProgress()
			}

			var result download.Result
			var err error
			if single {
				result, err = c.DownloadFileSingleStream(context.Background(), args[0], datetime, opts, callback)
			} else {
				result, err = c.DownloadFile(context.Background(), args[0], datetime, opts, parts, callback)
			}
			if err != nil {
				utils.PrintError(fmt.Sprintf("Download error: %v", err))
				os.Exit(1)
			}
			printResult(result)
			if !result.Succeeded() {
				os.Exit(1)
			}
		},
	}
	cmd.Flags().StringVarP(&datetime, "datetime", "d", "", "File datetime to download")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file or directory (defaults to configured download dir)")
	cmd.Flags().IntVarP(&parts, "parts", "p", utils.DefaultNumParts, "Number of parallel parts")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing files")
	cmd.Flags().BoolVar(&single, "single", false, "Force single-stream download")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	return cmd
}

// terminalProgress renders in-place progress lines on stdout.
func terminalProgress() download.Callback {
	return func(p download.Progress) {
		if p.TotalBytes > 0 {
			fmt.Printf("\r%s / %s (%.1f%%) at %s/s   ",
				utils.FormatSize(p.BytesDownloaded), utils.FormatSize(p.TotalBytes),
				p.Percentage(), utils.FormatSize(int64(p.Speed())))
		} else {
			fmt.Printf("\r%s at %s/s   ", utils.FormatSize(p.BytesDownloaded), utils.FormatSize(int64(p.Speed())))
		}
		if p.TotalBytes > 0 && p.BytesDownloaded >= p.TotalBytes {
			fmt.Println()
		}
	}
}

func printResult(result download.Result) {
	if result.Succeeded() {
		utils.PrintSuccess(fmt.Sprintf("Downloaded %s (%s in %s)",
			result.LocalPath, utils.FormatSize(result.BytesDownloaded),
			utils.FormatDuration(result.DownloadTime)))
		return
	}
	utils.PrintError(fmt.Sprintf("Download failed: %s", result.ErrorMessage))
}
