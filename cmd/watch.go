package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dataquery-sdk/dataquery/autodownload"
	"github.com/dataquery-sdk/dataquery/utils"
)

func newWatchCmd() *cobra.Command {
	var (
		interval     time.Duration
		dir          string
		parts        int
		previousDays bool
		maxRetries   int
		s3Bucket     string
		s3Prefix     string
		quiet        bool
	)
	cmd := &cobra.Command{
		Use:   "watch [GROUP_ID]",
		Short: "Poll a data group and download new files as they appear",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c, cfg := newClient()
			if dir == "" {
				dir = cfg.DownloadDir
			}
			mcfg := autodownload.Config{
				GroupID:             args[0],
				DestinationDir:      dir,
				Interval:            interval,
				MaxRetries:          maxRetries,
				IncludePreviousDays: previousDays,
				NumParts:            parts,
				ErrorCallback: func(err error) {
					utils.PrintError(fmt.Sprintf("Watch error: %v", err))
				},
			}
			if !quiet {
				mcfg.ProgressCallback = terminalProgress()
			}
			if s3Bucket != "" {
				archiver, err := autodownload.NewS3Archiver(context.Background(), s3Bucket, s3Prefix)
				if err != nil {
					utils.PrintError(fmt.Sprintf("S3 archiver error: %v", err))
					os.Exit(1)
				}
				mcfg.Archiver = archiver
			}
			manager, err := autodownload.Start(context.Background(), c, mcfg)
			if err != nil {
				utils.PrintError(fmt.Sprintf("Watch error: %v", err))
				os.Exit(1)
			}
			utils.PrintInfo(fmt.Sprintf("Watching group %s every %s; Ctrl-C to stop", args[0], mcfg.Interval))

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			<-sigCh
			fmt.Println()
			utils.PrintInfo("Stopping after current cycle...")
			manager.Stop()
			printWatchStats(manager.GetStats())
		},
	}
	cmd.Flags().DurationVarP(&interval, "interval", "i", 30*time.Minute, "Polling interval")
	cmd.Flags().StringVarP(&dir, "dir", "o", "", "Download directory (defaults to configured download dir)")
	cmd.Flags().IntVarP(&parts, "parts", "p", utils.DefaultNumParts, "Number of parallel parts per download")
	cmd.Flags().BoolVar(&previousDays, "previous-days", false, "Also check the two previous days each cycle")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 3, "Failures per file before it is skipped")
	cmd.Flags().StringVar(&s3Bucket, "s3-bucket", "", "Archive completed downloads to this S3 bucket")
	cmd.Flags().StringVar(&s3Prefix, "s3-prefix", "", "Key prefix for archived objects")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	return cmd
}

func printWatchStats(stats autodownload.Stats) {
	utils.PrintHeader("Watch summary")
	t := utils.NewTable([]string{"Checks", "Downloaded", "Skipped", "Failures", "Bytes"})
	t.Rows = append(t.Rows, []string{
		fmt.Sprintf("%d", stats.ChecksPerformed),
		fmt.Sprintf("%d", stats.FilesDownloaded),
		fmt.Sprintf("%d", stats.FilesSkipped),
		fmt.Sprintf("%d", stats.DownloadFailures),
		utils.FormatSize(stats.TotalBytesDownloaded),
	})
	t.PrintTable(markdown)
}
