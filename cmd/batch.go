package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dataquery-sdk/dataquery/client"
	"github.com/dataquery-sdk/dataquery/download"
	"github.com/dataquery-sdk/dataquery/utils"
)

// BatchEntry is one download in a YAML manifest.
type BatchEntry struct {
	FileGroupID string `yaml:"file-id"`
	Datetime    string `yaml:"datetime"`
	OutputPath  string `yaml:"op,omitempty"`
	Parts       int    `yaml:"parts,omitempty"`
}

// BatchFile maps manifest section names to their entries. Section names are
// informational only.
type BatchFile map[string][]BatchEntry

func newBatchCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "batch [YAML_FILE]",
		Short: "Download multiple files from a YAML manifest",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				utils.PrintError(fmt.Sprintf("Error reading YAML file: %v", err))
				os.Exit(1)
			}
			var batchFile BatchFile
			if err := yaml.Unmarshal(data, &batchFile); err != nil {
				utils.PrintError(fmt.Sprintf("Error parsing YAML file: %v", err))
				os.Exit(1)
			}
			entries := collectBatchEntries(batchFile)
			if len(entries) == 0 {
				utils.PrintError("No valid entries found in the batch file")
				os.Exit(1)
			}
			c, cfg := newClient()
			if workers <= 0 {
				workers = cfg.MaxConcurrentDownloads
			}
			if runBatch(c, cfg.DownloadDir, entries, workers) > 0 {
				utils.PrintError("Encountered failed download(s)")
				os.Exit(1)
			}
			utils.PrintSuccess(fmt.Sprintf("All %d download(s) completed", len(entries)))
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of files to download in parallel (defaults to configured concurrency)")
	return cmd
}

func collectBatchEntries(batchFile BatchFile) []BatchEntry {
	var entries []BatchEntry
	for section, sectionEntries := range batchFile {
		for _, entry := range sectionEntries {
			if entry.FileGroupID == "" || entry.Datetime == "" {
				utils.PrintWarning(fmt.Sprintf("Skipping entry in %s section without file-id or datetime", section))
				continue
			}
			entries = append(entries, entry)
		}
	}
	return entries
}

// runBatch downloads entries with a bounded worker pool and returns the
// number of failures.
func runBatch(c *client.Client, defaultDir string, entries []BatchEntry, workers int) int {
	type outcome struct {
		entry  BatchEntry
		result download.Result
		err    error
	}
	jobs := make(chan BatchEntry)
	outcomes := make(chan outcome, len(entries))
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				opts := download.DefaultOptions()
				opts.DestinationPath = entry.OutputPath
				if opts.DestinationPath == "" {
					opts.DestinationPath = defaultDir
				}
				result, err := c.DownloadFile(context.Background(), entry.FileGroupID, entry.Datetime, opts, entry.Parts, nil)
				outcomes <- outcome{entry: entry, result: result, err: err}
			}
		}()
	}
	for _, entry := range entries {
		jobs <- entry
	}
	close(jobs)
	wg.Wait()
	close(outcomes)

	failures := 0
	for o := range outcomes {
		if o.err != nil {
			failures++
			utils.PrintError(fmt.Sprintf("%s @ %s: %v", o.entry.FileGroupID, o.entry.Datetime, o.err))
			continue
		}
		if !o.result.Succeeded() {
			failures++
			utils.PrintError(fmt.Sprintf("%s @ %s: %s", o.entry.FileGroupID, o.entry.Datetime, o.result.ErrorMessage))
			continue
		}
		utils.PrintSuccess(fmt.Sprintf("%s @ %s -> %s (%s)", o.entry.FileGroupID, o.entry.Datetime,
			o.result.LocalPath, utils.FormatSize(o.result.BytesDownloaded)))
	}
	return failures
}
