package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dataquery-sdk/dataquery/utils"
)

func newFilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Inspect file groups and their availability",
	}

	var fileID string
	listCmd := &cobra.Command{
		Use:   "list [GROUP_ID]",
		Short: "List file groups within a data group",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c, _ := newClient()
			files, err := c.ListFiles(context.Background(), args[0], fileID)
			if err != nil {
				utils.PrintError(fmt.Sprintf("Error listing files: %v", err))
				os.Exit(1)
			}
			if len(files.FileGroupIDs) == 0 {
				utils.PrintWarning("No files found")
				return
			}
			t := utils.NewTable([]string{"File Group ID", "Type", "Datetimes"})
			for _, f := range files.FileGroupIDs {
				t.Rows = append(t.Rows, []string{f.FileGroupID, f.FileType, strconv.Itoa(len(f.FileDatetimes))})
			}
			t.PrintTable(markdown)
			utils.PrintDetail(fmt.Sprintf("%d file group(s)", files.FileCount))
		},
	}
	listCmd.Flags().StringVarP(&fileID, "file-id", "f", "", "Restrict listing to one file group")

	var availFileID, startDate, endDate string
	availableCmd := &cobra.Command{
		Use:   "available [GROUP_ID]",
		Short: "List available files for a date range",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if startDate == "" || endDate == "" {
				utils.PrintError("Both --start and --end are required (format YYYYMMDD)")
				os.Exit(1)
			}
			c, _ := newClient()
			files, err := c.ListAvailableFiles(context.Background(), args[0], availFileID, startDate, endDate)
			if err != nil {
				utils.PrintError(fmt.Sprintf("Error listing available files: %v", err))
				os.Exit(1)
			}
			if len(files) == 0 {
				utils.PrintWarning("No available files in range")
				return
			}
			t := utils.NewTable([]string{"File Group ID", "Datetime", "Available", "Name"})
			for _, f := range files {
				t.Rows = append(t.Rows, []string{f.FileGroupID, f.FileDatetime, strconv.FormatBool(f.IsAvailable), f.FileName})
			}
			t.PrintTable(markdown)
		},
	}
	availableCmd.Flags().StringVarP(&availFileID, "file-id", "f", "", "Restrict listing to one file group")
	availableCmd.Flags().StringVar(&startDate, "start", "", "Start date (YYYYMMDD)")
	availableCmd.Flags().StringVar(&endDate, "end", "", "End date (YYYYMMDD)")

	checkCmd := &cobra.Command{
		Use:   "check [FILE_GROUP_ID] [DATETIME]",
		Short: "Check whether one file datetime is available",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			c, _ := newClient()
			info, err := c.CheckAvailability(context.Background(), args[0], args[1])
			if err != nil {
				utils.PrintError(fmt.Sprintf("Error checking availability: %v", err))
				os.Exit(1)
			}
			if info.IsAvailable {
				name := info.FileName
				if name == "" {
					name = args[0]
				}
				utils.PrintSuccess(fmt.Sprintf("Available: %s (%s)", name, info.FileDatetime))
				if info.LastModified != "" {
					utils.PrintDetail("Last modified: " + info.LastModified)
				}
			} else {
				utils.PrintWarning(fmt.Sprintf("Not available: %s @ %s", args[0], args[1]))
			}
		},
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(availableCmd)
	cmd.AddCommand(checkCmd)
	return cmd
}
