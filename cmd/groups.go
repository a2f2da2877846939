package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dataquery-sdk/dataquery/client"
	"github.com/dataquery-sdk/dataquery/utils"
)

func newGroupsCmd() *cobra.Command {
	var limit int
	var all bool
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List or search data groups",
	}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List data groups",
		Run: func(cmd *cobra.Command, args []string) {
			c, _ := newClient()
			var groups []client.Group
			var err error
			if all {
				groups, err = c.ListAllGroups(context.Background())
			} else {
				groups, err = c.ListGroups(context.Background(), limit)
			}
			if err != nil {
				utils.PrintError(fmt.Sprintf("Error listing groups: %v", err))
				os.Exit(1)
			}
			printGroups(groups)
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "l", 100, "Maximum number of groups to return")
	listCmd.Flags().BoolVar(&all, "all", false, "Follow pagination and list every group")

	var searchLimit, searchOffset int
	searchCmd := &cobra.Command{
		Use:   "search [KEYWORDS]",
		Short: "Search data groups by keywords",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c, _ := newClient()
			groups, err := c.SearchGroups(context.Background(), args[0], searchLimit, searchOffset)
			if err != nil {
				utils.PrintError(fmt.Sprintf("Error searching groups: %v", err))
				os.Exit(1)
			}
			printGroups(groups)
		},
	}
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 100, "Maximum number of groups to return")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "Pagination offset")

	cmd.AddCommand(listCmd)
	cmd.AddCommand(searchCmd)
	return cmd
}

func printGroups(groups []client.Group) {
	if len(groups) == 0 {
		utils.PrintWarning("No groups found")
		return
	}
	t := utils.NewTable([]string{"Group ID", "Name", "Provider", "Premium"})
	for _, g := range groups {
		t.Rows = append(t.Rows, []string{g.GroupID, g.GroupName, g.Provider, strconv.FormatBool(g.Premium)})
	}
	t.PrintTable(markdown)
	utils.PrintDetail(fmt.Sprintf("%d group(s)", len(groups)))
}
