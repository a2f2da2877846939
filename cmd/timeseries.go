package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dataquery-sdk/dataquery/client"
	"github.com/dataquery-sdk/dataquery/utils"
)

func newTimeSeriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeseries",
		Short: "Query instrument and expression time series",
	}

	var (
		attributes []string
		startDate  string
		endDate    string
		frequency  string
		calendar   string
		rawJSON    bool
		savePath   string
	)
	addRangeFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&startDate, "start", "", "Start date (YYYYMMDD or TODAY-Nx)")
		c.Flags().StringVar(&endDate, "end", "", "End date (YYYYMMDD or TODAY)")
		c.Flags().StringVar(&frequency, "frequency", "", "Sampling frequency (e.g. FREQ_DAY)")
		c.Flags().StringVar(&calendar, "calendar", "", "Holiday calendar (e.g. CAL_USBANK)")
		c.Flags().BoolVar(&rawJSON, "json", false, "Print the raw JSON response")
		c.Flags().StringVar(&savePath, "save", "", "Also write the result table as markdown to this file")
	}
	tsOptions := func() client.TimeSeriesOptions {
		return client.TimeSeriesOptions{
			StartDate: startDate,
			EndDate:   endDate,
			Frequency: frequency,
			Calendar:  calendar,
		}
	}

	instrumentsCmd := &cobra.Command{
		Use:   "instruments [INSTRUMENT_ID...]",
		Short: "Fetch time series for up to 20 instrument ids",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c, _ := newClient()
			resp, err := c.GetInstrumentTimeSeries(context.Background(), args, attributes, tsOptions())
			if err != nil {
				utils.PrintError(fmt.Sprintf("Error fetching time series: %v", err))
				os.Exit(1)
			}
			printTimeSeries(resp, rawJSON, savePath)
		},
	}
	instrumentsCmd.Flags().StringSliceVarP(&attributes, "attribute", "a", nil, "Attribute ids to fetch; can be repeated")
	addRangeFlags(instrumentsCmd)

	expressionsCmd := &cobra.Command{
		Use:   "expressions [EXPRESSION...]",
		Short: "Fetch time series for vendor expressions",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c, _ := newClient()
			resp, err := c.GetExpressionsTimeSeries(context.Background(), args, tsOptions())
			if err != nil {
				utils.PrintError(fmt.Sprintf("Error fetching time series: %v", err))
				os.Exit(1)
			}
			printTimeSeries(resp, rawJSON, savePath)
		},
	}
	addRangeFlags(expressionsCmd)

	var filter string
	groupCmd := &cobra.Command{
		Use:   "group [GROUP_ID]",
		Short: "Fetch time series across a data group",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c, _ := newClient()
			resp, err := c.GetGroupTimeSeries(context.Background(), args[0], attributes, filter, tsOptions())
			if err != nil {
				utils.PrintError(fmt.Sprintf("Error fetching group time series: %v", err))
				os.Exit(1)
			}
			printTimeSeries(resp, rawJSON, savePath)
		},
	}
	groupCmd.Flags().StringSliceVarP(&attributes, "attribute", "a", nil, "Attribute ids to fetch; can be repeated")
	groupCmd.Flags().StringVar(&filter, "filter", "", "Group filter expression (e.g. currency(USD))")
	addRangeFlags(groupCmd)

	cmd.AddCommand(instrumentsCmd)
	cmd.AddCommand(expressionsCmd)
	cmd.AddCommand(groupCmd)
	return cmd
}

func printTimeSeries(resp *client.TimeSeriesResponse, rawJSON bool, savePath string) {
	if rawJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			utils.PrintError(fmt.Sprintf("Error encoding response: %v", err))
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}
	if len(resp.Instruments) == 0 {
		utils.PrintWarning("No instruments returned")
		return
	}
	t := utils.NewTable([]string{"Instrument", "Attribute", "Points", "Last Value"})
	for _, inst := range resp.Instruments {
		for _, attr := range inst.Attributes {
			last := ""
			if n := len(attr.TimeSeries); n > 0 {
				point := attr.TimeSeries[n-1]
				values := make([]string, 0, len(point))
				for _, v := range point {
					values = append(values, fmt.Sprintf("%v", v))
				}
				last = strings.Join(values, " ")
			}
			t.Rows = append(t.Rows, []string{inst.InstrumentID, attr.AttributeID, fmt.Sprintf("%d", len(attr.TimeSeries)), last})
		}
	}
	t.PrintTable(markdown)
	if savePath != "" {
		if err := t.WriteMarkdownTableToFile(savePath); err != nil {
			utils.PrintError(fmt.Sprintf("Error writing %s: %v", savePath, err))
			os.Exit(1)
		}
		utils.PrintDetail(fmt.Sprintf("Saved table to %s", savePath))
	}
}
