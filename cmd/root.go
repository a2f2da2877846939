package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dataquery-sdk/dataquery/client"
	"github.com/dataquery-sdk/dataquery/config"
	"github.com/dataquery-sdk/dataquery/utils"
)

var (
	debug      bool
	envFile    string
	markdown   bool
	logFile    string
	headerArgs []string
)

var DataQueryVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "dataquery",
	Short:   "DataQuery is a CLI for browsing and downloading vendor data files",
	Version: DataQueryVersion,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		utils.InitLogger(debug)
		if logFile != "" {
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				fmt.Fprintf(os.Stderr, "cannot open log file %s: %v\n", logFile, err)
				os.Exit(1)
			}
			utils.SetLogOutput(f)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&envFile, "env-file", "e", "", "Path to .env file with credentials and endpoints")
	rootCmd.PersistentFlags().BoolVar(&markdown, "markdown", false, "Render tables as markdown")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Append logs to this file instead of stderr")
	rootCmd.PersistentFlags().StringArrayVarP(&headerArgs, "header", "H", nil, "Extra request header as 'Key: Value'; can be repeated")
	rootCmd.AddCommand(newGroupsCmd())
	rootCmd.AddCommand(newFilesCmd())
	rootCmd.AddCommand(newDownloadCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newTimeSeriesCmd())
	rootCmd.AddCommand(newHealthCmd())
}

// newClient loads configuration and builds an authenticated client. Errors
// are printed and terminate the process, matching cobra Run conventions here.
func newClient() (*client.Client, *config.Config) {
	cfg, err := config.Load(envFile)
	if err != nil {
		utils.PrintError(fmt.Sprintf("Configuration error: %v", err))
		os.Exit(1)
	}
	var opts []client.Option
	if len(headerArgs) > 0 {
		opts = append(opts, client.WithHeaders(utils.ParseHeaderArgs(headerArgs)))
	}
	c, err := client.New(cfg, opts...)
	if err != nil {
		utils.PrintError(fmt.Sprintf("Client error: %v", err))
		os.Exit(1)
	}
	return c, cfg
}
