package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/dataquery-sdk/dataquery/utils"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check API connectivity and credentials",
		Run: func(cmd *cobra.Command, args []string) {
			c, cfg := newClient()
			if c.HealthCheck(context.Background()) {
				utils.PrintSuccess("API reachable: " + cfg.BaseURL)
				return
			}
			utils.PrintError("API unreachable: " + cfg.BaseURL)
			os.Exit(1)
		},
	}
}
