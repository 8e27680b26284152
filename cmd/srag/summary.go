package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the executive summary",
	Long:  `Combines case metrics of the last 30 days with recent news into an executive summary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, app, cleanup, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		fmt.Println(app.Agent.Summary(ctx))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}
