package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/srag/internal/cli"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an interactive question session",
	Long: `Reads one question per line from standard input until end of input or "sair".
With --json each line may be a JSON string or {"question": "..."} and replies are JSON Lines.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, app, cleanup, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		jsonMode, _ := cmd.Flags().GetBool("json")
		return cli.RunSession(ctx, app, cli.SessionOptions{JSON: jsonMode})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")

	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
