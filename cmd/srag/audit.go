package main

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit [request_id]",
	Short: "Print recorded audit events",
	Long:  `Prints audit events as JSON Lines, optionally only those of one request.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, app, cleanup, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		if app.Audit == nil {
			return errors.New("no audit sink configured")
		}
		events, err := app.Audit.Events(ctx)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		for _, ev := range events {
			if len(args) == 1 && ev.RequestID != args[0] {
				continue
			}
			if err := enc.Encode(ev); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
