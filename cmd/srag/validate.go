package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/srag/pkg/dictionary"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration",
	Long:  `Loads and validates the configuration and, when configured, the data dictionary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		if cfg.DataDictionary != "" {
			d, err := dictionary.Load(cfg.DataDictionary)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			fmt.Fprintf(out, "Data dictionary: %d fields\n", len(d.Fields()))
		}
		if cfg.OpenAI.APIKey == "" {
			fmt.Fprintln(out, "Warning: no OpenAI key; classification and generation are disabled")
		}
		if cfg.Database.URL == "" {
			fmt.Fprintln(out, "Warning: no database URL; data questions will fail")
		}
		fmt.Fprintln(out, "Configuration is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
