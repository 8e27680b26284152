package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/srag"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of srag",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "srag version %s\n", strings.TrimSpace(srag.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
