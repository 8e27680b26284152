package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/srag/internal/presentation/graph"
)

var graphCmd = &cobra.Command{
	Use:   "graph [node...]",
	Short: "Export the node graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the routing machine.
Nodes given as arguments are highlighted as an executed path.`,
	Run: func(cmd *cobra.Command, args []string) {
		var overlay *graph.Overlay
		if len(args) > 0 {
			overlay = graph.FromPath(args)
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(overlay))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
