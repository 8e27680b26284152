package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/srag/pkg/domain"
	"github.com/aretw0/srag/pkg/runner"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question",
	Example: `  srag ask "Quantos casos de SRAG em 2024?"
  srag ask --json "O que é taxa de mortalidade?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, app, cleanup, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		question, err := runner.SanitizeInputLimit(strings.Join(args, " "), app.Config.MaxInputSize)
		if err != nil {
			return err
		}

		res, err := app.Agent.Run(ctx, domain.NewState(question))
		if err != nil {
			return err
		}

		if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
			enc := json.NewEncoder(os.Stdout)
			enc.SetEscapeHTML(false)
			return enc.Encode(runner.Reply{
				RequestID: res.RequestID,
				Question:  question,
				Answer:    res.Answer,
				Path:      res.Path,
			})
		}
		fmt.Println(res.Answer)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().Bool("json", false, "Print the reply as JSON")
}
