package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/srag/internal/cli"
	"github.com/aretw0/srag/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "srag",
	Short: "SRAG surveillance assistant",
	Long: `srag answers questions about Severe Acute Respiratory Syndrome surveillance data.

Each question passes an input guardrail and is routed to SQL translation,
a conceptual explanation or a recent-news search. Every step is audited.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the YAML configuration (default srag.yaml when present)")
	rootCmd.PersistentFlags().String("env-file", config.DefaultEnvFile, "Path to a .env file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging and node hooks")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	return config.Load(path, config.WithEnvFile(envFile))
}

// loadApp reads the configuration and wires the agent. The returned context
// is cancelled on SIGINT or SIGTERM.
func loadApp(cmd *cobra.Command) (context.Context, *cli.App, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	debug, _ := cmd.Flags().GetBool("debug")
	logger := cli.NewLogger(cfg.Observability.LogLevel, debug)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	app, err := cli.Build(ctx, cfg, logger, cli.BuildOptions{Debug: debug, TraceWriter: os.Stderr})
	if err != nil {
		stop()
		return nil, nil, nil, err
	}

	cleanup := func() {
		stop()
		if err := app.Close(context.Background()); err != nil {
			logger.Warn("shutdown incomplete", "error", err)
		}
	}
	return ctx, app, cleanup, nil
}
