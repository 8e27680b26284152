package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	httpAdapter "github.com/aretw0/srag/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Serves POST /ask, POST /summary, GET /graph, GET /audit, GET /healthz and GET /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, app, cleanup, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		cfg := app.Config
		addr := cfg.HTTP.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		opts := []httpAdapter.Option{
			httpAdapter.WithLogger(app.Logger),
			httpAdapter.WithRateLimit(cfg.HTTP.RateLimit, cfg.HTTP.Burst),
			httpAdapter.WithMaxInputSize(cfg.MaxInputSize),
		}
		if app.Metrics != nil {
			opts = append(opts, httpAdapter.WithMetricsHandler(app.Metrics))
		}
		if app.Audit != nil {
			opts = append(opts, httpAdapter.WithAuditReader(app.Audit))
		}
		handler, err := httpAdapter.NewHandler(app.Agent, opts...)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			app.Logger.Info("SRAG server listening", "address", addr)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
			app.Logger.Info("shutdown signal received")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				srv.Close()
				return fmt.Errorf("graceful shutdown did not complete: %w", err)
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (overrides http.addr)")
}
