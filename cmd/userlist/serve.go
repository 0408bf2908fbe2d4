package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newServeCmd(state *cliState) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the paginated listing over HTTP",
		Long: `Serve the listing over HTTP.

Routes:
  GET /users?page=N&gender=male|female        JSON page
  GET /users?page=N&gender=...&export=1       CSV download of the page
  GET /users/export?page=N&gender=...         CSV download of the page
  GET /health                                 liveness
  GET /metrics                                Prometheus metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := state.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			go a.runPurge(ctx)

			server := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           newRouter(a.resolver, cfg.Server.RequestTimeout),
				ReadHeaderTimeout: 10 * time.Second,
				WriteTimeout:      cfg.Server.RequestTimeout + 5*time.Second,
				IdleTimeout:       60 * time.Second,
			}

			errChan := make(chan error, 1)
			go func() {
				a.logger.Info().Str("addr", cfg.Server.Addr).Msg("Listing server started")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errChan <- err
				}
			}()

			select {
			case <-ctx.Done():
				a.logger.Info().Msg("Shutdown signal received")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("server shutdown: %w", err)
				}
				a.logger.Info().Msg("Listing server stopped")
				return nil
			case err := <-errChan:
				return fmt.Errorf("listing server failed: %w", err)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}
