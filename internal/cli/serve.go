package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/techbeetle/news-router/internal/app"
	"github.com/techbeetle/news-router/internal/server"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand runs the HTTP server until SIGINT/SIGTERM.
func NewServeCommand() *cobra.Command {
	var withWarmer bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /news-router",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			s, err := startSession(ctx, "news router", true)
			if err != nil {
				return err
			}
			defer s.close()

			srv := &http.Server{
				Addr:              s.cfg.HTTPAddr,
				Handler:           server.New(s.runtime.Service(), s.log).Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			if withWarmer {
				warmer := app.NewWarmer(s.runtime.Service(), s.cfg.RefreshCountries, s.cfg.RefreshInterval, s.log)
				go func() {
					if err := warmer.Run(ctx); err != nil {
						s.log.ErrorObj("warmer stopped", "error", err.Error())
					}
				}()
			}

			errCh := make(chan error, 1)
			go func() {
				s.log.InfoObj("http server listening", "http_addr", s.cfg.HTTPAddr)
				if err := srv.ListenAndServe(); err != nil && !server.IsClosed(err) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			s.log.InfoObj("http server shutting down", "reason", ctx.Err().Error())
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("http shutdown: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withWarmer, "warm", false, "also refresh configured countries in the background")
	return cmd
}
