package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/draftboard/internal/adapters/http/api"
	"github.com/okian/draftboard/internal/adapters/http/swagger"
	"github.com/okian/draftboard/internal/adapters/repository"
	"github.com/okian/draftboard/internal/app"
	"github.com/okian/draftboard/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// NewMux registers the read API and its docs on a fresh mux.
func NewMux(ctx context.Context, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc).Register(ctx, mux)
	return mux
}

// ServeCmd returns the serve command.
func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only standings API",
		Long: `Expose the enriched standings over HTTP: /standings, /standings/history,
/entries/{id}, /stats, /healthz, /metrics and /openapi.yaml. The store is
opened read-only, so it must already exist: run ingest or sync first. Stops
gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			e, err := bootstrap(ctx, "serve")
			if err != nil {
				return err
			}
			store, err := e.openStore(ctx, repository.WithReadOnly())
			if err != nil {
				return err
			}
			defer e.closeStore(ctx, store)

			svc := app.NewService(store, app.WithMaxLimit(e.cfg.MaxLeaderboardLimit), app.WithServiceLogger(e.log))
			srv := &http.Server{
				Addr:              e.cfg.Addr,
				Handler:           NewMux(ctx, svc),
				ReadTimeout:       readTimeout,
				WriteTimeout:      writeTimeout,
				IdleTimeout:       idleTimeout,
				ReadHeaderTimeout: readHeaderTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				e.log.Info(ctx, "starting HTTP server", logger.String("addr", e.cfg.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
			case <-ctx.Done():
			}
			e.log.Info(ctx, "shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				e.log.Error(ctx, "server shutdown failed", logger.Error(err))
				return err
			}
			e.log.Info(ctx, "server stopped")
			return nil
		},
	}
}
