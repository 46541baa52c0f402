package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/johnwards/rdstree/internal/api"
	"github.com/johnwards/rdstree/internal/api/admin"
	"github.com/johnwards/rdstree/internal/api/exports"
	"github.com/johnwards/rdstree/internal/api/facilities"
	"github.com/johnwards/rdstree/internal/api/imports"
	"github.com/johnwards/rdstree/internal/api/objects"
	"github.com/johnwards/rdstree/internal/api/parse"
	"github.com/johnwards/rdstree/internal/api/trees"
	"github.com/johnwards/rdstree/internal/config"
	"github.com/johnwards/rdstree/internal/database"
	"github.com/johnwards/rdstree/internal/forest"
	"github.com/johnwards/rdstree/internal/metrics"
	"github.com/johnwards/rdstree/internal/seed"
	"github.com/johnwards/rdstree/internal/store"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.OpenMigrated(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if cfg.Seed {
		if err := seed.Seed(ctx, db); err != nil {
			return fmt.Errorf("seed data: %w", err)
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(db, cfg.AuthToken),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting rdstree server", "addr", cfg.Addr, "db", cfg.DBPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// newHandler wires every route and the middleware chain over db.
func newHandler(db *sql.DB, authToken string) http.Handler {
	s := store.New(db)
	m := metrics.New()
	f := forest.New(s.Objects,
		forest.WithMetrics(m),
		forest.WithRecorder(s.Builds),
		forest.WithLogger(slog.Default()),
	)

	mux := http.NewServeMux()

	parse.RegisterRoutes(mux)
	trees.RegisterRoutes(mux, s, f)
	facilities.RegisterRoutes(mux, s, f)
	objects.RegisterRoutes(mux, s, f)
	imports.RegisterRoutes(mux, s, f)
	exports.RegisterRoutes(mux, s)
	admin.RegisterRoutes(mux, db, f)

	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /healthz", api.Health)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, http.StatusNotFound, api.NewNotFoundError(
			fmt.Sprintf("No route found for %s %s", r.Method, r.URL.Path),
			api.CorrelationID(r.Context()),
		))
	})

	return api.Chain(mux,
		api.Recovery(),
		api.RequestID(),
		api.Observe(m),
		api.Auth(authToken),
		api.JSONContentType(),
		api.Logging(),
	)
}
