package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/satheeshds/invoicing/billing"
	"github.com/satheeshds/invoicing/db"
	"github.com/satheeshds/invoicing/handlers"
	"github.com/satheeshds/invoicing/hosted"
	"github.com/satheeshds/invoicing/locks"
	"github.com/satheeshds/invoicing/reports"
	"github.com/spf13/cobra"
	httpSwagger "github.com/swaggo/http-swagger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RequireHosted(); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Open database
		pool, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		// Run migrations
		if err := db.Migrate(pool); err != nil {
			return err
		}

		reporter, err := reports.Open()
		if err != nil {
			return err
		}
		defer reporter.Close()

		client := hosted.New(cfg.HostedAPIURL, cfg.HostedAPIKey, cfg.HostedTimeout)
		promoter := &billing.Promoter{Store: client}
		if cfg.RedisAddress == "" {
			slog.Warn("REDIS_ADDRESS not set, concurrent promotions of one project are not serialized")
		} else {
			locker, rdb, err := locks.Connect(ctx, cfg.RedisAddress, cfg.LockTTL)
			if err != nil {
				return err
			}
			defer rdb.Close()
			promoter.Locker = locker
		}

		attempts := db.NewAttemptStore(pool)
		handlers.Hosted = client
		handlers.Attempts = attempts
		handlers.Reporter = reporter
		handlers.DefaultCurrency = cfg.DefaultCurrency
		handlers.Submitter = &billing.Submitter{
			Promoter: promoter,
			Creator:  client,
			Attempts: attempts,
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.Port),
			Handler:           newRouter(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		errCh := make(chan error, 1)
		go func() {
			slog.Info("server starting", "address", srv.Addr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func newRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// API routes with basic auth
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(handlers.BasicAuth)
		handlers.Routes(r)
	})

	// Swagger UI
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	return r
}
