package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	promadapter "github.com/codewandler/ticketbox/adapters/prometheus"
	"github.com/codewandler/ticketbox/adapters/httpapi"
	"github.com/codewandler/ticketbox/core/mailbox"
	"github.com/codewandler/ticketbox/internal/config"
)

func newServeCommand(configPath *string) *cobra.Command {
	var capacity int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ticket API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("capacity") {
				cfg.Mailbox.Capacity = capacity
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log, err := newLogger(os.Stderr, cfg.Log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, log)
		},
	}

	cmd.Flags().IntVar(&capacity, "capacity", 0, "Mailbox queue capacity (overrides config)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	opts := mailbox.Options{
		Capacity: cfg.Mailbox.Capacity,
		Logger:   log,
	}

	mux := http.NewServeMux()
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		opts.Metrics = promadapter.NewMailboxMetrics(reg)
		mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	client, err := mailbox.LaunchWithOptions(opts)
	if err != nil {
		return fmt.Errorf("launch mailbox: %w", err)
	}

	mux.Handle("/", httpapi.New(client, httpapi.Options{
		Log:               log,
		RetryAfterSeconds: cfg.HTTP.RetryAfterSeconds,
	}))

	srv := &http.Server{
		Addr:              cfg.HTTP.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting",
			slog.String("listen", cfg.HTTP.Listen),
			slog.Int("capacity", client.Capacity()),
			slog.String("worker", client.WorkerID()),
			slog.Bool("metrics", cfg.Metrics.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", slog.Any("error", err))
	}

	// last handle: the worker drains its queue and exits
	_ = client.Close()
	select {
	case <-client.Done():
		log.Info("worker stopped")
	case <-shutdownCtx.Done():
		log.Warn("worker did not stop in time")
	}

	return serveErr
}
