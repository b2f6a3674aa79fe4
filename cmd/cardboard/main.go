// Package main provides the cardboard binary, a small consumer that
// bootstraps the example cards and lists them.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/c360studio/cardwire/bootstrap"
	"github.com/c360studio/cardwire/card"
	"github.com/c360studio/cardwire/example/generate"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		fallback bool
		listen   string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:          "cardboard",
		Short:        "List the registered example cards",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(logLevel)
			slog.SetDefault(logger)

			promReg := prometheus.NewRegistry()
			registry, report, err := load(fallback, logger, promReg)
			if err != nil {
				return err
			}

			for _, name := range registry.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}

			if listen == "" {
				return nil
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, listen, NewRouter(NewHandler(logger, registry, report, promReg)), logger)
		},
	}

	cmd.Flags().BoolVar(&fallback, "fallback", false, "Walk the registrar table instead of calling InitAll")
	cmd.Flags().StringVar(&listen, "listen", "", "Serve /cards and /metrics on this address")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	return cmd
}

// load bootstraps a fresh registry through the chosen strategy. Registrar
// failures are logged; the cards that did register are still served.
func load(fallback bool, logger *slog.Logger, promReg prometheus.Registerer) (*card.Registry, *bootstrap.Report, error) {
	registry := card.NewRegistry()

	opts := []bootstrap.Option{
		bootstrap.WithLogger(logger),
		bootstrap.WithMetrics(bootstrap.NewMetrics(promReg)),
	}
	if fallback {
		opts = append(opts, bootstrap.WithFallback(card.DefaultTable, ""))
	} else {
		opts = append(opts, bootstrap.WithAggregator(generate.InitAll))
	}

	report, err := bootstrap.New(registry, opts...).Run()
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: %w", err)
	}
	if err := report.Err(); err != nil {
		logger.Warn("Some registrars failed", "error", err)
	}
	return registry, report, nil
}

// serve runs the HTTP server until ctx is cancelled.
func serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Serving cards", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
