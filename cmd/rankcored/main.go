// Command rankcored serves the comparative ranking API over HTTP.
//
// Configuration comes from the environment:
//
//	RANKCORE_HTTP_ADDR      listen address (default :8080)
//	RANKCORE_ANCHOR         anchor institution override
//	RANKCORE_LOG_LEVEL      debug|info|warn|error (default info)
//	RANKCORE_SOURCE_DRIVER  memory|sqlite|postgres, plus the driver
//	                        variables documented on core.OpenTableSource
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rankcore/docs/openapi"
	rankingsapi "rankcore/internal/adapters/rankings"
	"rankcore/internal/core"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()

	source, err := core.OpenTableSource(ctx, nil)
	if err != nil {
		return fmt.Errorf("open table source: %w", err)
	}
	defer func() { _ = source.Close() }()

	metrics := core.NewPrometheusMetricsRecorder()
	opts := []core.ServiceOption{
		core.WithLogger(logger),
		core.WithMetricsRecorder(metrics),
		core.WithAuditRecorder(auditLogger{log: logger}),
	}
	if anchor := os.Getenv("RANKCORE_ANCHOR"); anchor != "" {
		opts = append(opts, core.WithAnchor(anchor))
	}
	svc := core.NewService(source, opts...)

	loadCtx, cancel := context.WithTimeout(ctx, time.Minute)
	err = svc.Reload(loadCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("initial load: %w", err)
	}
	logger.Info("tables loaded", "version", svc.Version(), "fingerprint", svc.Fingerprint())

	refresher := rankingsapi.NewRefresher(svc)
	refresher.Start()
	handler := rankingsapi.NewHandler(svc)
	handler.Refreshes = refresher

	mux := http.NewServeMux()
	mux.Handle("/api/v1/rankings/", handler)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	mux.Handle("/openapi.json", openapi.NewHTTPHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, "{\"status\":\"ok\",\"version\":%d}\n", svc.Version())
	})

	addr := os.Getenv("RANKCORE_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := refresher.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("stop refresher: %w", err)
	}
	return <-serveErr
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("RANKCORE_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// auditLogger forwards reload audit entries to the process log.
type auditLogger struct {
	log *slog.Logger
}

func (a auditLogger) Record(_ context.Context, entry core.AuditEntry) {
	if entry.Status == core.AuditStatusSuccess {
		a.log.Info("reload audit",
			"version", entry.Version,
			"fingerprint", entry.Fingerprint,
			"duration", entry.Duration)
		return
	}
	a.log.Error("reload audit", "error", entry.Error, "duration", entry.Duration)
}
