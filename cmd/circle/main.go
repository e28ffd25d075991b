// Spins up the circle server, serving in-memory lists over the Redis protocol.

package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/nobletooth/circle/pkg/config"
	"github.com/nobletooth/circle/pkg/port"
	"github.com/nobletooth/circle/pkg/storage"
	"github.com/nobletooth/circle/pkg/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	printVersion   = flag.Bool("print_version", false, "Print the version and exit.")
	metricsAddress = flag.String("metrics_address", ":9090",
		"The ip:port serving Prometheus metrics on /metrics; empty disables it.")
)

// serveMetrics exposes the Prometheus metrics until `ctx` is cancelled.
func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Failed to shut down metrics server.", "error", err)
		}
	}()
	slog.Info("Serving metrics.", "address", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Metrics server stopped.", "error", err)
	}
}

func main() {
	config.InitFlags()
	utils.InitLogging()

	if *printVersion {
		slog.Info("Circle build info.", utils.BuildAttrs()...)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)

	go func() { // Listen for OS interrupts in the background.
		sig := <-signals
		slog.Info("Received termination signal, cancelling server context.", "signal", sig)
		cancel()
	}()

	if *metricsAddress != "" {
		go serveMetrics(ctx, *metricsAddress)
	}

	slog.Info("Starting circle.", utils.BuildAttrs()...)
	keyspace := storage.NewKeyspaceFromFlags()
	if err := port.RunRedisServer(ctx, keyspace); err != nil {
		slog.Error("Circle server stopped.", "err", err, "uptime", utils.Uptime())
		os.Exit(1)
	}
	slog.Info("Circle server stopped.", "uptime", utils.Uptime())
}
