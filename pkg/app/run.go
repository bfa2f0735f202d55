package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	shutdownTimeout = time.Second * 5
)

func Logger(level string) *zap.Logger {

	cfg := zap.NewProductionConfig()

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		panic(err)
	}
	cfg.Level.SetLevel(lvl)

	lg, err := cfg.Build()
	if err != nil {
		panic(err)
	}

	return lg
}

// MetricsHandler serves /metrics and /health.
func MetricsHandler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// StartMetrics listens on port in the background. A zero port disables it and returns nil.
func StartMetrics(port int, log *zap.Logger) *http.Server {
	if port <= 0 {
		return nil
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%v", port),
		Handler:           MetricsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("metrics listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics listen and serve", zap.Error(err))
		}
	}()
	return srv
}

// Shutdown stops servers, skipping nil ones, and syncs the logger.
func Shutdown(log *zap.Logger, servers ...*http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error
	for _, srv := range servers {
		if srv == nil {
			continue
		}
		err = multierr.Append(err, srv.Shutdown(ctx))
	}
	return multierr.Append(err, log.Sync())
}
