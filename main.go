package main

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config()
	cfg.logger.Debug("configuration loaded")

	if err := cfg.ConnectDB(); err != nil {
		os.Exit(1)
	}
	if err := cfg.ConnectCache(); err != nil {
		os.Exit(1)
	}

	scheduler := NewScheduler(cfg, cfg.summaryInterval)
	cfg.logger.Info("starting scheduler", "interval", cfg.summaryInterval.String())
	scheduler.Start()

	mux := http.NewServeMux()

	mux.HandleFunc("/api/checks", cfg.handlerChecks)
	mux.HandleFunc("/api/summary", cfg.handlerSummary)
	mux.HandleFunc("/api/config", cfg.handlerConfig)
	mux.Handle("/metrics", promhttp.Handler())

	if cfg.devMode {
		cfg.logger.Debug("development mode enabled. Registering /dev/reset endpoint.")
		mux.HandleFunc("/dev/reset", cfg.handlerReset)
	}

	handler := requestContextMiddleware(corsMiddleware(metricsMiddleware(mux)))

	server := &http.Server{
		Addr:    ":" + cfg.port,
		Handler: handler,
	}

	cfg.logger.Info("starting server", "port", cfg.port)
	err := server.ListenAndServe()
	if err != nil {
		cfg.logger.Error("server startup failed", "error", err)
		os.Exit(1)
	}
}
