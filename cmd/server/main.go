package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pesticide-analytics/internal/config"
	"pesticide-analytics/internal/datasource"
	"pesticide-analytics/internal/handlers"
	"pesticide-analytics/internal/services"
	"pesticide-analytics/pkg/logging"
	"pesticide-analytics/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("pesticide-api", version, logging.ParseLevel(cfg.Logging.Level))
	logger.SetFormat(logging.Format(cfg.Logging.Format))

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting pesticide analytics API server", logging.Fields{
		"version":       version,
		"server_host":   cfg.Server.Host,
		"server_port":   cfg.Server.Port,
		"source_driver": cfg.Source.Driver,
		"focus_country": cfg.Analysis.FocusCountry,
	})

	metricsCollector := metrics.NewCollector("pesticide_analytics", prometheus.DefaultRegisterer)

	// The dataset is loaded once and stays immutable for the process lifetime.
	src, closeSource, err := datasource.Open(ctx, cfg, logger, metricsCollector, datasource.Options{})
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to open dataset source", logging.Fields{"driver": cfg.Source.Driver}, err)
	}
	dataset, err := datasource.LoadDataset(ctx, src, cfg.Source.Driver, logger, metricsCollector)
	if cerr := closeSource(); cerr != nil {
		logger.Warn(ctx, "[STARTUP] Failed to release dataset source", logging.Fields{"error": cerr.Error()})
	}
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to load dataset", logging.Fields{"driver": cfg.Source.Driver}, err)
	}

	dashboard, err := services.NewDashboardService(dataset, cfg.Analysis.Options(), cfg.Analysis.FocusCountry, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to build dashboard", logging.Fields{}, err)
	}

	dashboardHandler := handlers.NewDashboardHandler(dashboard, logger, metricsCollector)

	router := mux.NewRouter()
	router.Use(handlers.RequestID, handlers.Instrument(logger, metricsCollector))
	dashboardHandler.RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
			"rows":    len(dataset),
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
