package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/copyleftdev/bioristor/internal/config"
	apierrors "github.com/copyleftdev/bioristor/internal/errors"
	"github.com/copyleftdev/bioristor/internal/logging"
	"github.com/copyleftdev/bioristor/internal/metrics"
	"github.com/copyleftdev/bioristor/internal/server"
	"github.com/copyleftdev/bioristor/internal/solver"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use standard logger as fallback if config loading fails
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize base logger
	logger, err := logging.NewLogger(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	serviceLogger := logger.WithFields(map[string]interface{}{
		"service": "bioristor-solver",
		"version": "1.0.0",
	})

	profile, err := config.LoadProfile(cfg.Solver.ProfilePath)
	if err != nil {
		serviceLogger.WithError(err).Fatal("Failed to load solver profile")
	}

	slv := solver.New(serviceLogger, metrics.New(prometheus.DefaultRegisterer))

	if err := slv.Validate(profile); err != nil {
		serviceLogger.WithError(err).Fatal("Invalid solver profile", map[string]interface{}{
			"path": cfg.Solver.ProfilePath,
		})
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(serviceLogger))
	r.Use(apierrors.RecoveryMiddleware(serviceLogger))
	r.Use(apierrors.ErrorHandler(serviceLogger))
	r.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))

	// Add request context logger
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := serviceLogger.WithField("request_id", middleware.GetReqID(r.Context()))
			ctx := (&logging.CtxLogger{Logger: reqLogger}).WithContext(r.Context())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Handle("/metrics", promhttp.Handler())

	srv := server.NewServer(cfg, serviceLogger, slv, profile)
	limiter := server.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateBurst, serviceLogger)
	r.Group(func(r chi.Router) {
		r.Use(limiter.Handler)
		srv.RegisterRoutes(r)
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		ErrorLog:     zap.NewStdLog(serviceLogger.WithField("source", "http").Zap()),
	}

	go func() {
		serviceLogger.Info("Starting server", map[string]interface{}{
			"address":   httpServer.Addr,
			"algorithm": profile.Algorithm,
		})

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serviceLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	serviceLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		serviceLogger.WithError(err).Error("Server forced to shutdown")
	}

	if err := srv.Close(); err != nil {
		serviceLogger.WithError(err).Error("error closing server resources")
	}

	serviceLogger.Info("server exited properly")
}
