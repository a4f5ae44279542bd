package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DukeRupert/busroute/internal"
	"github.com/DukeRupert/busroute/internal/email"
	"github.com/DukeRupert/busroute/internal/handler"
	"github.com/DukeRupert/busroute/internal/jobs"
	"github.com/DukeRupert/busroute/internal/metrics"
	"github.com/DukeRupert/busroute/internal/middleware"
	"github.com/DukeRupert/busroute/internal/pricing"
	"github.com/DukeRupert/busroute/internal/repository"
	"github.com/DukeRupert/busroute/internal/service"
	"github.com/DukeRupert/busroute/internal/storage"
	"github.com/DukeRupert/busroute/internal/worker"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	clientIP, err := middleware.NewClientIPResolver(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db, logger); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	repo := repository.New(db)

	// Initialize storage
	docs, err := storage.New(storage.Config{
		Provider: cfg.StorageProvider,
		Local:    storage.LocalConfig{BasePath: cfg.LocalStoragePath},
		R2: storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("Storage ready", "provider", cfg.StorageProvider)

	// Initialize email
	emailService, err := newEmailService(cfg, logger)
	if err != nil {
		return fmt.Errorf("email initialization failed: %w", err)
	}

	// Initialize services
	engine := pricing.NewEngine()
	quoteService := service.NewQuoteService(repo, engine, docs, logger)

	// ==========================================================================
	// Background worker
	// ==========================================================================

	var jobWorker *worker.Worker
	if cfg.WorkerEnabled {
		workerCfg := worker.DefaultConfig()
		workerCfg.Concurrency = cfg.WorkerConcurrency
		workerCfg.PollInterval = cfg.WorkerPollInterval
		workerCfg.JobTimeout = cfg.WorkerJobTimeout

		jobWorker, err = worker.New(db, repo, workerCfg, logger)
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}
		jobWorker.Register(jobs.NewGenerateQuoteDocumentHandler(quoteService, docs, cfg.CompanyName, cfg.ContactURL, logger))
		jobWorker.Register(jobs.NewSendQuoteNotificationHandler(quoteService, emailService, cfg.SalesNotifyEmail, cfg.BaseURL, logger))
		// In-flight jobs finish on shutdown; Stop ends polling
		jobWorker.Start(context.WithoutCancel(ctx))
	} else {
		logger.Warn("Worker disabled; quote documents and emails will queue until a worker runs")
	}

	// ==========================================================================
	// Middleware
	// ==========================================================================

	submitLimiter := middleware.NewRateLimiter(cfg.QuoteRateLimit, cfg.QuoteRateWindow, logger)
	defer submitLimiter.Stop()

	rateLimitMw := middleware.NewRateLimitMiddleware(submitLimiter, clientIP, logger)
	adminAuth := middleware.NewBasicAuthMiddleware("busroute admin", cfg.AdminUsername, cfg.AdminPassword, true)
	metricsAuth := middleware.NewBasicAuthMiddleware("metrics", cfg.MetricsUsername, cfg.MetricsPassword, false)

	if cfg.AdminUsername == "" && cfg.AdminPassword == "" {
		logger.Warn("ADMIN_USERNAME and ADMIN_PASSWORD are not set; the admin pipeline is disabled")
	}

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	mux.HandleFunc("GET /api/pricing", handler.Pricing)

	handler.NewQuoteHandler(quoteService, logger).RegisterRoutes(mux, rateLimitMw.Limit)
	handler.NewAdminHandler(quoteService, logger).RegisterRoutes(mux, adminAuth.Handler)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handler.NotFoundResponse(w, r, logger)
	})

	stack := middleware.Stack(
		middleware.NewRequestLoggingMiddleware(logger, clientIP).Handler,
		metrics.Middleware,
		middleware.NewSecurityHeadersMiddleware(!cfg.IsDevelopment()).Handler,
		middleware.NewCORSMiddleware(cfg.CORSAllowedOrigins).Handler,
	)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           stack(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
	case err := <-serverErr:
		logger.Error("Server failed", "error", err)
	}

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	if jobWorker != nil {
		jobWorker.Stop()
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// newEmailService sends over SMTP when a host is configured and logs
// emails otherwise.
func newEmailService(cfg *internal.Config, logger *slog.Logger) (email.EmailService, error) {
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP_HOST is not set; emails will be logged, not sent")
		return email.NewLogEmailService(logger), nil
	}

	return email.NewSMTPEmailService(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	}, logger)
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
