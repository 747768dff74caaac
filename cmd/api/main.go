package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vadymuxd/searching-the-fox/internal/api"
	"github.com/vadymuxd/searching-the-fox/internal/api/middleware"
	"github.com/vadymuxd/searching-the-fox/internal/config"
	"github.com/vadymuxd/searching-the-fox/internal/logger"
	"github.com/vadymuxd/searching-the-fox/internal/mailer"
	"github.com/vadymuxd/searching-the-fox/internal/repository"
	"github.com/vadymuxd/searching-the-fox/internal/scraper"
	"github.com/vadymuxd/searching-the-fox/internal/service"
)

func main() {
	// Initialize logger first (with env-driven defaults)
	appLogger := logger.New(nil)
	logger.SetDefaultLogger(appLogger)

	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	jobRepo := repository.NewJobRepository(db)
	userRepo := repository.NewUserRepository(db)
	runRepo := repository.NewRunRepository(db)

	// Initialize services
	scrapeClient := scraper.NewClient(&scraper.Config{
		BaseURL: cfg.Scraper.BaseURL,
		Timeout: cfg.Scraper.Timeout,
	})

	logoResolver := service.NewLogoResolver(&service.LogoConfig{
		Workers:      cfg.Logo.Workers,
		Timeout:      cfg.Logo.Timeout,
		LogoDevToken: cfg.Logo.LogoDevToken,
	})

	pipeline := service.NewPipeline(scrapeClient, jobRepo, userRepo, runRepo, logoResolver, service.PipelineConfig{
		StuckRunThreshold: cfg.Pipeline.StuckRunThreshold,
		QueueBatchSize:    cfg.Pipeline.QueueBatchSize,
	})

	resendMailer := mailer.NewResendMailer(&mailer.Config{
		APIKey: cfg.Email.ResendAPIKey,
		Sender: cfg.Email.Sender,
	})
	if !resendMailer.Configured() {
		appLogger.Warn("RESEND_API_KEY not set; digest endpoints will report delivery as unavailable")
	}

	dispatcher := service.NewDispatcher(userRepo, jobRepo, service.NewDigestRenderer(), resendMailer)

	// Setup router
	router := api.SetupRouter(api.RouterDeps{
		Pipeline:   pipeline,
		Dispatcher: dispatcher,
		Runs:       runRepo,
		Logger:     appLogger,
		Mode:       cfg.Server.Mode,
		CORS: middleware.CORSConfig{
			AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
			AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
		},
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
