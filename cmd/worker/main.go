package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/vadymuxd/searching-the-fox/internal/config"
	"github.com/vadymuxd/searching-the-fox/internal/logger"
	"github.com/vadymuxd/searching-the-fox/internal/mailer"
	"github.com/vadymuxd/searching-the-fox/internal/repository"
	"github.com/vadymuxd/searching-the-fox/internal/scraper"
	"github.com/vadymuxd/searching-the-fox/internal/service"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "searching-the-fox-worker",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	pollOnce := flag.Bool("poll-once", false, "Process one batch of queued runs and exit")
	notifyOnce := flag.Bool("notify-once", false, "Send digests to all subscribed users and exit")
	cleanupOnce := flag.Bool("cleanup-once", false, "Sweep stuck runs and exit")
	pollSchedule := flag.String("poll-schedule", "*/2 * * * *", "Cron schedule for queue polling")
	notifySchedule := flag.String("notify-schedule", "0 8 * * *", "Cron schedule for digest dispatch")
	cleanupSchedule := flag.String("cleanup-schedule", "*/5 * * * *", "Cron schedule for stuck-run sweeps")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
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
	dispatcher := service.NewDispatcher(userRepo, jobRepo, service.NewDigestRenderer(), resendMailer)

	ctx := logger.SetComponent(context.Background(), "worker")

	pollQueue := func() {
		results, err := pipeline.ProcessQueued(ctx, 0)
		if err != nil {
			logger.CtxError(ctx, "Queue poll failed: %v", err)
			return
		}
		if len(results) > 0 {
			logger.CtxInfo(ctx, "Processed %d queued runs", len(results))
		}
	}

	sweepStuck := func() {
		if _, err := pipeline.CleanupStuckRuns(ctx); err != nil {
			logger.CtxError(ctx, "Stuck-run sweep failed: %v", err)
		}
	}

	sendDigests := func() {
		batch, err := dispatcher.SendToAllSubscribed(ctx)
		if err != nil {
			logger.CtxError(ctx, "Digest batch failed: %v", err)
			return
		}
		logger.CtxInfo(ctx, "Digest batch done: sent=%d failed=%d skipped=%d",
			batch.Sent, batch.Failed, batch.Skipped)
	}

	// One-shot modes for manual runs and container cron jobs.
	if *pollOnce || *notifyOnce || *cleanupOnce {
		if *cleanupOnce {
			sweepStuck()
		}
		if *pollOnce {
			pollQueue()
		}
		if *notifyOnce {
			sendDigests()
		}
		return
	}

	// Scheduled mode
	c := cron.New()
	if _, err := c.AddFunc(*pollSchedule, pollQueue); err != nil {
		appLogger.WithError(err).Fatal("Invalid poll schedule")
	}
	if _, err := c.AddFunc(*cleanupSchedule, sweepStuck); err != nil {
		appLogger.WithError(err).Fatal("Invalid cleanup schedule")
	}
	if _, err := c.AddFunc(*notifySchedule, sendDigests); err != nil {
		appLogger.WithError(err).Fatal("Invalid notify schedule")
	}
	c.Start()

	appLogger.WithFields(logger.Fields{
		"poll_schedule":    *pollSchedule,
		"cleanup_schedule": *cleanupSchedule,
		"notify_schedule":  *notifySchedule,
	}).Info("Worker started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down worker...")
	<-c.Stop().Done()
	appLogger.Info("Worker exited")
}
