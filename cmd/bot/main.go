package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"go-homework-bot/config"
	"go-homework-bot/internal/bot"
	"go-homework-bot/internal/delivery/http/webhook"
	"go-homework-bot/internal/domain"
	"go-homework-bot/internal/gitlab"
	"go-homework-bot/internal/recruitee"
	"go-homework-bot/pkg/logger"
	"go-homework-bot/pkg/monitoring"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// 2. Setup Logger
	logger.Init()
	logger.Log.Info("Starting homework bot",
		"poll_interval_s", cfg.PollIntervalSeconds,
		"dry_run", cfg.DryRun,
		"required_tag", cfg.RequiredTag)

	// 3. Setup API clients
	pipeline := recruitee.NewClient(cfg.RecruiteeBaseURL, cfg.RecruiteeCompanyID, cfg.RecruiteeToken)
	repoHost := gitlab.NewClient(cfg.GitlabBaseURL, cfg.GitlabToken,
		cfg.GitlabTemplatesNamespace, cfg.GitlabHomeworkNamespace,
		time.Duration(cfg.ForkRetryPauseMillis)*time.Millisecond)

	var monitorer domain.Monitorer
	if cfg.HealthchecksUUID != "" {
		monitorer = monitoring.NewHealthchecksIO(cfg.HealthchecksURL, cfg.HealthchecksUUID)
	}

	// 4. Setup Orchestrator
	homeworkBot := bot.New(pipeline, repoHost, monitorer, bot.Options{
		RequiredTag:        cfg.RequiredTag,
		HRAdminID:          cfg.RecruiteeHRID,
		DryRun:             cfg.DryRun,
		DeleteProjectAtEnd: cfg.DeleteProjectAtEnd,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One-shot mode: a single poll cycle, then exit.
	if cfg.PollIntervalSeconds == 0 {
		logger.Log.Info("Checking for uncompleted homework once")
		if err := homeworkBot.Poll(ctx); err != nil {
			logger.Log.Error("Poll cycle failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// 5. Start Webhook Server (legacy entry point, polling supersedes it)
	srv := &http.Server{
		Addr:    ":" + cfg.WebhookPort,
		Handler: webhook.NewRouter(webhook.LogOnlyHandler),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Webhook server failed", "error", err)
		}
	}()

	// 6. Schedule poll cycles. SkipIfStillRunning keeps a slow cycle from
	// overlapping with the next tick.
	scheduler := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))
	scheduler.Schedule(
		cron.Every(time.Duration(cfg.PollIntervalSeconds)*time.Second),
		cron.FuncJob(func() {
			if err := homeworkBot.Poll(ctx); err != nil {
				logger.Log.Error("Poll cycle failed", "error", err)
			}
		}),
	)
	scheduler.Start()
	logger.Log.Info("Checking for uncompleted homework tasks on schedule",
		"interval_s", cfg.PollIntervalSeconds)

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down...")

	cancel()
	<-scheduler.Stop().Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Webhook server forced to shutdown", "error", err)
	}

	logger.Log.Info("Bot exiting")
}
