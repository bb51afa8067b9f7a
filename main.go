package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/omriShneor/calendar_assistant/internal/config"
	"github.com/omriShneor/calendar_assistant/internal/database"
	"github.com/omriShneor/calendar_assistant/internal/llm"
	"github.com/omriShneor/calendar_assistant/internal/logging"
	"github.com/omriShneor/calendar_assistant/internal/notify"
	"github.com/omriShneor/calendar_assistant/internal/onboarding"
	"github.com/omriShneor/calendar_assistant/internal/server"
)

func main() {
	cfg := config.LoadFromEnv()

	logger, err := logging.New(cfg.DevMode)
	if err != nil {
		fatal("creating logger", err)
	}
	defer logger.Sync()

	// Phase 1: Core infrastructure
	db, err := initDatabase(cfg, logger)
	if err != nil {
		fatal("creating database", err)
	}
	defer db.Close()

	notifyService := initNotifyService(cfg, logger)

	// Phase 2: External clients and the pipeline
	ctx := context.Background()
	clients, err := onboarding.Initialize(ctx, cfg, logger)
	if err != nil {
		fatal("initialization", err)
	}
	defer clients.Close()

	assistant, err := onboarding.BuildPipeline(cfg, clients, db, notifyService, logger)
	if err != nil {
		fatal("building pipeline", err)
	}

	srvCfg := server.ServerConfig{
		DB:            db,
		Assistant:     assistant,
		CalendarID:    cfg.CalendarID,
		LLMName:       clients.Model.Name(),
		LLMReady:      llm.IsConfigured(clients.Model),
		Port:          cfg.HTTPPort,
		BaseURL:       cfg.BaseURL,
		DevMode:       cfg.DevMode,
		RatePerMinute: cfg.RatePerMinute,
		Logger:        logger,
	}
	if clients.GCalClient != nil {
		srvCfg.GCalClient = clients.GCalClient
	}
	srv := server.New(srvCfg)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "HTTP server error: %v\n", err)
		}
	}()

	waitForShutdown(srv)
}

func initDatabase(cfg *config.Config, logger *zap.Logger) (*database.DB, error) {
	return database.New(cfg.DBPath, logger)
}

func initNotifyService(cfg *config.Config, logger *zap.Logger) *notify.Service {
	var emailNotifier notify.Notifier
	if cfg.ResendAPIKey != "" {
		appURL := cfg.BaseURL
		if appURL == "" {
			appURL = fmt.Sprintf("http://localhost:%d", cfg.HTTPPort)
		}
		resendNotifier := notify.NewResendNotifier(cfg.ResendAPIKey, cfg.EmailFrom, appURL)
		if resendNotifier.IsConfigured() && cfg.NotifyEmail != "" {
			fmt.Println("Booking confirmation e-mails configured (Resend)")
		}
		emailNotifier = resendNotifier
	}

	return notify.NewService(emailNotifier, cfg.NotifyEmail, logger)
}

func fatal(context string, err error) {
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", context, err)
	os.Exit(1)
}

func waitForShutdown(srv *server.Server) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	fmt.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	srv.Shutdown(ctx)
}
