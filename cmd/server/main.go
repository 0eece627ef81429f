package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmhand/internal/auth"
	"github.com/mamadbah2/farmhand/internal/config"
	"github.com/mamadbah2/farmhand/internal/repository/mongodb"
	"github.com/mamadbah2/farmhand/internal/repository/sheets"
	"github.com/mamadbah2/farmhand/internal/scheduler"
	"github.com/mamadbah2/farmhand/internal/server/handlers"
	"github.com/mamadbah2/farmhand/internal/server/router"
	attendancesvc "github.com/mamadbah2/farmhand/internal/service/attendance"
	milksvc "github.com/mamadbah2/farmhand/internal/service/milk"
	reportsvc "github.com/mamadbah2/farmhand/internal/service/reports"
	summarysvc "github.com/mamadbah2/farmhand/internal/service/summary"
	usersvc "github.com/mamadbah2/farmhand/internal/service/users"
	whatsappsvc "github.com/mamadbah2/farmhand/internal/service/whatsapp"
	workoffsvc "github.com/mamadbah2/farmhand/internal/service/workoff"
	"github.com/mamadbah2/farmhand/pkg/clients/anthropic"
	"github.com/mamadbah2/farmhand/pkg/clients/gemini"
	whatsappclient "github.com/mamadbah2/farmhand/pkg/clients/whatsapp"
	"github.com/mamadbah2/farmhand/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc := cfg.Location()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	store, err := mongodb.NewStore(startupCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	if err := store.EnsureIndexes(startupCtx); err != nil {
		baseLogger.Fatal("failed to ensure mongodb indexes", zap.Error(err))
	}

	var exporter milksvc.Exporter
	if cfg.Sheets.Enabled() {
		sheetExporter, err := sheets.NewExporter(startupCtx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets exporter", zap.Error(err))
		}
		exporter = sheetExporter
		baseLogger.Info("google sheets export enabled")
	} else {
		baseLogger.Warn("google sheets not configured, milk export disabled")
	}

	var notifier summarysvc.Notifier
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		notifier = whatsappsvc.NewMetaWhatsAppService(whatsClient, cfg.WhatsApp.ManagerID, baseLogger.Named("svc.whatsapp"))
		baseLogger.Info("whatsapp summary notifications enabled")
	}

	summarizer, err := newSummarizer(startupCtx, cfg.AI)
	if err != nil {
		baseLogger.Fatal("failed to init ai client", zap.Error(err))
	}
	baseLogger.Info("ai summarizer enabled", zap.String("provider", cfg.AI.Provider))

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	attendanceSvc := attendancesvc.NewService(store, store, loc, baseLogger.Named("svc.attendance"))
	workOffSvc := workoffsvc.NewService(store, loc, baseLogger.Named("svc.workoff"))
	userSvc := usersvc.NewService(store, tokens, baseLogger.Named("svc.users"),
		usersvc.Sweep{Name: "mark_absent", Run: func(ctx context.Context) error {
			_, err := attendanceSvc.MarkAbsentForToday(ctx)
			return err
		}},
		usersvc.Sweep{Name: "auto_mark_work_off", Run: func(ctx context.Context) error {
			_, err := workOffSvc.AutoMarkUsed(ctx)
			return err
		}},
	)
	reportSvc := reportsvc.NewService(store, store, loc, baseLogger.Named("svc.reports"))
	summarySvc := summarysvc.NewService(store, store, summarizer, notifier, cfg.AI.Timeout, loc, baseLogger.Named("svc.summary"))
	milkSvc := milksvc.NewService(store, store, exporter, loc, baseLogger.Named("svc.milk"))

	handlerLogger := baseLogger.Named("handlers")
	engine := router.New(router.Handlers{
		Auth:       handlers.NewAuthHandler(userSvc, cfg.Server.IsProduction(), handlerLogger),
		Users:      handlers.NewUserHandler(userSvc, handlerLogger),
		Attendance: handlers.NewAttendanceHandler(attendanceSvc, handlerLogger),
		WorkOff:    handlers.NewWorkOffHandler(workOffSvc, handlerLogger),
		Reports:    handlers.NewReportHandler(reportSvc, handlerLogger),
		Summaries:  handlers.NewSummaryHandler(summarySvc, handlerLogger),
		Milk:       handlers.NewMilkHandler(milkSvc, handlerLogger),
	}, tokens, cfg.Server.CORSOrigin, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Reporting.SummaryCronSchedule, loc, summarySvc, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AI.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newSummarizer(ctx context.Context, cfg config.AIConfig) (summarysvc.Summarizer, error) {
	if cfg.Provider == config.ProviderGemini {
		return gemini.NewClient(ctx, cfg.GeminiKey, cfg.Model, "")
	}
	return anthropic.NewClient(cfg.AnthropicKey, anthropic.WithModel(cfg.Model)), nil
}
