package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/crestline-erp/crestline-erp/internal/accounting/accounts"
	"github.com/crestline-erp/crestline-erp/internal/accounting/autoentry"
	"github.com/crestline-erp/crestline-erp/internal/accounting/journals"
	"github.com/crestline-erp/crestline-erp/internal/accounting/periods"
	"github.com/crestline-erp/crestline-erp/internal/accounting/query"
	"github.com/crestline-erp/crestline-erp/internal/accounting/reports"
	"github.com/crestline-erp/crestline-erp/internal/app"
	"github.com/crestline-erp/crestline-erp/internal/observability"
	"github.com/crestline-erp/crestline-erp/internal/platform/cache"
	"github.com/crestline-erp/crestline-erp/internal/platform/db"
	internalshared "github.com/crestline-erp/crestline-erp/internal/shared"
	"github.com/crestline-erp/crestline-erp/jobs"
	"github.com/crestline-erp/crestline-erp/migrations"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := db.Migrate(migrations.FS, ".", cfg.PGDSN); err != nil {
		logger.Error("apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	ledgerMetrics := metrics.NewLedger()
	auditLogger := internalshared.NewAuditLogger(dbpool)

	accountsRepo := accounts.NewRepository(dbpool)
	accountsService := accounts.NewService(accountsRepo)
	accountsHandler := accounts.NewHandler(logger, accountsService)

	periodsService := periods.NewService(periods.NewRepository(dbpool), auditLogger)
	periodsHandler := periods.NewHandler(logger, periodsService)

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportsService := reports.NewService(reports.NewRepository(dbpool), reportCache)
	reportsHandler := reports.NewHandler(logger, reportsService)

	journalsService := journals.NewService(
		journals.NewRepository(dbpool),
		auditLogger,
		reportCache,
		ledgerMetrics,
		journals.ParseReversalPolicy(cfg.LedgerReversalPeriod),
	)
	journalsHandler := journals.NewHandler(logger, journalsService)

	queryEngine := query.NewEngine(query.NewRepository(dbpool), accountsService)
	queryHandler := query.NewHandler(logger, queryEngine)

	autoEntryService := autoentry.NewService(autoentry.NewRepository(dbpool), journalsService, accountsRepo)
	documentLookup := autoentry.NewDocumentLookup(dbpool)
	for _, sourceType := range []journals.SourceType{
		journals.SourceInvoiceIssued,
		journals.SourcePaymentReceived,
		journals.SourceMaterialOutbound,
	} {
		autoEntryService.RegisterLookup(sourceType, documentLookup)
	}
	autoEntryHandler := autoentry.NewHandler(logger, autoEntryService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AccountsHandler:  accountsHandler,
		PeriodsHandler:   periodsHandler,
		JournalsHandler:  journalsHandler,
		QueryHandler:     queryHandler,
		ReportsHandler:   reportsHandler,
		AutoEntryHandler: autoEntryHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
