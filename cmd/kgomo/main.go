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
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/kgomo-bms/kgomo-bms/internal/app"
	"github.com/kgomo-bms/kgomo-bms/internal/auth"
	"github.com/kgomo-bms/kgomo-bms/internal/crm/customers"
	"github.com/kgomo-bms/kgomo-bms/internal/crm/suppliers"
	"github.com/kgomo-bms/kgomo-bms/internal/hr"
	"github.com/kgomo-bms/kgomo-bms/internal/inventory"
	"github.com/kgomo-bms/kgomo-bms/internal/purchasing"
	"github.com/kgomo-bms/kgomo-bms/internal/reporting"
	"github.com/kgomo-bms/kgomo-bms/internal/sales/invoices"
	"github.com/kgomo-bms/kgomo-bms/internal/sales/quotations"
	"github.com/kgomo-bms/kgomo-bms/internal/shared"
	"github.com/kgomo-bms/kgomo-bms/internal/view"
	"github.com/kgomo-bms/kgomo-bms/jobs"
	"github.com/kgomo-bms/kgomo-bms/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "kgomo_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	auditLogger := shared.NewAuditLogger(dbpool)
	pdfClient := report.NewClient(cfg.GotenbergURL)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	customerRepo := customers.NewRepository(dbpool)
	customerService := customers.NewService(customerRepo)
	customerHandler := customers.NewHandler(logger, customerService, templates, csrfManager)

	supplierRepo := suppliers.NewRepository(dbpool)
	supplierService := suppliers.NewService(supplierRepo)
	supplierHandler := suppliers.NewHandler(logger, supplierService, templates, csrfManager)

	inventoryRepo := inventory.NewRepository(dbpool)
	inventoryService := inventory.NewService(inventoryRepo)
	inventoryHandler := inventory.NewHandler(logger, inventoryService, templates, csrfManager, pdfClient)

	hrRepo := hr.NewRepository(dbpool)
	hrService := hr.NewService(hrRepo)
	hrHandler := hr.NewHandler(logger, hrService, templates, csrfManager)

	purchasingRepo := purchasing.NewRepository(dbpool)
	purchasingService := purchasing.NewService(purchasingRepo, supplierRepo)
	purchasingHandler := purchasing.NewHandler(logger, purchasingService, supplierService, inventoryService, templates, csrfManager, pdfClient)

	quotationRepo := quotations.NewRepository(dbpool)
	quotationService := quotations.NewService(quotationRepo, customerRepo)
	quotationHandler := quotations.NewHandler(logger, quotationService, customerService, inventoryService, templates, csrfManager, pdfClient)

	invoiceRepo := invoices.NewRepository(dbpool)
	invoiceService := invoices.NewService(invoiceRepo, customerRepo)
	invoiceHandler := invoices.NewHandler(logger, invoiceService, customerService, inventoryService, templates, csrfManager, pdfClient)

	reportingRepo := reporting.NewRepository(dbpool)
	reportingService := reporting.NewService(logger, reportingRepo, redisClient, cfg.DashboardCacheTTL, cfg.LowStockThreshold)
	reportingHandler := reporting.NewHandler(logger, reportingService, templates, csrfManager)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		Audit:             auditLogger,
		AuthHandler:       authHandler,
		CustomerHandler:   customerHandler,
		SupplierHandler:   supplierHandler,
		InventoryHandler:  inventoryHandler,
		HRHandler:         hrHandler,
		PurchasingHandler: purchasingHandler,
		QuotationHandler:  quotationHandler,
		InvoiceHandler:    invoiceHandler,
		ReportingHandler:  reportingHandler,
		JobHandler:        jobHandler,
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
