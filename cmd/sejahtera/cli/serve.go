package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/edi-sejahtera/sejahtera/internal/app"
	"github.com/edi-sejahtera/sejahtera/internal/backup"
	"github.com/edi-sejahtera/sejahtera/internal/customers"
	"github.com/edi-sejahtera/sejahtera/internal/documents"
	"github.com/edi-sejahtera/sejahtera/internal/invoices"
	"github.com/edi-sejahtera/sejahtera/internal/items"
	jobmetrics "github.com/edi-sejahtera/sejahtera/internal/jobs"
	"github.com/edi-sejahtera/sejahtera/internal/observability"
	"github.com/edi-sejahtera/sejahtera/internal/platform/cache"
	"github.com/edi-sejahtera/sejahtera/internal/view"
	"github.com/edi-sejahtera/sejahtera/jobs"
	"github.com/edi-sejahtera/sejahtera/report"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Jalankan HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if app.InTestMode() {
				slog.Default().Info("test mode detected, skipping server startup")
				return nil
			}
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), rt)
		},
	}
}

func serve(ctx context.Context, rt *runtime) error {
	cfg, logger := rt.cfg, rt.logger

	pool, err := rt.connectDB(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Documents render without the cache when Redis is down.
	var documentCache documents.Cache
	redisClient, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		logger.Warn("redis unavailable, document cache disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		documentCache = documents.NewRedisCache(redisClient)
	}

	metrics := observability.NewMetrics()
	jobmetrics.NewMetrics(metrics.Registerer())

	itemService := items.NewService(items.NewRepository(pool))
	customerService := customers.NewService(customers.NewRepository(pool))
	invoiceService := invoices.NewService(invoices.NewRepository(pool), cfg.InvoiceConfig(), logger, metrics)

	templates, err := view.NewEngine()
	if err != nil {
		return err
	}
	reportClient := report.NewClient(cfg.GotenbergURL, cfg.GotenbergTimeout, report.WithLogger(logger))
	documentConfig := cfg.DocumentConfig()
	documentConfig.Observer = metrics
	documentService := documents.NewService(invoiceService, templates, reportClient, documentCache, documentConfig, logger)

	backupService := backup.NewService(backup.NewRepository(pool))

	inspector := asynq.NewInspector(cfg.AsynqRedis())
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Metrics:         metrics,
		ItemHandler:     items.NewHandler(logger, itemService),
		CustomerHandler: customers.NewHandler(logger, customerService),
		InvoiceHandler:  invoices.NewHandler(logger, invoiceService),
		DocumentHandler: documents.NewHandler(logger, documentService),
		BackupHandler:   backup.NewHandler(logger, backupService),
		ReportHandler:   report.NewHandler(reportClient, logger),
		JobHandler:      jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("http server", slog.Any("error", err))
			return err
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
		return err
	}
	return nil
}
