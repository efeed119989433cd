package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/salesdesk-io/salesdesk/internal/app"
	"github.com/salesdesk-io/salesdesk/internal/catalog"
	"github.com/salesdesk-io/salesdesk/internal/clients"
	"github.com/salesdesk-io/salesdesk/internal/orders"
	"github.com/salesdesk-io/salesdesk/internal/platform/cache"
	"github.com/salesdesk-io/salesdesk/internal/platform/db"
	"github.com/salesdesk-io/salesdesk/internal/quotes"
	"github.com/salesdesk-io/salesdesk/internal/shared"
	"github.com/salesdesk-io/salesdesk/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, price cache disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	idempotencyStore := shared.NewIdempotencyStore(pool)

	quotesRepo := quotes.NewRepository(pool, cfg.QuoteSeqBaseline)
	quotesService := quotes.NewService(quotesRepo)

	var pdfEnqueuer quotes.PDFEnqueuer
	var jobsHandler *jobs.Handler
	if redisClient != nil {
		jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		if err != nil {
			logger.Warn("init job client", slog.Any("error", err))
		} else {
			defer func() {
				if err := jobClient.Close(); err != nil {
					logger.Warn("job client close", slog.Any("error", err))
				}
			}()
			pdfEnqueuer = jobClient
		}
		jobsHandler = jobs.NewHandler(asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr}), logger)
	}
	quotesHandler := quotes.NewHandler(logger, quotesService, pdfEnqueuer)

	ordersRepo := orders.NewRepository(pool, cfg.OrderSeqBaseline)
	ordersService := orders.NewService(ordersRepo, quotesService)
	ordersHandler := orders.NewHandler(logger, ordersService, idempotencyStore)

	clientsRepo := clients.NewRepository(pool)
	clientsHandler := clients.NewHandler(logger, clientsRepo)

	catalogRepo := catalog.NewRepository(pool)
	priceSource := catalog.NewHTTPPriceSource(cfg.PriceAPIBaseURL, &http.Client{Timeout: cfg.PriceLookupTimeout})
	catalogService := catalog.NewService(catalogRepo, priceSource, redisClient, catalog.ServiceConfig{
		LookupTimeout:  cfg.PriceLookupTimeout,
		CacheTTL:       cfg.PriceCacheTTL,
		SearchDebounce: cfg.SearchDebounce,
	}, logger)
	defer catalogService.Close()
	catalogHandler := catalog.NewHandler(logger, catalogService)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		QuotesHandler:  quotesHandler,
		OrdersHandler:  ordersHandler,
		ClientsHandler: clientsHandler,
		CatalogHandler: catalogHandler,
		JobsHandler:    jobsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server run", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
