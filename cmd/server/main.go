// Package main is the entry point for the pharmapos API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"pharmapos/internal/config"
	corenumerator "pharmapos/internal/core/numerator"
	"pharmapos/internal/core/outbox"
	"pharmapos/internal/core/tx"
	"pharmapos/internal/domain/audit"
	"pharmapos/internal/domain/documents/sale"
	"pharmapos/internal/domain/pricing"
	"pharmapos/internal/domain/registers/loyalty"
	"pharmapos/internal/domain/registers/stock"
	v1 "pharmapos/internal/infrastructure/http/v1"
	"pharmapos/internal/infrastructure/http/v1/handlers"
	"pharmapos/internal/infrastructure/storage/memory"
	"pharmapos/internal/infrastructure/storage/postgres"
	"pharmapos/internal/infrastructure/storage/postgres/document_repo"
	"pharmapos/internal/infrastructure/storage/postgres/register_repo"
	"pharmapos/pkg/logger"
	"pharmapos/pkg/numerator"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logger())
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.Into(ctx, log)

	log.Infow("starting pharmapos server", "storage", cfg.Storage, "version", version)

	deps, pinger, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer closeStorage()

	stockSvc := stock.NewService(deps.stock)
	loyaltySvc := loyalty.NewService(deps.loyalty, cfg.Loyalty())
	saleSvc := sale.NewService(sale.Deps{
		Repo:      deps.sales,
		Stock:     stockSvc,
		Loyalty:   loyaltySvc,
		Pricing:   pricing.NewCalculator(cfg.Pricing()),
		Numerator: deps.numerator,
		TxManager: deps.txManager,
		Events:    deps.events,
		Audit:     deps.audit,
	}, cfg.Sale())

	router, err := v1.NewRouter(v1.RouterConfig{
		Logger:  log,
		Pinger:  pinger,
		Storage: cfg.Storage,
		Version: version,
		Sales:   saleSvc,
		Stock:   stockSvc,
		Loyalty: loyaltySvc,
	})
	if err != nil {
		log.Fatalw("failed to build router", "error", err)
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server...")

		// Give outstanding requests 30 seconds to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Errorw("server stopped with error", "error", err)
		return
	}
	log.Info("server stopped")
}

// storageDeps are the repositories and infrastructure one backend provides.
type storageDeps struct {
	stock     stock.Repository
	loyalty   loyalty.Repository
	sales     sale.Repository
	numerator corenumerator.Generator
	txManager tx.Manager
	events    outbox.Publisher
	audit     audit.Trail
}

func openStorage(ctx context.Context, cfg config.Config) (storageDeps, handlers.Pinger, func(), error) {
	switch cfg.Storage {
	case config.StorageMemory:
		store := memory.New()
		deps := storageDeps{
			stock:     store.Stock(),
			loyalty:   store.Loyalty(),
			sales:     store.Sales(),
			numerator: store,
			txManager: store,
			events:    store,
			audit:     store,
		}
		return deps, store, func() {}, nil

	default:
		pool, err := postgres.NewPool(ctx, cfg.Pool())
		if err != nil {
			return storageDeps{}, nil, nil, err
		}
		txm := postgres.NewTxManager(pool).WithOptions(cfg.TxOptions())

		auditSvc, err := postgres.NewAuditService(txm)
		if err != nil {
			pool.Close()
			return storageDeps{}, nil, nil, err
		}

		deps := storageDeps{
			stock:     register_repo.NewStockRepo(txm),
			loyalty:   register_repo.NewLoyaltyRepo(txm),
			sales:     document_repo.NewSaleRepo(txm),
			numerator: numerator.New(txm),
			txManager: txm,
			events:    postgres.NewOutboxPublisher(txm),
			audit:     auditSvc,
		}
		pool.LogStats(ctx)
		return deps, pool, pool.Close, nil
	}
}
