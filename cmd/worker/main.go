// Package main is the entry point for the pharmapos background worker.
// It relays SaleCommitted events from sys_outbox and parks messages that
// ran out of retries in the dead-letter table.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"pharmapos/internal/config"
	"pharmapos/internal/domain/documents/sale"
	"pharmapos/internal/infrastructure/storage/postgres"
	"pharmapos/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if cfg.Storage != config.StoragePostgres {
		fmt.Println("worker requires STORAGE=postgres")
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

	log.Info("starting pharmapos worker")

	pool, err := postgres.NewPool(ctx, cfg.Pool())
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool).WithOptions(cfg.TxOptions())
	w := NewWorker(txManager, pool, cfg, log)

	if err := w.Run(ctx); err != nil {
		log.Errorw("worker stopped with error", "error", err)
		return
	}
	log.Info("worker stopped")
}

// Worker polls the outbox.
type Worker struct {
	relay *postgres.OutboxRelay
	pool  *postgres.Pool
	cfg   config.Config
	log   *logger.Logger
}

// NewWorker creates a worker whose handler logs every committed sale.
func NewWorker(txManager *postgres.TxManager, pool *postgres.Pool, cfg config.Config, log *logger.Logger) *Worker {
	w := &Worker{
		pool: pool,
		cfg:  cfg,
		log:  log.Named("worker"),
	}
	w.relay = postgres.NewOutboxRelay(txManager, cfg.Relay(), postgres.OutboxHandlerFunc(w.handle))
	return w
}

// Run starts the relay, DLQ and stats loops and blocks until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	ctx = logger.Into(ctx, w.log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.every(ctx, w.cfg.OutboxPollInterval, w.relayOnce)
	})
	g.Go(func() error {
		return w.every(ctx, time.Minute, w.parkFailed)
	})
	g.Go(func() error {
		return w.every(ctx, 5*time.Minute, func(ctx context.Context) { w.pool.LogStats(ctx) })
	})
	return g.Wait()
}

func (w *Worker) every(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func (w *Worker) relayOnce(ctx context.Context) {
	n, err := w.relay.ProcessBatch(ctx)
	if err != nil {
		w.log.Errorw("outbox batch failed", "error", err)
		return
	}
	if n > 0 {
		pending, _ := w.relay.PendingCount(ctx)
		w.log.Debugw("processed outbox batch", "count", n, "pending", pending)
	}
}

func (w *Worker) parkFailed(ctx context.Context) {
	n, err := w.relay.MoveToDLQ(ctx)
	if err != nil {
		w.log.Errorw("outbox DLQ move failed", "error", err)
		return
	}
	if n > 0 {
		w.log.Warnw("outbox messages moved to DLQ", "count", n)
	}
}

// handle delivers one message. Downstream reporting reads the log stream.
func (w *Worker) handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	if msg.EventType != sale.EventSaleCommitted {
		w.log.Warnw("skipping unknown outbox event", "event_type", msg.EventType, "message_id", msg.ID)
		return nil
	}

	var ev sale.CommittedEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return fmt.Errorf("decode %s payload: %w", msg.EventType, err)
	}

	units := int64(0)
	for _, it := range ev.Items {
		units += it.Quantity
	}

	w.log.ForContext(ctx).Infow("sale committed",
		"sale_id", ev.SaleID,
		"number", ev.Number,
		"total_amount", ev.TotalAmount.StringFixed(2),
		"gst_total", ev.GSTTotal.StringFixed(2),
		"payment_type", ev.PaymentType,
		"lines", len(ev.Items),
		"units", units,
		"points_redeemed", ev.RedeemedPoints,
		"points_earned", ev.PointsEarned,
	)
	return nil
}
