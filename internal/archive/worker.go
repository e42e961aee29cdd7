// Package archive moves old settlement records from the database to S3
// cold storage on a fixed interval.
package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/campustribe/tribemarket/internal/domain"
)

// Worker runs the cold-storage archiver periodically.
type Worker struct {
	archiver      domain.Archiver
	retentionDays int
	interval      time.Duration
	logger        *slog.Logger
}

// NewWorker creates a Worker that archives records older than retentionDays
// every interval.
func NewWorker(archiver domain.Archiver, retentionDays int, interval time.Duration, logger *slog.Logger) *Worker {
	return &Worker{
		archiver:      archiver,
		retentionDays: retentionDays,
		interval:      interval,
		logger:        logger,
	}
}

// Run executes a single archive pass. It calculates the cutoff time based
// on the retention window and archives ledger entries and orders older than
// the cutoff.
func (w *Worker) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-time.Duration(w.retentionDays) * 24 * time.Hour)
	w.logger.Info("archive: starting run",
		slog.Time("cutoff", cutoff),
		slog.Int("retention_days", w.retentionDays),
	)

	ledgerArchived, err := w.archiver.ArchiveLedger(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archive: ledger before %v: %w", cutoff, err)
	}

	ordersArchived, err := w.archiver.ArchiveOrders(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archive: orders before %v: %w", cutoff, err)
	}

	w.logger.Info("archive: run complete",
		slog.Int64("ledger_archived", ledgerArchived),
		slog.Int64("orders_archived", ordersArchived),
	)
	return nil
}

// RunLoop runs one pass immediately and then on every interval tick until
// the context is cancelled. A failed pass is logged and retried on the next
// tick rather than stopping the loop.
func (w *Worker) RunLoop(ctx context.Context) error {
	if err := w.Run(ctx); err != nil {
		w.logger.Error("archive: run failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("archive: loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := w.Run(ctx); err != nil {
				w.logger.Error("archive: run failed", slog.String("error", err.Error()))
			}
		}
	}
}
