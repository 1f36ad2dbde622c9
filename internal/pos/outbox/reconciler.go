package outbox

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"restro-pos/internal/logger"
	"restro-pos/internal/models"
	"restro-pos/internal/pos/backend"
	"restro-pos/internal/pos/checkout"
)

// Options tunes a Reconciler. Zero values fall back to defaults.
type Options struct {
	Interval    time.Duration
	BatchSize   int
	Timeout     time.Duration
	MaxAttempts int
}

// Reconciler retries pending table syncs until the backend accepts them.
// Syncs that can no longer succeed are parked.
type Reconciler struct {
	store       *Store
	tables      checkout.TableAPI
	logger      *logger.Logger
	interval    time.Duration
	batchSize   int
	timeout     time.Duration
	maxAttempts int
}

// NewReconciler creates a reconciler polling every opts.Interval
func NewReconciler(store *Store, tables checkout.TableAPI, log *logger.Logger, opts Options) *Reconciler {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 10
	}
	return &Reconciler{
		store:       store,
		tables:      tables,
		logger:      log,
		interval:    opts.Interval,
		batchSize:   opts.BatchSize,
		timeout:     opts.Timeout,
		maxAttempts: opts.MaxAttempts,
	}
}

// Start runs the reconciler in the background. The returned stop func
// cancels it and waits for the current pass to finish.
func (r *Reconciler) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.Run(ctx)
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}

// Run processes the outbox immediately and then on every tick until ctx is cancelled
func (r *Reconciler) Run(ctx context.Context) error {
	r.logger.Info("reconciler_started", "Table reconciler started", "", map[string]interface{}{
		"interval":     r.interval.String(),
		"batch_size":   r.batchSize,
		"max_attempts": r.maxAttempts,
	})

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error("reconcile_failed", "Reconciliation pass failed", "", err, nil)
		}

		select {
		case <-ctx.Done():
			r.logger.Info("reconciler_stopped", "Table reconciler stopped", "", nil)
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce retries one batch and returns how many syncs were applied
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	pending, err := r.store.Pending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, p := range pending {
		if ctx.Err() != nil {
			return applied, ctx.Err()
		}
		requestID := logger.GenerateRequestID()
		details := map[string]interface{}{
			"table_id": p.TableID,
			"order_id": p.OrderID,
			"attempts": p.Attempts,
		}

		if err := r.sync(ctx, p); err != nil {
			if ctx.Err() != nil {
				// shutting down; the row stays pending untouched
				return applied, ctx.Err()
			}
			if r.giveUp(p, err) {
				r.logger.Error("table_sync_parked", "Giving up on table sync", requestID, err, details)
				if parkErr := r.store.Park(ctx, p, err); parkErr != nil {
					return applied, parkErr
				}
				continue
			}
			r.logger.Warn("table_sync_retry_failed", err.Error(), requestID, details)
			if markErr := r.store.MarkFailed(ctx, p.TableID, p.OrderID, err); markErr != nil {
				return applied, markErr
			}
			continue
		}

		if err := r.store.MarkDone(ctx, p.TableID, p.OrderID); err != nil {
			return applied, err
		}
		applied++
		r.logger.Info("table_sync_reconciled", "Table marked booked after retry", requestID, details)
	}
	return applied, nil
}

func (r *Reconciler) sync(ctx context.Context, p PendingSync) error {
	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	orderID := p.OrderID
	_, err := r.tables.UpdateTable(callCtx, p.TableID, &models.UpdateTableRequest{
		Status:  models.TableBooked,
		OrderID: &orderID,
	})
	return err
}

// giveUp reports whether a failed sync should leave the retry queue:
// the backend refused the booking with a 4xx or the attempts are used up
func (r *Reconciler) giveUp(p PendingSync, err error) bool {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= http.StatusBadRequest && apiErr.Status < http.StatusInternalServerError {
		return true
	}
	return p.Attempts+1 >= r.maxAttempts
}
