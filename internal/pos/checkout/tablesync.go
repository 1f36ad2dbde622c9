package checkout

import (
	"context"
	"time"

	"restro-pos/internal/logger"
	"restro-pos/internal/models"
)

const recordTimeout = 5 * time.Second

// TableAPI updates tables on the backend
type TableAPI interface {
	UpdateTable(ctx context.Context, tableID string, req *models.UpdateTableRequest) (*models.Table, error)
}

// SyncRecorder keeps failed table syncs so they can be retried later
type SyncRecorder interface {
	Record(ctx context.Context, tableID, orderID string, cause error) error
}

// TableSync marks a table booked for a freshly created order.
// A failure is reported and recorded but never undoes the order.
type TableSync struct {
	tables   TableAPI
	recorder SyncRecorder
	logger   *logger.Logger
	timeout  time.Duration
}

// NewTableSync creates a table sync; recorder may be nil
func NewTableSync(tables TableAPI, recorder SyncRecorder, log *logger.Logger, timeout time.Duration) *TableSync {
	return &TableSync{
		tables:   tables,
		recorder: recorder,
		logger:   log,
		timeout:  timeout,
	}
}

// Sync issues PUT /api/table/{id} with status Booked and the order id
func (s *TableSync) Sync(ctx context.Context, tableID, orderID string) error {
	requestID := logger.GenerateRequestID()

	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.tables.UpdateTable(callCtx, tableID, &models.UpdateTableRequest{
		Status:  models.TableBooked,
		OrderID: &orderID,
	})
	if err == nil {
		s.logger.Info("table_synced", "Table marked booked", requestID, map[string]interface{}{
			"table_id": tableID,
			"order_id": orderID,
		})
		return nil
	}

	s.logger.Error("table_sync_failed", "Order placed but table not updated", requestID, err, map[string]interface{}{
		"table_id": tableID,
		"order_id": orderID,
	})

	if s.recorder != nil {
		// record even when the caller's context is already cancelled
		recCtx, cancelRec := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
		defer cancelRec()
		if recErr := s.recorder.Record(recCtx, tableID, orderID, err); recErr != nil {
			s.logger.Error("table_sync_record_failed", "Failed to record pending table sync", requestID, recErr, map[string]interface{}{
				"table_id": tableID,
				"order_id": orderID,
			})
		}
	}

	return &TableSyncError{TableID: tableID, OrderID: orderID, Err: err}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
