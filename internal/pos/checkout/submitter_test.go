package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restro-pos/internal/logger"
	"restro-pos/internal/models"
	"restro-pos/internal/pos/session"
)

type fakeOrders struct {
	mu    sync.Mutex
	calls []*models.CreateOrderRequest
	keys  []string
	err   error
	block chan struct{}
}

func (f *fakeOrders) CreateOrder(ctx context.Context, req *models.CreateOrderRequest, key string) (*models.Order, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	f.keys = append(f.keys, key)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Order{ID: "o-1", OrderStatus: models.StatusInProgress, TableID: req.TableID, Bills: req.Bills}, nil
}

type tableCall struct {
	tableID string
	req     *models.UpdateTableRequest
	// cartLines is the cart size observed while the call was in flight
	cartLines int
}

type fakeTables struct {
	store *Store
	calls []tableCall
	err   error
}

func (f *fakeTables) UpdateTable(ctx context.Context, tableID string, req *models.UpdateTableRequest) (*models.Table, error) {
	f.calls = append(f.calls, tableCall{tableID: tableID, req: req, cartLines: len(f.store.Lines())})
	if f.err != nil {
		return nil, f.err
	}
	return &models.Table{ID: tableID, Status: req.Status, CurrentOrderID: req.OrderID}, nil
}

type fakeRecorder struct {
	tableID, orderID string
	calls            int
	ctxErr           error
}

func (f *fakeRecorder) Record(ctx context.Context, tableID, orderID string, cause error) error {
	f.calls++
	f.tableID, f.orderID = tableID, orderID
	f.ctxErr = ctx.Err()
	return nil
}

type fakeAuthorizer struct {
	proof  *models.PaymentData
	err    error
	charge Charge
}

func (f *fakeAuthorizer) Authorize(ctx context.Context, charge Charge) (*models.PaymentData, error) {
	f.charge = charge
	return f.proof, f.err
}

type harness struct {
	store    *Store
	orders   *fakeOrders
	tables   *fakeTables
	recorder *fakeRecorder
	auth     *fakeAuthorizer
	sub      *Submitter
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	store := NewStore()
	h := &harness{
		store:    store,
		orders:   &fakeOrders{},
		tables:   &fakeTables{store: store},
		recorder: &fakeRecorder{},
		auth:     &fakeAuthorizer{proof: &models.PaymentData{GatewayOrderID: "gw_order", GatewayPaymentID: "gw_pay"}},
	}
	if opts.Authorizer == nil {
		opts.Authorizer = h.auth
	}
	log := logger.Discard()
	h.sub = NewSubmitter(store, h.orders, NewTableSync(h.tables, h.recorder, log, time.Second), log, opts)
	return h
}

// seat starts a session at table 5 and adds two teas
func (h *harness) seat(t *testing.T) {
	t.Helper()
	require.NoError(t, h.store.StartSession(session.NewOrder{Name: "Asha", Phone: "999", Guests: 2}))
	h.store.BindTable(session.TableRef{TableID: "t-5", TableNo: 5})
	_, err := h.store.AddLine(models.MenuItem{ID: "m-tea", Name: "Tea", Price: decimal.NewFromInt(20)}, 2)
	require.NoError(t, err)
}

func TestPlaceOrder_ValidationFailures(t *testing.T) {
	tests := []struct {
		name         string
		method       models.PaymentMethod
		setup        func(t *testing.T, h *harness)
		wantField    string
		wantRedirect Redirect
	}{
		{
			name:      "no payment method",
			method:    "",
			setup:     func(t *testing.T, h *harness) { h.seat(t) },
			wantField: "paymentMethod",
		},
		{
			name:      "unknown payment method",
			method:    "Barter",
			setup:     func(t *testing.T, h *harness) { h.seat(t) },
			wantField: "paymentMethod",
		},
		{
			name:   "empty cart",
			method: models.PaymentCash,
			setup: func(t *testing.T, h *harness) {
				require.NoError(t, h.store.StartSession(session.NewOrder{Guests: 1}))
				h.store.BindTable(session.TableRef{TableID: "t-1", TableNo: 1})
			},
			wantField: "cart",
		},
		{
			name:   "no table bound",
			method: models.PaymentCash,
			setup: func(t *testing.T, h *harness) {
				require.NoError(t, h.store.StartSession(session.NewOrder{Guests: 1}))
				_, err := h.store.AddLine(models.MenuItem{Name: "Tea", Price: decimal.NewFromInt(20)}, 1)
				require.NoError(t, err)
			},
			wantField:    "table",
			wantRedirect: RedirectTables,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Options{})
			tt.setup(t, h)
			before := h.store.Lines()

			res, err := h.sub.PlaceOrder(context.Background(), tt.method)
			require.Nil(t, res)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
			assert.Equal(t, tt.wantRedirect, verr.Redirect)
			assert.Equal(t, StateIdle, h.sub.State())
			assert.Empty(t, h.orders.calls, "no order call on validation failure")
			assert.Empty(t, h.tables.calls)
			assert.Equal(t, before, h.store.Lines())
		})
	}
}

func TestPlaceOrder_CashSuccess(t *testing.T) {
	h := newHarness(t, Options{})
	h.seat(t)

	res, err := h.sub.PlaceOrder(context.Background(), models.PaymentCash)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, StateSucceeded, h.sub.State())
	assert.Equal(t, "o-1", res.Order.ID)
	assert.NoError(t, res.TableSyncErr)
	assert.True(t, res.Bill.GrandTotal.Equal(decimal.RequireFromString("42.10")))

	require.Len(t, h.orders.calls, 1)
	req := h.orders.calls[0]
	assert.Equal(t, models.StatusInProgress, req.OrderStatus)
	assert.Equal(t, "t-5", req.TableID)
	assert.Equal(t, "Asha", req.CustomerDetails.Name)
	assert.Equal(t, 2, req.CustomerDetails.Guests)
	assert.Nil(t, req.PaymentData)
	assert.True(t, req.Bills.Tax.Equal(decimal.RequireFromString("2.10")))
	assert.Empty(t, h.orders.keys[0], "no idempotency key unless enabled")

	require.Len(t, h.tables.calls, 1, "exactly one table sync")
	call := h.tables.calls[0]
	assert.Equal(t, "t-5", call.tableID)
	assert.Equal(t, models.TableBooked, call.req.Status)
	require.NotNil(t, call.req.OrderID)
	assert.Equal(t, "o-1", *call.req.OrderID)
	assert.Equal(t, 1, call.cartLines, "cart must still be intact while the table sync runs")

	assert.Empty(t, h.store.Lines())
	assert.Empty(t, h.store.Session().SessionID)
	assert.Zero(t, h.recorder.calls)
}

func TestPlaceOrder_SubmissionFailurePreservesState(t *testing.T) {
	h := newHarness(t, Options{})
	h.seat(t)
	h.orders.err = errors.New("500 internal server error")

	res, err := h.sub.PlaceOrder(context.Background(), models.PaymentCard)
	require.Nil(t, res)

	var subErr *OrderSubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, StateFailed, h.sub.State())
	assert.Len(t, h.store.Lines(), 1)
	assert.True(t, h.store.Session().Table != nil)
	assert.Empty(t, h.tables.calls)

	h.orders.err = nil
	res, err = h.sub.PlaceOrder(context.Background(), models.PaymentCard)
	require.NoError(t, err)
	assert.Equal(t, "o-1", res.Order.ID)
	assert.Equal(t, StateSucceeded, h.sub.State())
}

func TestPlaceOrder_TableSyncFailureKeepsOrder(t *testing.T) {
	h := newHarness(t, Options{})
	h.seat(t)
	h.tables.err = errors.New("connection reset")

	res, err := h.sub.PlaceOrder(context.Background(), models.PaymentCash)
	require.NoError(t, err, "order is placed even when the table sync fails")
	require.NotNil(t, res.Order)

	var syncErr *TableSyncError
	require.ErrorAs(t, res.TableSyncErr, &syncErr)
	assert.Equal(t, "t-5", syncErr.TableID)
	assert.Equal(t, "o-1", syncErr.OrderID)
	assert.Equal(t, StateSucceeded, h.sub.State())

	assert.Len(t, h.orders.calls, 1, "no compensating order call")
	assert.Equal(t, 1, h.recorder.calls)
	assert.Equal(t, "t-5", h.recorder.tableID)
	assert.Equal(t, "o-1", h.recorder.orderID)
	assert.Empty(t, h.store.Lines())
}

func TestPlaceOrder_OnlinePayment(t *testing.T) {
	h := newHarness(t, Options{})
	h.seat(t)

	res, err := h.sub.PlaceOrder(context.Background(), models.PaymentOnline)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.True(t, h.auth.charge.Amount.Equal(decimal.RequireFromString("42.10")))
	assert.Equal(t, "Payment for Table 5", h.auth.charge.Description)
	assert.Equal(t, "Asha", h.auth.charge.CustomerName)

	require.Len(t, h.orders.calls, 1)
	require.NotNil(t, h.orders.calls[0].PaymentData)
	assert.Equal(t, "gw_pay", h.orders.calls[0].PaymentData.GatewayPaymentID)
}

func TestPlaceOrder_PaymentCancelled(t *testing.T) {
	h := newHarness(t, Options{})
	h.seat(t)
	h.auth.err = ErrPaymentCancelled
	before := h.store.Lines()

	res, err := h.sub.PlaceOrder(context.Background(), models.PaymentOnline)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrPaymentCancelled)
	assert.Equal(t, StateIdle, h.sub.State())
	assert.Equal(t, before, h.store.Lines())
	assert.Empty(t, h.orders.calls)
}

func TestPlaceOrder_PaymentVerificationFailed(t *testing.T) {
	h := newHarness(t, Options{})
	h.seat(t)
	h.auth.err = errors.New("signature mismatch")

	_, err := h.sub.PlaceOrder(context.Background(), models.PaymentOnline)

	var payErr *PaymentAuthorizationError
	require.ErrorAs(t, err, &payErr)
	assert.Equal(t, StateFailed, h.sub.State())
	assert.Len(t, h.store.Lines(), 1)
	assert.Empty(t, h.orders.calls)
}

func TestPlaceOrder_OnlineWithoutAuthorizer(t *testing.T) {
	h := newHarness(t, Options{})
	h.sub.authorizer = nil
	h.seat(t)

	_, err := h.sub.PlaceOrder(context.Background(), models.PaymentOnline)
	var payErr *PaymentAuthorizationError
	require.ErrorAs(t, err, &payErr)
	assert.Empty(t, h.orders.calls)
}

func TestPlaceOrder_ReentrancyGuard(t *testing.T) {
	h := newHarness(t, Options{})
	h.seat(t)
	h.orders.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := h.sub.PlaceOrder(context.Background(), models.PaymentCash)
		done <- err
	}()

	require.Eventually(t, func() bool { return h.sub.State() == StateSubmitting }, time.Second, time.Millisecond)
	assert.True(t, h.sub.Busy())

	_, err := h.sub.PlaceOrder(context.Background(), models.PaymentCash)
	assert.ErrorIs(t, err, ErrInFlight)

	close(h.orders.block)
	require.NoError(t, <-done)
	assert.Len(t, h.orders.calls, 1)
	assert.False(t, h.sub.Busy())
}

func TestPlaceOrder_IdempotencyKeyReusedAcrossRetries(t *testing.T) {
	h := newHarness(t, Options{IdempotencyKeys: true})
	h.seat(t)
	h.orders.err = errors.New("timeout")

	_, err := h.sub.PlaceOrder(context.Background(), models.PaymentCash)
	require.Error(t, err)

	h.orders.err = nil
	_, err = h.sub.PlaceOrder(context.Background(), models.PaymentCash)
	require.NoError(t, err)

	require.Len(t, h.orders.keys, 2)
	assert.NotEmpty(t, h.orders.keys[0])
	assert.Equal(t, h.orders.keys[0], h.orders.keys[1])

	h.seat(t)
	_, err = h.sub.PlaceOrder(context.Background(), models.PaymentCash)
	require.NoError(t, err)
	assert.NotEqual(t, h.orders.keys[0], h.orders.keys[2], "a new session gets a new key")
}

func TestStoreCancel(t *testing.T) {
	h := newHarness(t, Options{})
	h.seat(t)
	h.store.Cancel()
	assert.Empty(t, h.store.Lines())
	assert.Nil(t, h.store.Session().Table)
}
