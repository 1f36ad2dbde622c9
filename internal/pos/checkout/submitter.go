// Package checkout turns a cart into a placed order and keeps the table in step with it.
//
// A placement walks Idle -> Validating -> (AwaitingPayment) -> Submitting and ends in
// Succeeded or Failed. The cart and session are only cleared at the commit point,
// after the order exists and the table sync has been issued.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"restro-pos/internal/logger"
	"restro-pos/internal/models"
	"restro-pos/internal/pos/bill"
)

// State is a step of the order placement state machine
type State string

const (
	StateIdle            State = "Idle"
	StateValidating      State = "Validating"
	StateAwaitingPayment State = "AwaitingPayment"
	StateSubmitting      State = "Submitting"
	StateSucceeded       State = "Succeeded"
	StateFailed          State = "Failed"
)

// OrderAPI creates orders on the backend. idempotencyKey may be empty.
type OrderAPI interface {
	CreateOrder(ctx context.Context, req *models.CreateOrderRequest, idempotencyKey string) (*models.Order, error)
}

// Charge describes what the payment widget should collect
type Charge struct {
	Amount        decimal.Decimal
	Description   string
	CustomerName  string
	CustomerPhone string
}

// Authorizer obtains payment for online orders. It may block on the guest for
// as long as ctx allows and returns ErrPaymentCancelled if the guest dismisses it.
type Authorizer interface {
	Authorize(ctx context.Context, charge Charge) (*models.PaymentData, error)
}

// Result is what a successful placement hands back for the invoice
type Result struct {
	Order *models.Order
	Bill  bill.Snapshot
	// TableSyncErr is set when the order was created but the table update failed.
	TableSyncErr error
}

// Options configures a Submitter
type Options struct {
	// Authorizer handles online payments; nil disables them.
	Authorizer Authorizer
	// Timeout bounds every backend call made while submitting.
	Timeout time.Duration
	// IdempotencyKeys attaches one key per session to order submissions.
	IdempotencyKeys bool
}

// Submitter orchestrates order placement for one terminal
type Submitter struct {
	store      *Store
	orders     OrderAPI
	tables     *TableSync
	authorizer Authorizer
	logger     *logger.Logger
	timeout    time.Duration
	idempotent bool

	inFlight atomic.Bool
	mu       sync.RWMutex
	state    State
}

// NewSubmitter wires a submitter around the given store and collaborators
func NewSubmitter(store *Store, orders OrderAPI, tables *TableSync, log *logger.Logger, opts Options) *Submitter {
	return &Submitter{
		store:      store,
		orders:     orders,
		tables:     tables,
		authorizer: opts.Authorizer,
		logger:     log,
		timeout:    opts.Timeout,
		idempotent: opts.IdempotencyKeys,
		state:      StateIdle,
	}
}

// State returns the current placement state
func (s *Submitter) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Busy reports whether a placement is in flight; callers use it to disable the place-order action
func (s *Submitter) Busy() bool {
	return s.inFlight.Load()
}

func (s *Submitter) setState(next State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = next
}

// PlaceOrder runs one placement attempt with the chosen payment method
func (s *Submitter) PlaceOrder(ctx context.Context, method models.PaymentMethod) (*Result, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrInFlight
	}
	defer s.inFlight.Store(false)

	requestID := logger.GenerateRequestID()
	s.setState(StateValidating)

	d := s.store.draft()
	if err := validate(method, d); err != nil {
		s.logger.Warn("order_validation_failed", err.Error(), requestID, nil)
		s.setState(StateIdle)
		return nil, err
	}

	snapshot := bill.Calculate(d.lines)
	req := &models.CreateOrderRequest{
		CustomerDetails: d.customer,
		OrderStatus:     models.StatusInProgress,
		Bills:           snapshot.Bills(),
		Items:           d.items,
		TableID:         d.session.Table.TableID,
		PaymentMethod:   method,
	}

	if method.RequiresGateway() {
		proof, err := s.authorize(ctx, requestID, snapshot, d)
		if err != nil {
			return nil, err
		}
		req.PaymentData = proof
	}

	s.setState(StateSubmitting)
	order, err := s.submit(ctx, req)
	if err != nil {
		s.logger.Error("order_submission_failed", "Failed to place order", requestID, err, map[string]interface{}{
			"table_id":       req.TableID,
			"payment_method": string(method),
		})
		s.setState(StateFailed)
		return nil, &OrderSubmissionError{Err: err}
	}

	s.setState(StateSucceeded)
	s.logger.Info("order_placed", "Order placed", requestID, map[string]interface{}{
		"order_id":       order.ID,
		"table_id":       req.TableID,
		"total_with_tax": snapshot.GrandTotal.StringFixed(2),
		"payment_method": string(method),
	})

	syncErr := s.tables.Sync(ctx, req.TableID, order.ID)
	s.store.commit()

	return &Result{Order: order, Bill: snapshot, TableSyncErr: syncErr}, nil
}

func validate(method models.PaymentMethod, d draft) error {
	if method == "" {
		return &ValidationError{Field: "paymentMethod", Message: "select payment method"}
	}
	if !method.IsValid() {
		return &ValidationError{Field: "paymentMethod", Message: fmt.Sprintf("unsupported payment method %q", method)}
	}
	if len(d.lines) == 0 {
		return &ValidationError{Field: "cart", Message: "cart is empty"}
	}
	if d.session.Table == nil || d.session.Table.TableID == "" {
		return &ValidationError{Field: "table", Message: "select a table first", Redirect: RedirectTables}
	}
	return nil
}

func (s *Submitter) authorize(ctx context.Context, requestID string, snapshot bill.Snapshot, d draft) (*models.PaymentData, error) {
	s.setState(StateAwaitingPayment)

	if s.authorizer == nil {
		s.setState(StateFailed)
		return nil, &PaymentAuthorizationError{Err: errors.New("online payments are not configured")}
	}

	proof, err := s.authorizer.Authorize(ctx, Charge{
		Amount:        snapshot.GrandTotal,
		Description:   fmt.Sprintf("Payment for Table %d", d.session.Table.TableNo),
		CustomerName:  d.customer.Name,
		CustomerPhone: d.customer.Phone,
	})
	switch {
	case errors.Is(err, ErrPaymentCancelled):
		s.logger.Info("payment_cancelled", "Guest closed the payment widget", requestID, nil)
		s.setState(StateIdle)
		return nil, ErrPaymentCancelled
	case err != nil:
		s.logger.Error("payment_failed", "Payment authorization failed", requestID, err, nil)
		s.setState(StateFailed)
		return nil, &PaymentAuthorizationError{Err: err}
	}

	s.logger.Info("payment_authorized", "Payment verified", requestID, map[string]interface{}{
		"gateway_order_id": proof.GatewayOrderID,
	})
	return proof, nil
}

func (s *Submitter) submit(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	var key string
	if s.idempotent {
		key = s.store.submissionKey()
	}

	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	order, err := s.orders.CreateOrder(callCtx, req, key)
	if err != nil {
		return nil, err
	}
	if order == nil || order.ID == "" {
		return nil, errors.New("backend accepted the order without an id")
	}
	return order, nil
}
