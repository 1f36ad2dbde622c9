package checkout

import (
	"sync"

	"github.com/google/uuid"

	"restro-pos/internal/models"
	"restro-pos/internal/pos/bill"
	"restro-pos/internal/pos/cart"
	"restro-pos/internal/pos/session"
)

// Store is the state container for one terminal: the cart and the session it belongs to.
// All mutations go through it so the submitter can take a consistent snapshot.
type Store struct {
	mu             sync.Mutex
	cart           *cart.Cart
	session        *session.Session
	idempotencyKey string
}

// NewStore returns a store with an empty cart and session
func NewStore() *Store {
	return &Store{
		cart:    cart.New(),
		session: session.New(),
	}
}

// StartSession begins a new engagement
func (s *Store) StartSession(req session.NewOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.Start(req); err != nil {
		return err
	}
	s.idempotencyKey = ""
	return nil
}

func (s *Store) BindTable(ref session.TableRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.BindTable(ref)
}

func (s *Store) SetCustomerName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.SetCustomerName(name)
}

func (s *Store) SetCustomerPhone(phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.SetCustomerPhone(phone)
}

func (s *Store) AddLine(item models.MenuItem, quantity int) (cart.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.AddLine(item, quantity)
}

func (s *Store) RemoveLine(lineID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.RemoveLine(lineID)
}

func (s *Store) SetNotes(lineID, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.SetNotes(lineID, notes)
}

// Lines returns a copy of the cart lines
func (s *Store) Lines() []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Lines()
}

// Session returns a copy of the session context
func (s *Store) Session() session.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Snapshot()
}

// Bill recomputes the bill for the current cart
func (s *Store) Bill() bill.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bill.Calculate(s.cart.Lines())
}

// Cancel drops the cart and the session on explicit user request
func (s *Store) Cancel() {
	s.commit()
}

// commit is the single point where a finished checkout empties the store
func (s *Store) commit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Clear()
	s.session.Reset()
	s.idempotencyKey = ""
}

// draft is a consistent copy of everything an order submission needs
type draft struct {
	lines    []cart.Line
	items    []models.OrderItem
	session  session.Context
	customer models.CustomerDetails
}

func (s *Store) draft() draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return draft{
		lines:    s.cart.Lines(),
		items:    s.cart.OrderItems(),
		session:  s.session.Snapshot(),
		customer: s.session.CustomerDetails(),
	}
}

// submissionKey returns the idempotency key for the current session, creating it on first use
func (s *Store) submissionKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idempotencyKey == "" {
		s.idempotencyKey = uuid.NewString()
	}
	return s.idempotencyKey
}
