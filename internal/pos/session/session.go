// Package session tracks the dine-in engagement an order is being built for.
package session

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"restro-pos/internal/models"
)

// TableRef points at the table the party is seated at
type TableRef struct {
	TableID string
	TableNo int
}

// NewOrder is what staff enter when starting an order.
// Name and Phone are optional; Guests is mandatory.
type NewOrder struct {
	Name   string
	Phone  string
	Guests int
}

// Context is the in-progress session. The zero value is the empty session.
type Context struct {
	SessionID     string
	CustomerName  string
	CustomerPhone string
	GuestCount    int
	Table         *TableRef
	Anonymous     bool
}

// Session owns one Context at a time.
type Session struct {
	ctx       Context
	newID     func() string
	guestName func() string
}

// New returns an empty session
func New() *Session {
	return &Session{
		newID:     uuid.NewString,
		guestName: anonymousGuestName,
	}
}

func anonymousGuestName() string {
	return fmt.Sprintf("Guest %d", rand.IntN(1000))
}

// Start begins a new engagement, replacing whatever was there
func (s *Session) Start(req NewOrder) error {
	if req.Guests < 1 {
		return models.ValidationError{Field: "guests", Message: "guest count must be at least 1"}
	}

	name := strings.TrimSpace(req.Name)
	anonymous := name == "" || strings.HasPrefix(name, "Guest")
	if name == "" {
		name = s.guestName()
	}

	s.ctx = Context{
		SessionID:     s.newID(),
		CustomerName:  name,
		CustomerPhone: strings.TrimSpace(req.Phone),
		GuestCount:    req.Guests,
		Anonymous:     anonymous,
	}
	return nil
}

// BindTable seats the party at a table
func (s *Session) BindTable(ref TableRef) {
	s.ctx.Table = &ref
}

// SetCustomerName replaces the generated guest label with a real name
func (s *Session) SetCustomerName(name string) {
	s.ctx.CustomerName = strings.TrimSpace(name)
	s.ctx.Anonymous = false
}

func (s *Session) SetCustomerPhone(phone string) {
	s.ctx.CustomerPhone = strings.TrimSpace(phone)
}

// Reset empties the session
func (s *Session) Reset() {
	s.ctx = Context{}
}

// Snapshot returns a copy of the current context
func (s *Session) Snapshot() Context {
	out := s.ctx
	if s.ctx.Table != nil {
		ref := *s.ctx.Table
		out.Table = &ref
	}
	return out
}

// Active reports whether an engagement has been started
func (s *Session) Active() bool {
	return s.ctx.SessionID != ""
}

func (s *Session) HasTable() bool {
	return s.ctx.Table != nil && s.ctx.Table.TableID != ""
}

// CustomerDetails builds the customer block of an order request.
// Defaults: a blank name becomes a generated guest label, phone stays empty,
// and a missing guest count is sent as 1.
func (s *Session) CustomerDetails() models.CustomerDetails {
	name := s.ctx.CustomerName
	if name == "" {
		name = s.guestName()
	}
	guests := s.ctx.GuestCount
	if guests < 1 {
		guests = 1
	}
	return models.CustomerDetails{
		Name:   name,
		Phone:  s.ctx.CustomerPhone,
		Guests: guests,
	}
}
