package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	StatusInProgress OrderStatus = "In Progress"
	StatusReady      OrderStatus = "Ready"
	StatusCompleted  OrderStatus = "Completed"
)

// orderLifecycle lists statuses in the only order they may be visited
var orderLifecycle = []OrderStatus{StatusInProgress, StatusReady, StatusCompleted}

// IsValid reports whether s is a known order status
func (s OrderStatus) IsValid() bool {
	return s.rank() >= 0
}

func (s OrderStatus) rank() int {
	for i, status := range orderLifecycle {
		if status == s {
			return i
		}
	}
	return -1
}

// CanTransition allows exactly one forward step through the lifecycle
func CanTransition(from, to OrderStatus) bool {
	if !from.IsValid() || !to.IsValid() {
		return false
	}
	return to.rank() == from.rank()+1
}

// PaymentMethod represents how the guest pays
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "Cash"
	PaymentCard   PaymentMethod = "Card"
	PaymentOnline PaymentMethod = "Online"
)

// IsValid reports whether m is a supported payment method
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentOnline:
		return true
	}
	return false
}

// RequiresGateway reports whether the method goes through the payment gateway
func (m PaymentMethod) RequiresGateway() bool {
	return m == PaymentOnline
}

// CustomerDetails identifies the guest party an order belongs to
type CustomerDetails struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Guests int    `json:"guests"`
}

// Bills is the money block attached to an order
type Bills struct {
	Total        decimal.Decimal `json:"total"`
	Tax          decimal.Decimal `json:"tax"`
	TotalWithTax decimal.Decimal `json:"totalWithTax"`
}

// OrderItem represents an item in an order; Price is the unit price
type OrderItem struct {
	ID       int             `json:"id,omitempty"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Notes    string          `json:"notes,omitempty"`
}

// LineTotal returns price multiplied by quantity
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// PaymentData carries the gateway proof for online payments
type PaymentData struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
}

// Order represents a placed customer order
type Order struct {
	ID              string          `json:"id"`
	CustomerDetails CustomerDetails `json:"customerDetails"`
	OrderStatus     OrderStatus     `json:"orderStatus"`
	OrderDate       time.Time       `json:"orderDate"`
	Bills           Bills           `json:"bills"`
	Items           []OrderItem     `json:"items"`
	TableID         string          `json:"table"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentData     *PaymentData    `json:"paymentData,omitempty"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// CreateOrderRequest is the body of POST /api/order
type CreateOrderRequest struct {
	CustomerDetails CustomerDetails `json:"customerDetails"`
	OrderStatus     OrderStatus     `json:"orderStatus"`
	Bills           Bills           `json:"bills"`
	Items           []OrderItem     `json:"items"`
	TableID         string          `json:"table"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentData     *PaymentData    `json:"paymentData,omitempty"`
}

// UpdateOrderStatusRequest is the body of PUT /api/order/{id}
type UpdateOrderStatusRequest struct {
	OrderStatus OrderStatus `json:"orderStatus"`
}

// ValidationError reports a rejected field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// billTolerance absorbs rounding differences between client and server arithmetic
var billTolerance = decimal.New(1, -2)

// Validate validates the create order request
func (req *CreateOrderRequest) Validate() error {
	if err := validateCustomer(req.CustomerDetails); err != nil {
		return err
	}

	if req.OrderStatus != "" && req.OrderStatus != StatusInProgress {
		return ValidationError{Field: "orderStatus", Message: "new orders must start In Progress"}
	}

	if strings.TrimSpace(req.TableID) == "" {
		return ValidationError{Field: "table", Message: "table is required"}
	}

	if !req.PaymentMethod.IsValid() {
		return ValidationError{Field: "paymentMethod", Message: "payment method must be one of: Cash, Card, Online"}
	}

	if req.PaymentMethod.RequiresGateway() && req.PaymentData == nil {
		return ValidationError{Field: "paymentData", Message: "payment proof is required for online payments"}
	}

	if err := validateItems(req.Items); err != nil {
		return err
	}

	return validateBills(req.Bills, req.CalculateSubtotal())
}

// CalculateSubtotal sums the line totals of the request items
func (req *CreateOrderRequest) CalculateSubtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range req.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func validateCustomer(c CustomerDetails) error {
	if strings.TrimSpace(c.Name) == "" {
		return ValidationError{Field: "customerDetails.name", Message: "customer name is required"}
	}
	if len(c.Name) > 100 {
		return ValidationError{Field: "customerDetails.name", Message: "customer name must not exceed 100 characters"}
	}
	if c.Guests < 1 {
		return ValidationError{Field: "customerDetails.guests", Message: "guest count must be at least 1"}
	}
	return nil
}

func validateItems(items []OrderItem) error {
	if len(items) == 0 {
		return ValidationError{Field: "items", Message: "items cannot be empty"}
	}
	if len(items) > 20 {
		return ValidationError{Field: "items", Message: "a maximum of 20 items is allowed"}
	}

	for i, item := range items {
		prefix := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(item.Name) == "" {
			return ValidationError{Field: prefix + ".name", Message: "item name is required"}
		}
		if item.Quantity < 1 || item.Quantity > 10 {
			return ValidationError{Field: prefix + ".quantity", Message: "quantity must be between 1 and 10"}
		}
		if item.Price.IsNegative() {
			return ValidationError{Field: prefix + ".price", Message: "price must not be negative"}
		}
	}
	return nil
}

func validateBills(b Bills, subtotal decimal.Decimal) error {
	if b.Total.Sub(subtotal).Abs().GreaterThan(billTolerance) {
		return ValidationError{Field: "bills.total", Message: "total does not match items"}
	}
	if b.TotalWithTax.Sub(b.Total.Add(b.Tax)).Abs().GreaterThan(billTolerance) {
		return ValidationError{Field: "bills.totalWithTax", Message: "totalWithTax must equal total plus tax"}
	}
	return nil
}
