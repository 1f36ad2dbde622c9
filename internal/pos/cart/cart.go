// Package cart holds the lines a guest has picked before the order is placed.
package cart

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"restro-pos/internal/models"
)

// MaxQuantity is the most units a single add-to-cart action may carry
const MaxQuantity = 10

// ErrZeroQuantity is returned when an item is added without a positive quantity
var ErrZeroQuantity = models.ValidationError{Field: "quantity", Message: "select a quantity first"}

// Line is one add-to-cart action
type Line struct {
	LineID     string
	MenuItemID string
	Name       string
	UnitPrice  decimal.Decimal
	Quantity   int
	LineTotal  decimal.Decimal
	Notes      string
}

// Cart is the ordered collection of lines for the active session.
// It is not safe for concurrent use; the checkout store serialises access.
type Cart struct {
	lines []Line
	newID func() string
}

// New returns an empty cart
func New() *Cart {
	return &Cart{newID: uuid.NewString}
}

// AddLine appends a new line for item. Quantities above MaxQuantity are clamped.
// Repeated additions of the same item produce separate lines.
func (c *Cart) AddLine(item models.MenuItem, quantity int) (Line, error) {
	if quantity <= 0 {
		return Line{}, ErrZeroQuantity
	}
	if item.Price.IsNegative() {
		return Line{}, models.ValidationError{Field: "unitPrice", Message: fmt.Sprintf("%s has a negative price", item.Name)}
	}
	if quantity > MaxQuantity {
		quantity = MaxQuantity
	}

	line := Line{
		LineID:     c.newID(),
		MenuItemID: item.ID,
		Name:       item.Name,
		UnitPrice:  item.Price,
		Quantity:   quantity,
		LineTotal:  item.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
	c.lines = append(c.lines, line)
	return line, nil
}

// RemoveLine drops the line with the given id; unknown ids are ignored
func (c *Cart) RemoveLine(lineID string) {
	for i, line := range c.lines {
		if line.LineID == lineID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// ErrLineNotFound is returned by SetNotes for an unknown line
var ErrLineNotFound = errors.New("cart line not found")

// SetNotes attaches kitchen notes to a line
func (c *Cart) SetNotes(lineID, notes string) error {
	for i := range c.lines {
		if c.lines[i].LineID == lineID {
			c.lines[i].Notes = notes
			return nil
		}
	}
	return ErrLineNotFound
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the current lines in insertion order
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

// OrderItems converts the lines into the item block of an order request
func (c *Cart) OrderItems() []models.OrderItem {
	items := make([]models.OrderItem, 0, len(c.lines))
	for _, line := range c.lines {
		items = append(items, models.OrderItem{
			Name:     line.Name,
			Quantity: line.Quantity,
			Price:    line.UnitPrice,
			Notes:    line.Notes,
		})
	}
	return items
}
