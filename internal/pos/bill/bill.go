// Package bill turns cart lines into subtotal, tax and grand total.
//
// Line totals are summed exactly. The tax amount is rounded half-up to two
// places, and the subtotal is rounded the same way before the grand total
// is formed, so every amount in a Snapshot is already presentation-ready.
package bill

import (
	"github.com/shopspring/decimal"

	"restro-pos/internal/models"
	"restro-pos/internal/pos/cart"
)

// TaxRatePercent is the fixed tax rate applied to every order
var TaxRatePercent = decimal.RequireFromString("5.25")

var hundred = decimal.NewFromInt(100)

// Snapshot is a pure projection of a cart; it is never stored on its own
type Snapshot struct {
	Subtotal   decimal.Decimal
	TaxRate    decimal.Decimal
	TaxAmount  decimal.Decimal
	GrandTotal decimal.Decimal
}

// Calculate computes the bill for the given lines
func Calculate(lines []cart.Line) Snapshot {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal)
	}
	return FromSubtotal(subtotal)
}

// FromSubtotal applies the tax policy to an already summed subtotal
func FromSubtotal(subtotal decimal.Decimal) Snapshot {
	subtotal = Round(subtotal)
	tax := Round(subtotal.Mul(TaxRatePercent).Div(hundred))
	return Snapshot{
		Subtotal:   subtotal,
		TaxRate:    TaxRatePercent,
		TaxAmount:  tax,
		GrandTotal: subtotal.Add(tax),
	}
}

// Round rounds half away from zero to two decimal places
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Bills converts the snapshot into the bills block of an order request
func (s Snapshot) Bills() models.Bills {
	return models.Bills{
		Total:        s.Subtotal,
		Tax:          s.TaxAmount,
		TotalWithTax: s.GrandTotal,
	}
}

// IsZero reports whether nothing is owed
func (s Snapshot) IsZero() bool {
	return s.GrandTotal.IsZero()
}
