// Package invoice prints the receipt handed to the guest after an order is placed.
package invoice

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"restro-pos/internal/models"
	"restro-pos/internal/pos/bill"
)

const width = 40

// Receipt is everything printed on one invoice
type Receipt struct {
	Order   *models.Order
	Bill    bill.Snapshot
	TableNo int
	// Symbol prefixes every amount, e.g. "₹"
	Symbol string
}

// Formatter renders amounts with locale digit grouping
type Formatter struct {
	printer *message.Printer
}

// NewFormatter returns a formatter for tag; language.English groups as 1,234,567.89
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag)}
}

// Amount formats d with two decimals and grouped thousands
func (f *Formatter) Amount(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	_, frac, _ := strings.Cut(d.StringFixed(2), ".")
	return sign + f.printer.Sprintf("%d", d.IntPart()) + "." + frac
}

// Write prints r to w
func Write(w io.Writer, r Receipt, f *Formatter) error {
	if r.Order == nil {
		return fmt.Errorf("receipt has no order")
	}
	o := r.Order
	money := func(d decimal.Decimal) string { return r.Symbol + f.Amount(d) }

	var b strings.Builder
	rule := strings.Repeat("-", width) + "\n"

	b.WriteString(center("ORDER INVOICE"))
	b.WriteString(rule)
	fmt.Fprintf(&b, "Order ID : %s\n", o.ID)
	fmt.Fprintf(&b, "Date     : %s\n", o.OrderDate.Local().Format(time.DateTime))
	fmt.Fprintf(&b, "Customer : %s\n", o.CustomerDetails.Name)
	if o.CustomerDetails.Phone != "" {
		fmt.Fprintf(&b, "Phone    : %s\n", o.CustomerDetails.Phone)
	}
	fmt.Fprintf(&b, "Guests   : %d\n", o.CustomerDetails.Guests)
	if r.TableNo > 0 {
		fmt.Fprintf(&b, "Table    : %d\n", r.TableNo)
	}
	b.WriteString(rule)

	for _, item := range o.Items {
		label := fmt.Sprintf("%s x%d", item.Name, item.Quantity)
		b.WriteString(line(label, money(item.LineTotal())))
		if item.Notes != "" {
			fmt.Fprintf(&b, "  (%s)\n", item.Notes)
		}
	}
	b.WriteString(rule)

	b.WriteString(line("Subtotal", money(r.Bill.Subtotal)))
	b.WriteString(line(fmt.Sprintf("Tax (%s%%)", r.Bill.TaxRate.String()), money(r.Bill.TaxAmount)))
	b.WriteString(line("Grand Total", money(r.Bill.GrandTotal)))
	b.WriteString(rule)

	fmt.Fprintf(&b, "Payment  : %s\n", o.PaymentMethod)
	if o.PaymentData != nil && o.PaymentData.GatewayPaymentID != "" {
		fmt.Fprintf(&b, "Ref      : %s\n", o.PaymentData.GatewayPaymentID)
	}
	b.WriteString(center("Thank you!"))

	_, err := io.WriteString(w, b.String())
	return err
}

func line(label, amount string) string {
	pad := width - len([]rune(label)) - len([]rune(amount))
	if pad < 1 {
		pad = 1
	}
	return label + strings.Repeat(" ", pad) + amount + "\n"
}

func center(s string) string {
	pad := (width - len([]rune(s))) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s + "\n"
}
