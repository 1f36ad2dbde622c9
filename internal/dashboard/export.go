package dashboard

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"restro-pos/internal/models"
)

var ordersCSVHeader = []string{
	"order_id", "order_date", "status", "customer_name", "customer_phone", "guests",
	"table", "items", "total", "tax", "total_with_tax", "payment_method",
}

// WriteOrdersCSV writes one row per order
func WriteOrdersCSV(w io.Writer, orders []models.Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ordersCSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, o := range orders {
		items := 0
		for _, it := range o.Items {
			items += it.Quantity
		}
		row := []string{
			o.ID,
			o.OrderDate.UTC().Format(time.RFC3339),
			string(o.OrderStatus),
			o.CustomerDetails.Name,
			o.CustomerDetails.Phone,
			strconv.Itoa(o.CustomerDetails.Guests),
			o.TableID,
			strconv.Itoa(items),
			o.Bills.Total.StringFixed(2),
			o.Bills.Tax.StringFixed(2),
			o.Bills.TotalWithTax.StringFixed(2),
			string(o.PaymentMethod),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write order %s: %w", o.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
