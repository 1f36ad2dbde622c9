package dashboard

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restro-pos/internal/models"
)

var now = time.Date(2026, 3, 18, 15, 0, 0, 0, time.UTC)

func order(id string, at time.Time, status models.OrderStatus, phone, total string) models.Order {
	return models.Order{
		ID:              id,
		OrderDate:       at,
		OrderStatus:     status,
		CustomerDetails: models.CustomerDetails{Name: "Guest", Phone: phone, Guests: 2},
		Bills:           models.Bills{TotalWithTax: decimal.RequireFromString(total)},
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCompute(t *testing.T) {
	orders := []models.Order{
		order("a", now.Add(-30*time.Minute), models.StatusInProgress, "111", "100.00"),
		order("b", now.Add(-5*time.Hour), models.StatusReady, "222", "50.50"),
		order("c", now.AddDate(0, 0, -3), models.StatusCompleted, "111", "20.00"),
		order("d", now.AddDate(0, 0, -10), models.StatusCompleted, "333", "40.00"),
		order("e", now.AddDate(0, 0, -40), models.StatusCompleted, "", "10.00"),
	}
	tables := []models.Table{
		{ID: "1", Status: models.TableBooked},
		{ID: "2", Status: models.TableAvailable},
		{ID: "3", Status: models.TableAvailable},
	}

	m := Compute(orders, tables, now)

	assert.True(t, m.Revenue.Today.Equal(dec("150.50")), m.Revenue.Today.String())
	assert.True(t, m.Revenue.Week.Equal(dec("170.50")))
	assert.True(t, m.Revenue.Month.Equal(dec("210.50")))
	assert.True(t, m.Revenue.Total.Equal(dec("220.50")))

	assert.Equal(t, OrderCounts{Total: 5, InProgress: 1, Ready: 1, Completed: 3}, m.Orders)
	assert.Equal(t, CustomerCounts{Total: 3, Today: 2, Week: 2, Month: 3}, m.Customers)
	assert.Equal(t, TableCounts{Total: 3, Booked: 1, Available: 2}, m.Tables)

	// 170.50 this week against 40.00 last week
	assert.True(t, m.Percentages.Revenue.Value.Equal(dec("326.3")), m.Percentages.Revenue.Value.String())
	assert.True(t, m.Percentages.Revenue.IsIncrease)
	// 3 orders against 1
	assert.True(t, m.Percentages.Orders.Value.Equal(dec("200")))
	// 2 customers against 1
	assert.True(t, m.Percentages.Customers.Value.Equal(dec("100")))
	// one active order in the last hour, none the hour before
	assert.True(t, m.Percentages.ActiveOrders.Value.Equal(dec("100")))
}

func TestCompute_Empty(t *testing.T) {
	m := Compute(nil, nil, now)
	assert.True(t, m.Revenue.Total.IsZero())
	assert.True(t, m.Percentages.Revenue.IsIncrease)
	assert.True(t, m.Percentages.Orders.Value.IsZero())
}

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name         string
		current      string
		previous     string
		wantValue    string
		wantIncrease bool
	}{
		{"no history, activity", "5", "0", "100", true},
		{"no history, nothing", "0", "0", "0", true},
		{"growth", "150", "100", "50", true},
		{"decline", "75", "100", "25", false},
		{"flat", "100", "100", "0", true},
		{"rounded to one place", "2", "3", "33.3", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PercentChange(dec(tt.current), dec(tt.previous))
			assert.True(t, got.Value.Equal(dec(tt.wantValue)), "got %s", got.Value)
			assert.Equal(t, tt.wantIncrease, got.IsIncrease)
		})
	}
}

func TestSummarizePayments(t *testing.T) {
	payments := []models.Payment{
		{ID: "1", Amount: dec("100"), Status: models.PaymentCaptured, CreatedAt: now.Add(-time.Hour)},
		{ID: "2", Amount: dec("50"), Status: models.PaymentFailed, CreatedAt: now.AddDate(0, 0, -2)},
		{ID: "3", Amount: dec("25"), Status: models.PaymentCreated, CreatedAt: now.AddDate(0, 0, -20)},
		{ID: "4", Amount: dec("10"), Status: models.PaymentCaptured, CreatedAt: now.AddDate(0, -2, 0)},
	}

	tests := []struct {
		name      string
		filter    StatusFilter
		dateRange DateRange
		wantIDs   []string
		wantTotal string
	}{
		{"everything", FilterAll, RangeAll, []string{"1", "2", "3", "4"}, "185"},
		{"captured only", FilterCaptured, RangeAll, []string{"1", "4"}, "110"},
		{"today", FilterAll, RangeToday, []string{"1"}, "100"},
		{"last week", FilterAll, RangeWeek, []string{"1", "2"}, "150"},
		{"failed this month", FilterFailed, RangeMonth, []string{"2"}, "50"},
		{"nothing matches", FilterCreated, RangeToday, nil, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := SummarizePayments(payments, tt.filter, tt.dateRange, now)
			var ids []string
			for _, p := range s.Payments {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.True(t, s.TotalAmount.Equal(dec(tt.wantTotal)))
			assert.Equal(t, len(s.Payments), s.Successful+s.Failed+s.Pending)
		})
	}
}

func TestParseFilters(t *testing.T) {
	f, err := ParseStatusFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)

	_, err = ParseStatusFilter("refunded")
	assert.Error(t, err)

	r, err := ParseDateRange("week")
	require.NoError(t, err)
	assert.Equal(t, RangeWeek, r)

	_, err = ParseDateRange("year")
	assert.Error(t, err)
}

func TestWriteOrdersCSV(t *testing.T) {
	o := order("o-1", now, models.StatusInProgress, "999", "42.10")
	o.TableID = "t-5"
	o.PaymentMethod = models.PaymentCash
	o.Bills.Total = dec("40")
	o.Bills.Tax = dec("2.1")
	o.Items = []models.OrderItem{{Name: "Tea", Quantity: 2, Price: dec("20")}}

	var buf bytes.Buffer
	require.NoError(t, WriteOrdersCSV(&buf, []models.Order{o}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, ordersCSVHeader, records[0])
	assert.Equal(t, []string{
		"o-1", "2026-03-18T15:00:00Z", "In Progress", "Guest", "999", "2",
		"t-5", "2", "40.00", "2.10", "42.10", "Cash",
	}, records[1])
}
