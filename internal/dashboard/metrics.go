// Package dashboard computes the admin dashboard figures from orders, tables and payments.
package dashboard

import (
	"time"

	"github.com/shopspring/decimal"

	"restro-pos/internal/models"
)

// Revenue sums bills.totalWithTax over several windows
type Revenue struct {
	Today decimal.Decimal `json:"today"`
	Week  decimal.Decimal `json:"week"`
	Month decimal.Decimal `json:"month"`
	Total decimal.Decimal `json:"total"`
}

type OrderCounts struct {
	Total      int `json:"total"`
	InProgress int `json:"inProgress"`
	Ready      int `json:"ready"`
	Completed  int `json:"completed"`
}

// CustomerCounts counts distinct non-empty phone numbers
type CustomerCounts struct {
	Total int `json:"total"`
	Today int `json:"today"`
	Week  int `json:"week"`
	Month int `json:"month"`
}

type TableCounts struct {
	Total     int `json:"total"`
	Booked    int `json:"booked"`
	Available int `json:"available"`
}

// Change is a period-over-period percentage, always reported as a magnitude
type Change struct {
	Value      decimal.Decimal `json:"value"`
	IsIncrease bool            `json:"isIncrease"`
}

type Percentages struct {
	Revenue      Change `json:"revenue"`
	Orders       Change `json:"orders"`
	Customers    Change `json:"customers"`
	ActiveOrders Change `json:"activeOrders"`
}

// Metrics is everything the dashboard header shows
type Metrics struct {
	Revenue     Revenue        `json:"revenue"`
	Orders      OrderCounts    `json:"orders"`
	Customers   CustomerCounts `json:"customers"`
	Tables      TableCounts    `json:"tables"`
	Percentages Percentages    `json:"percentages"`
}

// window is a half-open time range [from, to)
type window struct {
	from, to time.Time
}

func (w window) contains(t time.Time) bool {
	return !t.Before(w.from) && t.Before(w.to)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Compute derives the dashboard metrics as of now. Day boundaries use now's location.
func Compute(orders []models.Order, tables []models.Table, now time.Time) Metrics {
	// end is just past now so orders stamped exactly now are counted
	end := now.Add(time.Nanosecond)
	today := window{startOfDay(now), startOfDay(now).AddDate(0, 0, 1)}
	week := window{now.AddDate(0, 0, -7), end}
	month := window{now.AddDate(0, -1, 0), end}
	lastWeek := window{now.AddDate(0, 0, -14), now.AddDate(0, 0, -7)}
	lastHour := window{now.Add(-time.Hour), end}
	prevHour := window{now.Add(-2 * time.Hour), now.Add(-time.Hour)}
	all := window{time.Time{}, end.AddDate(100, 0, 0)}

	var m Metrics
	m.Revenue = Revenue{
		Today: revenue(orders, today),
		Week:  revenue(orders, week),
		Month: revenue(orders, month),
		Total: revenue(orders, all),
	}

	m.Orders.Total = len(orders)
	for _, o := range orders {
		switch o.OrderStatus {
		case models.StatusInProgress:
			m.Orders.InProgress++
		case models.StatusReady:
			m.Orders.Ready++
		case models.StatusCompleted:
			m.Orders.Completed++
		}
	}

	m.Customers = CustomerCounts{
		Total: customers(orders, all),
		Today: customers(orders, today),
		Week:  customers(orders, week),
		Month: customers(orders, month),
	}

	m.Tables.Total = len(tables)
	for _, t := range tables {
		switch t.Status {
		case models.TableBooked:
			m.Tables.Booked++
		case models.TableAvailable:
			m.Tables.Available++
		}
	}

	if len(orders) == 0 {
		flat := Change{Value: decimal.Zero, IsIncrease: true}
		m.Percentages = Percentages{Revenue: flat, Orders: flat, Customers: flat, ActiveOrders: flat}
		return m
	}

	m.Percentages = Percentages{
		Revenue:      PercentChange(revenue(orders, week), revenue(orders, lastWeek)),
		Orders:       PercentChange(count(orders, week, nil), count(orders, lastWeek, nil)),
		Customers:    PercentChange(decimal.NewFromInt(int64(customers(orders, week))), decimal.NewFromInt(int64(customers(orders, lastWeek)))),
		ActiveOrders: PercentChange(count(orders, lastHour, inProgress), count(orders, prevHour, inProgress)),
	}
	return m
}

// PercentChange compares current with previous. With no previous value the change
// is 100 when anything happened and 0 otherwise, and counts as an increase.
func PercentChange(current, previous decimal.Decimal) Change {
	if previous.IsZero() {
		if current.IsPositive() {
			return Change{Value: decimal.NewFromInt(100), IsIncrease: true}
		}
		return Change{Value: decimal.Zero, IsIncrease: true}
	}
	delta := current.Sub(previous)
	pct := delta.Div(previous).Mul(decimal.NewFromInt(100))
	return Change{Value: pct.Abs().Round(1), IsIncrease: !delta.IsNegative()}
}

func inProgress(o models.Order) bool { return o.OrderStatus == models.StatusInProgress }

func revenue(orders []models.Order, w window) decimal.Decimal {
	sum := decimal.Zero
	for _, o := range orders {
		if w.contains(o.OrderDate) {
			sum = sum.Add(o.Bills.TotalWithTax)
		}
	}
	return sum
}

func count(orders []models.Order, w window, keep func(models.Order) bool) decimal.Decimal {
	n := int64(0)
	for _, o := range orders {
		if w.contains(o.OrderDate) && (keep == nil || keep(o)) {
			n++
		}
	}
	return decimal.NewFromInt(n)
}

func customers(orders []models.Order, w window) int {
	phones := make(map[string]struct{})
	for _, o := range orders {
		if o.CustomerDetails.Phone != "" && w.contains(o.OrderDate) {
			phones[o.CustomerDetails.Phone] = struct{}{}
		}
	}
	return len(phones)
}
