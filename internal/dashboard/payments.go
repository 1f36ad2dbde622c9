package dashboard

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"restro-pos/internal/models"
)

// StatusFilter selects payments by status; "all" keeps everything
type StatusFilter string

// DateRange selects payments by age
type DateRange string

const (
	FilterAll      StatusFilter = "all"
	FilterCreated  StatusFilter = StatusFilter(models.PaymentCreated)
	FilterCaptured StatusFilter = StatusFilter(models.PaymentCaptured)
	FilterFailed   StatusFilter = StatusFilter(models.PaymentFailed)

	RangeAll   DateRange = "all"
	RangeToday DateRange = "today"
	RangeWeek  DateRange = "week"
	RangeMonth DateRange = "month"
)

// ParseStatusFilter accepts "", all, created, captured or failed
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch f := StatusFilter(s); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterCreated, FilterCaptured, FilterFailed:
		return f, nil
	}
	return "", fmt.Errorf("unknown payment filter %q", s)
}

// ParseDateRange accepts "", all, today, week or month
func ParseDateRange(s string) (DateRange, error) {
	switch r := DateRange(s); r {
	case "":
		return RangeAll, nil
	case RangeAll, RangeToday, RangeWeek, RangeMonth:
		return r, nil
	}
	return "", fmt.Errorf("unknown date range %q", s)
}

// PaymentSummary is the filtered payment list with its totals
type PaymentSummary struct {
	Payments    []models.Payment `json:"payments"`
	TotalAmount decimal.Decimal  `json:"totalAmount"`
	Successful  int              `json:"successful"`
	Failed      int              `json:"failed"`
	Pending     int              `json:"pending"`
}

// SummarizePayments filters payments and totals what is left
func SummarizePayments(payments []models.Payment, filter StatusFilter, dateRange DateRange, now time.Time) PaymentSummary {
	var since time.Time
	switch dateRange {
	case RangeToday:
		since = startOfDay(now)
	case RangeWeek:
		since = now.AddDate(0, 0, -7)
	case RangeMonth:
		since = now.AddDate(0, -1, 0)
	}

	summary := PaymentSummary{Payments: []models.Payment{}, TotalAmount: decimal.Zero}
	for _, p := range payments {
		if filter != FilterAll && filter != "" && StatusFilter(p.Status) != filter {
			continue
		}
		if !since.IsZero() && p.CreatedAt.Before(since) {
			continue
		}

		summary.Payments = append(summary.Payments, p)
		summary.TotalAmount = summary.TotalAmount.Add(p.Amount)
		switch p.Status {
		case models.PaymentCaptured:
			summary.Successful++
		case models.PaymentFailed:
			summary.Failed++
		case models.PaymentCreated:
			summary.Pending++
		}
	}
	return summary
}
