package payment

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"restro-pos/internal/database"
	"restro-pos/internal/models"
)

type PostgresStore struct {
	db *database.DB
}

func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	rows, err := s.db.Pool.Query(ctx, database.InsertPaymentSQL, p.ID, p.Amount.String(), p.AmountMinor, p.Currency)
	if err != nil {
		return nil, database.Translate(err)
	}
	return one(rows)
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Payment, error) {
	rows, err := s.db.Pool.Query(ctx, database.GetPaymentSQL, id)
	if err != nil {
		return nil, database.Translate(err)
	}
	return one(rows)
}

// UpdateStatus returns ErrNotFound when the payment is missing or already settled
func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status models.PaymentStatus, paymentID string) (*models.Payment, error) {
	rows, err := s.db.Pool.Query(ctx, database.UpdatePaymentStatusSQL, id, string(status), paymentID)
	if err != nil {
		return nil, database.Translate(err)
	}
	return one(rows)
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Payment, error) {
	rows, err := s.db.Pool.Query(ctx, database.ListPaymentsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return pgx.CollectRows(rows, scanPayment)
}

func one(rows pgx.Rows) (*models.Payment, error) {
	p, err := pgx.CollectExactlyOneRow(rows, scanPayment)
	if err != nil {
		return nil, database.Translate(err)
	}
	return &p, nil
}

func scanPayment(row pgx.CollectableRow) (models.Payment, error) {
	var (
		p              models.Payment
		amount, status string
	)
	if err := row.Scan(&p.ID, &p.PaymentID, &amount, &p.AmountMinor, &p.Currency, &status, &p.CreatedAt); err != nil {
		return p, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return p, fmt.Errorf("bad amount for payment %s: %w", p.ID, err)
	}
	p.Amount = d
	p.Status = models.PaymentStatus(status)
	return p, nil
}
