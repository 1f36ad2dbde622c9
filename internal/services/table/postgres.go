package table

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"restro-pos/internal/database"
	"restro-pos/internal/models"
)

type PostgresStore struct {
	db *database.DB
}

func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Table, error) {
	rows, err := s.db.Pool.Query(ctx, database.ListTablesSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	tables, err := pgx.CollectRows(rows, scanTable)
	if err != nil {
		return nil, fmt.Errorf("failed to scan tables: %w", err)
	}
	return tables, nil
}

func (s *PostgresStore) Create(ctx context.Context, req *models.CreateTableRequest) (*models.Table, error) {
	rows, err := s.db.Pool.Query(ctx, database.InsertTableSQL, req.TableNo, req.Seats)
	if err != nil {
		return nil, database.Translate(err)
	}
	return collectOne(rows)
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Table, error) {
	rows, err := s.db.Pool.Query(ctx, database.GetTableByIDSQL, id)
	if err != nil {
		return nil, database.Translate(err)
	}
	return collectOne(rows)
}

// Update returns ErrNotFound when the table is missing or the booking guard rejects the change
func (s *PostgresStore) Update(ctx context.Context, id string, req *models.UpdateTableRequest) (*models.Table, error) {
	rows, err := s.db.Pool.Query(ctx, database.UpdateTableSQL, id, string(req.Status), req.OrderID)
	if err != nil {
		return nil, database.Translate(err)
	}
	return collectOne(rows)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Pool.Exec(ctx, database.DeleteTableSQL, id)
	if err != nil {
		return database.Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return database.ErrNotFound
	}
	return nil
}

func collectOne(rows pgx.Rows) (*models.Table, error) {
	t, err := pgx.CollectExactlyOneRow(rows, scanTable)
	if err != nil {
		return nil, database.Translate(err)
	}
	return &t, nil
}

func scanTable(row pgx.CollectableRow) (models.Table, error) {
	var (
		t      models.Table
		status string
	)
	err := row.Scan(&t.ID, &t.TableNo, &t.Seats, &status, &t.CurrentOrderID, &t.UpdatedAt)
	t.Status = models.TableStatus(status)
	return t, err
}
