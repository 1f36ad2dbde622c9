package order

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"restro-pos/internal/database"
	"restro-pos/internal/models"
)

// PostgresStore is the pgx-backed Store
type PostgresStore struct {
	db *database.DB
}

func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts the order and its items in one transaction
func (s *PostgresStore) Create(ctx context.Context, req *models.CreateOrderRequest, idempotencyKey string) (*models.Order, error) {
	order := &models.Order{
		CustomerDetails: req.CustomerDetails,
		OrderStatus:     req.OrderStatus,
		Bills:           req.Bills,
		Items:           append([]models.OrderItem(nil), req.Items...),
		TableID:         req.TableID,
		PaymentMethod:   req.PaymentMethod,
		PaymentData:     req.PaymentData,
	}

	var gatewayOrderID, gatewayPaymentID string
	if req.PaymentData != nil {
		gatewayOrderID, gatewayPaymentID = req.PaymentData.GatewayOrderID, req.PaymentData.GatewayPaymentID
	}

	err := s.db.InTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, database.InsertOrderSQL,
			req.CustomerDetails.Name,
			req.CustomerDetails.Phone,
			req.CustomerDetails.Guests,
			string(req.OrderStatus),
			req.Bills.Total.String(),
			req.Bills.Tax.String(),
			req.Bills.TotalWithTax.String(),
			req.TableID,
			string(req.PaymentMethod),
			gatewayOrderID,
			gatewayPaymentID,
			idempotencyKey,
		).Scan(&order.ID, &order.OrderDate, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		batch := &pgx.Batch{}
		for _, item := range order.Items {
			batch.Queue(database.InsertOrderItemSQL, order.ID, item.Name, item.Quantity, item.Price.String(), item.Notes)
		}
		br := tx.SendBatch(ctx, batch)
		for i := range order.Items {
			if err := br.QueryRow().Scan(&order.Items[i].ID); err != nil {
				br.Close()
				return fmt.Errorf("insert order item %d: %w", i, err)
			}
		}
		return br.Close()
	})
	if err != nil {
		return nil, database.Translate(err)
	}
	return order, nil
}

func (s *PostgresStore) GetByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	return s.getOne(ctx, database.GetOrderByIdempotencyKeySQL, key)
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Order, error) {
	return s.getOne(ctx, database.GetOrderByIDSQL, id)
}

func (s *PostgresStore) getOne(ctx context.Context, query string, arg string) (*models.Order, error) {
	order, err := scanOrder(s.db.Pool.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, database.Translate(err)
	}
	orders := []models.Order{*order}
	if err := s.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (s *PostgresStore) List(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	rows, err := s.db.Pool.Query(ctx, database.ListOrdersSQL, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	if err := s.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) (*models.Order, error) {
	tag, err := s.db.Pool.Exec(ctx, database.UpdateOrderStatusSQL, id, string(to), string(from))
	if err != nil {
		return nil, database.Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, database.ErrNotFound
	}
	return s.Get(ctx, id)
}

// attachItems loads the items of every order in one query
func (s *PostgresStore) attachItems(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
		orders[i].Items = []models.OrderItem{}
	}

	rows, err := s.db.Pool.Query(ctx, database.ListOrderItemsSQL, ids)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item    models.OrderItem
			orderID string
			price   string
		)
		if err := rows.Scan(&item.ID, &orderID, &item.Name, &item.Quantity, &price, &item.Notes); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if item.Price, err = decimal.NewFromString(price); err != nil {
			return fmt.Errorf("bad price for order %s: %w", orderID, err)
		}
		i := index[orderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		o                                models.Order
		status, method                   string
		total, tax, totalWithTax         string
		gatewayOrderID, gatewayPaymentID string
	)
	err := row.Scan(
		&o.ID,
		&o.CustomerDetails.Name,
		&o.CustomerDetails.Phone,
		&o.CustomerDetails.Guests,
		&status,
		&o.OrderDate,
		&total,
		&tax,
		&totalWithTax,
		&o.TableID,
		&method,
		&gatewayOrderID,
		&gatewayPaymentID,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.OrderStatus = models.OrderStatus(status)
	o.PaymentMethod = models.PaymentMethod(method)
	if gatewayOrderID != "" || gatewayPaymentID != "" {
		o.PaymentData = &models.PaymentData{GatewayOrderID: gatewayOrderID, GatewayPaymentID: gatewayPaymentID}
	}

	amounts := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&o.Bills.Total, total},
		{&o.Bills.Tax, tax},
		{&o.Bills.TotalWithTax, totalWithTax},
	}
	for _, a := range amounts {
		d, err := decimal.NewFromString(a.src)
		if err != nil {
			return nil, fmt.Errorf("bad amount %q: %w", a.src, err)
		}
		*a.dst = d
	}
	return &o, nil
}
