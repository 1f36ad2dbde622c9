package database

// Money columns are read as text and parsed with decimal.NewFromString so no
// float conversion ever touches an amount.

// Order queries
const (
	orderColumns = `
		o.id::text, o.customer_name, o.customer_phone, o.guests, o.order_status, o.order_date,
		o.total::text, o.tax::text, o.total_with_tax::text, o.table_id::text, o.payment_method,
		COALESCE(o.gateway_order_id, ''), COALESCE(o.gateway_payment_id, ''), o.updated_at`

	InsertOrderSQL = `
		INSERT INTO orders (customer_name, customer_phone, guests, order_status, total, tax, total_with_tax,
		                    table_id, payment_method, gateway_order_id, gateway_payment_id, idempotency_key)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric, $8::uuid, $9, NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''))
		RETURNING id::text, order_date, updated_at`

	InsertOrderItemSQL = `
		INSERT INTO order_items (order_id, name, quantity, price, notes)
		VALUES ($1::uuid, $2, $3, $4::numeric, $5)
		RETURNING id`

	GetOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1::uuid`

	GetOrderByIdempotencyKeySQL = `SELECT ` + orderColumns + ` FROM orders o WHERE o.idempotency_key = $1`

	ListOrdersSQL = `
		SELECT ` + orderColumns + ` FROM orders o
		WHERE ($1 = '' OR o.order_status = $1)
		ORDER BY o.order_date DESC`

	ListOrderItemsSQL = `
		SELECT id, order_id::text, name, quantity, price::text, notes
		FROM order_items
		WHERE order_id::text = ANY($1::text[])
		ORDER BY id`

	// UpdateOrderStatusSQL only moves an order that is still in the expected status
	UpdateOrderStatusSQL = `
		UPDATE orders SET order_status = $2, updated_at = NOW()
		WHERE id = $1::uuid AND order_status = $3
		RETURNING updated_at`
)

// Table queries
const (
	tableColumns = `id::text, table_no, seats, status, current_order_id::text, updated_at`

	ListTablesSQL = `SELECT ` + tableColumns + ` FROM restaurant_tables ORDER BY table_no`

	GetTableByIDSQL = `SELECT ` + tableColumns + ` FROM restaurant_tables WHERE id = $1::uuid`

	InsertTableSQL = `
		INSERT INTO restaurant_tables (table_no, seats)
		VALUES ($1, $2)
		RETURNING ` + tableColumns

	// UpdateTableSQL clears the order reference whenever the table becomes Available.
	// A booking only lands on a free table or one already held by the same order,
	// and never for an order that has been completed.
	UpdateTableSQL = `
		UPDATE restaurant_tables
		SET status = $2,
		    current_order_id = CASE WHEN $2 = 'Available' THEN NULL ELSE $3::uuid END,
		    updated_at = NOW()
		WHERE id = $1::uuid
		  AND ($2 = 'Available'
		       OR ((status = 'Available' OR current_order_id = $3::uuid)
		           AND NOT EXISTS (SELECT 1 FROM orders WHERE id = $3::uuid AND order_status = 'Completed')))
		RETURNING ` + tableColumns

	DeleteTableSQL = `DELETE FROM restaurant_tables WHERE id = $1::uuid`
)

// Menu queries
const (
	menuColumns = `id::text, name, category, price::text, is_available`

	ListMenuItemsSQL = `SELECT ` + menuColumns + ` FROM menu_items ORDER BY category, name`

	InsertMenuItemSQL = `
		INSERT INTO menu_items (name, category, price, is_available)
		VALUES ($1, $2, $3::numeric, $4)
		RETURNING ` + menuColumns

	ToggleMenuItemSQL = `
		UPDATE menu_items SET is_available = NOT is_available
		WHERE id = $1::uuid
		RETURNING ` + menuColumns

	UpdateMenuItemSQL = `
		UPDATE menu_items SET name = $2, category = $3, price = $4::numeric
		WHERE id = $1::uuid
		RETURNING ` + menuColumns

	DeleteMenuItemSQL = `DELETE FROM menu_items WHERE id = $1::uuid`
)

// Category queries
const (
	categoryColumns = `id::text, name, description, icon, bg_color`

	ListCategoriesSQL = `SELECT ` + categoryColumns + ` FROM categories ORDER BY name`

	InsertCategorySQL = `
		INSERT INTO categories (name, description, icon, bg_color)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + categoryColumns

	// UpdateCategorySQL renames cascade to menu_items through the foreign key
	UpdateCategorySQL = `
		UPDATE categories SET name = $2, description = $3, icon = $4, bg_color = $5
		WHERE id = $1::uuid
		RETURNING ` + categoryColumns

	DeleteCategorySQL = `DELETE FROM categories WHERE id = $1::uuid`
)

// Payment queries
const (
	paymentColumns = `id, payment_id, amount::text, amount_minor, currency, status, created_at`

	InsertPaymentSQL = `
		INSERT INTO payments (id, amount, amount_minor, currency, status)
		VALUES ($1, $2::numeric, $3, $4, 'created')
		RETURNING ` + paymentColumns

	GetPaymentSQL = `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	// UpdatePaymentStatusSQL settles an open payment. A captured payment never changes again;
	// a failed one can still be captured by a correctly signed callback.
	UpdatePaymentStatusSQL = `
		UPDATE payments SET status = $2, payment_id = $3
		WHERE id = $1
		  AND (status = 'created' OR (status = 'failed' AND $2 = 'captured'))
		RETURNING ` + paymentColumns

	ListPaymentsSQL = `SELECT ` + paymentColumns + ` FROM payments ORDER BY created_at DESC`
)
