package models

import (
	"time"
)

// Routing keys for floor events published on the pos_events exchange
const (
	EventOrderCreated = "order.created"
	EventOrderUpdated = "order.updated"
	EventTableUpdated = "table.updated"
)

// OrderEventMessage is published whenever an order is created or changes status
type OrderEventMessage struct {
	Event        string      `json:"event"`
	OrderID      string      `json:"order_id"`
	CustomerName string      `json:"customer_name"`
	TableID      string      `json:"table_id"`
	OldStatus    OrderStatus `json:"old_status,omitempty"`
	NewStatus    OrderStatus `json:"new_status"`
	TotalWithTax string      `json:"total_with_tax"`
	Timestamp    time.Time   `json:"timestamp"`
}

// TableEventMessage is published whenever a table changes status
type TableEventMessage struct {
	Event     string      `json:"event"`
	TableID   string      `json:"table_id"`
	TableNo   int         `json:"table_no"`
	Status    TableStatus `json:"status"`
	OrderID   *string     `json:"order_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewOrderEventMessage builds an order event from the stored order
func NewOrderEventMessage(event string, order *Order, oldStatus OrderStatus) *OrderEventMessage {
	return &OrderEventMessage{
		Event:        event,
		OrderID:      order.ID,
		CustomerName: order.CustomerDetails.Name,
		TableID:      order.TableID,
		OldStatus:    oldStatus,
		NewStatus:    order.OrderStatus,
		TotalWithTax: order.Bills.TotalWithTax.StringFixed(2),
		Timestamp:    time.Now().UTC(),
	}
}

// NewTableEventMessage builds a table event from the stored table
func NewTableEventMessage(table *Table) *TableEventMessage {
	return &TableEventMessage{
		Event:     EventTableUpdated,
		TableID:   table.ID,
		TableNo:   table.TableNo,
		Status:    table.Status,
		OrderID:   table.CurrentOrderID,
		Timestamp: time.Now().UTC(),
	}
}
