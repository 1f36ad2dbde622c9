package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TableStatus represents whether a table is free
type TableStatus string

const (
	TableAvailable TableStatus = "Available"
	TableBooked    TableStatus = "Booked"
)

// IsValid reports whether s is a known table status
func (s TableStatus) IsValid() bool {
	return s == TableAvailable || s == TableBooked
}

// Table is a dining table on the floor
type Table struct {
	ID             string      `json:"id"`
	TableNo        int         `json:"tableNo"`
	Seats          int         `json:"seats"`
	Status         TableStatus `json:"status"`
	CurrentOrderID *string     `json:"currentOrder,omitempty"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// CreateTableRequest is the body of POST /api/table
type CreateTableRequest struct {
	TableNo int `json:"tableNo"`
	Seats   int `json:"seats"`
}

// Validate validates the create table request
func (req *CreateTableRequest) Validate() error {
	if req.TableNo < 1 {
		return ValidationError{Field: "tableNo", Message: "table number must be positive"}
	}
	if req.Seats < 1 || req.Seats > 20 {
		return ValidationError{Field: "seats", Message: "seats must be between 1 and 20"}
	}
	return nil
}

// UpdateTableRequest is the body of PUT /api/table/{id}
type UpdateTableRequest struct {
	Status  TableStatus `json:"status"`
	OrderID *string     `json:"orderId"`
}

// Validate validates the update table request
func (req *UpdateTableRequest) Validate() error {
	if !req.Status.IsValid() {
		return ValidationError{Field: "status", Message: "status must be one of: Available, Booked"}
	}
	if req.Status == TableBooked && (req.OrderID == nil || *req.OrderID == "") {
		return ValidationError{Field: "orderId", Message: "booked tables must reference an order"}
	}
	return nil
}

// MenuItem is something a guest can order
type MenuItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable bool            `json:"isAvailable"`
}

// CreateMenuItemRequest is the body of POST /api/menu-item and PUT /api/menu-item/{id}
type CreateMenuItemRequest struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
}

// Validate validates the create menu item request
func (req *CreateMenuItemRequest) Validate() error {
	if req.Name == "" {
		return ValidationError{Field: "name", Message: "item name is required"}
	}
	if len(req.Name) > 50 {
		return ValidationError{Field: "name", Message: "item name must not exceed 50 characters"}
	}
	if req.Category == "" {
		return ValidationError{Field: "category", Message: "category is required"}
	}
	if req.Price.IsNegative() {
		return ValidationError{Field: "price", Message: "price must not be negative"}
	}
	return nil
}

// Category groups menu items. Menu items refer to it by name.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	BgColor     string `json:"bgColor"`
}

// CategoryRequest is the body of POST /api/category and PUT /api/category/{id}
type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	BgColor     string `json:"bgColor"`
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

func (req *CategoryRequest) Validate() error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return ValidationError{Field: "name", Message: "category name is required"}
	}
	if len(req.Name) > 50 {
		return ValidationError{Field: "name", Message: "category name must not exceed 50 characters"}
	}
	if len(req.Description) > 200 {
		return ValidationError{Field: "description", Message: "description must not exceed 200 characters"}
	}
	if req.BgColor != "" && !hexColor.MatchString(req.BgColor) {
		return ValidationError{Field: "bgColor", Message: "bgColor must be a hex colour like #f5f5f5"}
	}
	return nil
}
