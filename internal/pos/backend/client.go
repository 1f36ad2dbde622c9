// Package backend is the terminal's REST client for the restaurant API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"restro-pos/internal/logger"
	"restro-pos/internal/models"
)

// APIError is a non-2xx response from the backend
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// Client talks to the api-server. Every call is bounded by the configured timeout.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logger.Logger
}

// New creates a client for baseURL
func New(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  log,
	}
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CreateOrder posts a new order. A non-empty idempotencyKey is sent as the Idempotency-Key header.
func (c *Client) CreateOrder(ctx context.Context, req *models.CreateOrderRequest, idempotencyKey string) (*models.Order, error) {
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}
	var order models.Order
	if err := c.do(ctx, http.MethodPost, "/api/order", req, headers, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns orders, optionally filtered by status
func (c *Client) ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	path := "/api/order"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}
	var orders []models.Order
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus moves an order one step forward
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error) {
	var order models.Order
	body := &models.UpdateOrderStatusRequest{OrderStatus: status}
	if err := c.do(ctx, http.MethodPut, "/api/order/"+url.PathEscape(orderID), body, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateTable issues PUT /api/table/{id}
func (c *Client) UpdateTable(ctx context.Context, tableID string, req *models.UpdateTableRequest) (*models.Table, error) {
	var table models.Table
	if err := c.do(ctx, http.MethodPut, "/api/table/"+url.PathEscape(tableID), req, nil, &table); err != nil {
		return nil, err
	}
	return &table, nil
}

func (c *Client) ListTables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	if err := c.do(ctx, http.MethodGet, "/api/table", nil, nil, &tables); err != nil {
		return nil, err
	}
	return tables, nil
}

func (c *Client) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := c.do(ctx, http.MethodGet, "/api/menu-item", nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CreatePaymentOrder asks the backend to open a gateway order for amount
func (c *Client) CreatePaymentOrder(ctx context.Context, amount decimal.Decimal) (*models.GatewayOrder, error) {
	var order models.GatewayOrder
	body := &models.CreatePaymentOrderRequest{Amount: amount}
	if err := c.do(ctx, http.MethodPost, "/api/payment/create-order", body, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// VerifyPayment forwards the gateway callback for signature verification
func (c *Client) VerifyPayment(ctx context.Context, req *models.VerifyPaymentRequest) (*models.VerifyPaymentResponse, error) {
	var resp models.VerifyPaymentResponse
	if err := c.do(ctx, http.MethodPost, "/api/payment/verify-payment", req, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListPayments(ctx context.Context) ([]models.Payment, error) {
	var payments []models.Payment
	if err := c.do(ctx, http.MethodGet, "/api/payment", nil, nil, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, headers map[string]string, out interface{}) error {
	requestID := logger.GenerateRequestID()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("backend_call", "Backend request completed", requestID, map[string]interface{}{
		"method":      method,
		"path":        path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}
	var body errorBody
	if json.Unmarshal(raw, &body) == nil {
		switch {
		case body.Message != "":
			apiErr.Message = body.Message
		case body.Error != "":
			apiErr.Message = body.Error
		}
	}
	return apiErr
}
