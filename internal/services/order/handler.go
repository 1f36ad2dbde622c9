package order

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"restro-pos/internal/httpapi"
	"restro-pos/internal/logger"
	"restro-pos/internal/models"
)

// IdempotencyKeyHeader lets a terminal retry a submission without duplicating the order
const IdempotencyKeyHeader = "Idempotency-Key"

// Handler handles HTTP requests for the order service
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new order handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/order", h.CreateOrder)
	r.Get("/order", h.ListOrders)
	r.Get("/order/{id}", h.GetOrder)
	r.Put("/order/{id}", h.UpdateStatus)
}

// CreateOrder handles POST /api/order
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())

	h.logger.Debug("order_received", "Received order creation request", requestID, map[string]interface{}{
		"content_length": r.ContentLength,
		"remote_addr":    r.RemoteAddr,
	})

	var req models.CreateOrderRequest
	if err := httpapi.Decode(r, &req); err != nil {
		h.logger.Warn("validation_failed", "Failed to parse request body", requestID, map[string]interface{}{"error": err.Error()})
		httpapi.WriteError(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	order, created, err := h.service.CreateOrder(ctx, &req, r.Header.Get(IdempotencyKeyHeader), requestID)
	if err != nil {
		httpapi.Fail(w, r, h.logger, "order_creation_failed", err)
		return
	}

	status := http.StatusCreated
	if !created {
		w.Header().Set("Idempotent-Replayed", "true")
		status = http.StatusOK
	}
	httpapi.WriteData(w, status, order)
}

// ListOrders handles GET /api/order?status=
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context(), models.OrderStatus(r.URL.Query().Get("status")))
	if err != nil {
		httpapi.Fail(w, r, h.logger, "order_list_failed", err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, orders)
}

// GetOrder handles GET /api/order/{id}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpapi.Fail(w, r, h.logger, "order_get_failed", err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, order)
}

// UpdateStatus handles PUT /api/order/{id}
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())

	var req models.UpdateOrderStatusRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), &req, requestID)
	if err != nil {
		httpapi.Fail(w, r, h.logger, "order_update_failed", err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, order)
}
