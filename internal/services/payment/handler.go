package payment

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"restro-pos/internal/httpapi"
	"restro-pos/internal/logger"
	"restro-pos/internal/models"
)

type Handler struct {
	service *Service
	logger  *logger.Logger
}

func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Route("/payment", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/create-order", h.CreateOrder)
		r.Post("/verify-payment", h.Verify)
	})
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())

	var req models.CreatePaymentOrderRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}
	order, err := h.service.CreateOrder(r.Context(), &req, requestID)
	if err != nil {
		httpapi.Fail(w, r, h.logger, "payment_order_failed", err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, order)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())

	var req models.VerifyPaymentRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}
	resp, err := h.service.VerifyPayment(r.Context(), &req, requestID)
	if err != nil {
		httpapi.Fail(w, r, h.logger, "payment_verify_failed", err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, resp)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.ListPayments(r.Context())
	if err != nil {
		httpapi.Fail(w, r, h.logger, "payment_list_failed", err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, payments)
}
