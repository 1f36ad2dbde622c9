package table

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"restro-pos/internal/httpapi"
	"restro-pos/internal/logger"
	"restro-pos/internal/models"
)

// Handler handles HTTP requests for the table service
type Handler struct {
	service *Service
	logger  *logger.Logger
}

func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/table", h.ListTables)
	r.Post("/table", h.CreateTable)
	r.Put("/table/{id}", h.UpdateTable)
	r.Delete("/table/{id}", h.DeleteTable)
}

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.service.ListTables(r.Context())
	if err != nil {
		httpapi.Fail(w, r, h.logger, "table_list_failed", err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, tables)
}

func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())

	var req models.CreateTableRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	t, err := h.service.CreateTable(r.Context(), &req, requestID)
	if err != nil {
		httpapi.Fail(w, r, h.logger, "table_create_failed", err)
		return
	}
	httpapi.WriteData(w, http.StatusCreated, t)
}

// UpdateTable handles PUT /api/table/{id}
func (h *Handler) UpdateTable(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())

	var req models.UpdateTableRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	t, err := h.service.UpdateTable(r.Context(), chi.URLParam(r, "id"), &req, requestID)
	if err != nil {
		httpapi.Fail(w, r, h.logger, "table_update_failed", err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, t)
}

func (h *Handler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteTable(r.Context(), id, httpapi.RequestID(r.Context())); err != nil {
		httpapi.Fail(w, r, h.logger, "table_delete_failed", err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, map[string]string{"id": id})
}
