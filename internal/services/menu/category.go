package menu

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"restro-pos/internal/database"
	"restro-pos/internal/httpapi"
	"restro-pos/internal/logger"
	"restro-pos/internal/models"
)

// CategoryStore persists menu categories. Renaming a category moves its items with it;
// deleting one that still has items is a conflict.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, req *models.CategoryRequest) (*models.Category, error)
	UpdateCategory(ctx context.Context, id string, req *models.CategoryRequest) (*models.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// CategoryHandler handles HTTP requests for menu categories
type CategoryHandler struct {
	store  CategoryStore
	logger *logger.Logger
}

func NewCategoryHandler(store CategoryStore, log *logger.Logger) *CategoryHandler {
	return &CategoryHandler{store: store, logger: log}
}

func (h *CategoryHandler) Routes(r chi.Router) {
	r.Get("/category", h.List)
	r.Post("/category", h.Create)
	r.Put("/category/{id}", h.Update)
	r.Delete("/category/{id}", h.Delete)
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		httpapi.Fail(w, r, h.logger, "category_list_failed", err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, categories)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())

	req, ok := h.decode(w, r, "category_create_failed")
	if !ok {
		return
	}
	c, err := h.store.CreateCategory(r.Context(), req)
	if err != nil {
		httpapi.Fail(w, r, h.logger, "category_create_failed", err)
		return
	}
	h.logger.Info("category_created", fmt.Sprintf("Added category %s", c.Name), requestID, map[string]interface{}{
		"category_id": c.ID,
	})
	httpapi.WriteData(w, http.StatusCreated, c)
}

// Update handles PUT /api/category/{id}
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())

	req, ok := h.decode(w, r, "category_update_failed")
	if !ok {
		return
	}
	c, err := h.store.UpdateCategory(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpapi.Fail(w, r, h.logger, "category_update_failed", err)
		return
	}
	h.logger.Info("category_updated", c.Name, requestID, map[string]interface{}{
		"category_id": c.ID,
	})
	httpapi.WriteData(w, http.StatusOK, c)
}

// Delete handles DELETE /api/category/{id}
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteCategory(r.Context(), id); err != nil {
		httpapi.Fail(w, r, h.logger, "category_delete_failed", err)
		return
	}
	h.logger.Info("category_deleted", "Category removed", httpapi.RequestID(r.Context()), map[string]interface{}{"category_id": id})
	httpapi.WriteData(w, http.StatusOK, map[string]string{"id": id})
}

func (h *CategoryHandler) decode(w http.ResponseWriter, r *http.Request, action string) (*models.CategoryRequest, bool) {
	var req models.CategoryRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "Invalid JSON format", httpapi.RequestID(r.Context()))
		return nil, false
	}
	if err := req.Validate(); err != nil {
		httpapi.Fail(w, r, h.logger, action, err)
		return nil, false
	}
	return &req, true
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.Pool.Query(ctx, database.ListCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return pgx.CollectRows(rows, scanCategory)
}

func (s *PostgresStore) CreateCategory(ctx context.Context, req *models.CategoryRequest) (*models.Category, error) {
	rows, err := s.db.Pool.Query(ctx, database.InsertCategorySQL, req.Name, req.Description, req.Icon, req.BgColor)
	if err != nil {
		return nil, database.Translate(err)
	}
	return oneCategory(rows)
}

// UpdateCategory reports a clash with another category's name as ErrConflict
func (s *PostgresStore) UpdateCategory(ctx context.Context, id string, req *models.CategoryRequest) (*models.Category, error) {
	rows, err := s.db.Pool.Query(ctx, database.UpdateCategorySQL, id, req.Name, req.Description, req.Icon, req.BgColor)
	if err != nil {
		return nil, database.Translate(err)
	}
	return oneCategory(rows)
}

func (s *PostgresStore) DeleteCategory(ctx context.Context, id string) error {
	err := s.exec(ctx, database.DeleteCategorySQL, id)
	if errors.Is(err, database.ErrConflict) {
		return fmt.Errorf("category is still used by menu items: %w", database.ErrConflict)
	}
	return err
}

func oneCategory(rows pgx.Rows) (*models.Category, error) {
	c, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		return nil, database.Translate(err)
	}
	return &c, nil
}

func scanCategory(row pgx.CollectableRow) (models.Category, error) {
	var c models.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Icon, &c.BgColor)
	return c, err
}
