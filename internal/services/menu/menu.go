// Package menu serves the item catalogue the terminal orders from.
package menu

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"restro-pos/internal/database"
	"restro-pos/internal/httpapi"
	"restro-pos/internal/logger"
	"restro-pos/internal/models"
)

type Store interface {
	List(ctx context.Context) ([]models.MenuItem, error)
	Create(ctx context.Context, req *models.CreateMenuItemRequest) (*models.MenuItem, error)
	// Update replaces name, category and price; availability is left alone
	Update(ctx context.Context, id string, req *models.CreateMenuItemRequest) (*models.MenuItem, error)
	// Toggle flips availability and returns the item as stored
	Toggle(ctx context.Context, id string) (*models.MenuItem, error)
	Delete(ctx context.Context, id string) error
}

// Handler handles HTTP requests for the menu
type Handler struct {
	store  Store
	logger *logger.Logger
}

func NewHandler(store Store, log *logger.Logger) *Handler {
	return &Handler{store: store, logger: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/menu-item", h.List)
	r.Post("/menu-item", h.Create)
	r.Put("/menu-item/{id}", h.Update)
	r.Delete("/menu-item/{id}", h.Delete)
	r.Patch("/menu-item/{id}/toggle", h.Toggle)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List(r.Context())
	if err != nil {
		httpapi.Fail(w, r, h.logger, "menu_list_failed", err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, items)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())

	var req models.CreateMenuItemRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}
	if err := req.Validate(); err != nil {
		httpapi.Fail(w, r, h.logger, "menu_create_failed", err)
		return
	}

	item, err := h.store.Create(r.Context(), &req)
	if err != nil {
		httpapi.Fail(w, r, h.logger, "menu_create_failed", err)
		return
	}
	h.logger.Info("menu_item_created", fmt.Sprintf("Added %s to %s", item.Name, item.Category), requestID, map[string]interface{}{
		"item_id": item.ID,
		"price":   item.Price.StringFixed(2),
	})
	httpapi.WriteData(w, http.StatusCreated, item)
}

// Update handles PUT /api/menu-item/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())

	var req models.CreateMenuItemRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}
	if err := req.Validate(); err != nil {
		httpapi.Fail(w, r, h.logger, "menu_update_failed", err)
		return
	}

	item, err := h.store.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		httpapi.Fail(w, r, h.logger, "menu_update_failed", err)
		return
	}
	h.logger.Info("menu_item_updated", item.Name, requestID, map[string]interface{}{
		"item_id":  item.ID,
		"category": item.Category,
		"price":    item.Price.StringFixed(2),
	})
	httpapi.WriteData(w, http.StatusOK, item)
}

// Delete handles DELETE /api/menu-item/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Delete(r.Context(), id); err != nil {
		httpapi.Fail(w, r, h.logger, "menu_delete_failed", err)
		return
	}
	h.logger.Info("menu_item_deleted", "Menu item removed", httpapi.RequestID(r.Context()), map[string]interface{}{"item_id": id})
	httpapi.WriteData(w, http.StatusOK, map[string]string{"id": id})
}

// Toggle handles PATCH /api/menu-item/{id}/toggle
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.Toggle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpapi.Fail(w, r, h.logger, "menu_toggle_failed", err)
		return
	}
	h.logger.Info("menu_item_toggled", item.Name, httpapi.RequestID(r.Context()), map[string]interface{}{
		"item_id":      item.ID,
		"is_available": item.IsAvailable,
	})
	httpapi.WriteData(w, http.StatusOK, item)
}

type PostgresStore struct {
	db *database.DB
}

func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) List(ctx context.Context) ([]models.MenuItem, error) {
	rows, err := s.db.Pool.Query(ctx, database.ListMenuItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	return pgx.CollectRows(rows, scanMenuItem)
}

func (s *PostgresStore) Create(ctx context.Context, req *models.CreateMenuItemRequest) (*models.MenuItem, error) {
	rows, err := s.db.Pool.Query(ctx, database.InsertMenuItemSQL, req.Name, req.Category, req.Price.String(), true)
	if err != nil {
		return nil, unknownCategory(req.Category, database.Translate(err))
	}
	item, err := s.one(rows)
	return item, unknownCategory(req.Category, err)
}

func (s *PostgresStore) Toggle(ctx context.Context, id string) (*models.MenuItem, error) {
	rows, err := s.db.Pool.Query(ctx, database.ToggleMenuItemSQL, id)
	if err != nil {
		return nil, database.Translate(err)
	}
	return s.one(rows)
}

func (s *PostgresStore) Update(ctx context.Context, id string, req *models.CreateMenuItemRequest) (*models.MenuItem, error) {
	rows, err := s.db.Pool.Query(ctx, database.UpdateMenuItemSQL, id, req.Name, req.Category, req.Price.String())
	if err != nil {
		return nil, unknownCategory(req.Category, database.Translate(err))
	}
	item, err := s.one(rows)
	return item, unknownCategory(req.Category, err)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	return s.exec(ctx, database.DeleteMenuItemSQL, id)
}

// unknownCategory names the missing category when the foreign key rejected an item
func unknownCategory(category string, err error) error {
	if errors.Is(err, database.ErrConflict) {
		return fmt.Errorf("category %q does not exist: %w", category, database.ErrConflict)
	}
	return err
}

// exec runs a single-row statement, reporting ErrNotFound when nothing matched
func (s *PostgresStore) exec(ctx context.Context, query, id string) error {
	tag, err := s.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return database.Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) one(rows pgx.Rows) (*models.MenuItem, error) {
	item, err := pgx.CollectExactlyOneRow(rows, scanMenuItem)
	if err != nil {
		return nil, database.Translate(err)
	}
	return &item, nil
}

func scanMenuItem(row pgx.CollectableRow) (models.MenuItem, error) {
	var (
		item  models.MenuItem
		price string
	)
	if err := row.Scan(&item.ID, &item.Name, &item.Category, &price, &item.IsAvailable); err != nil {
		return item, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return item, fmt.Errorf("bad price for %s: %w", item.Name, err)
	}
	item.Price = p
	return item, nil
}
