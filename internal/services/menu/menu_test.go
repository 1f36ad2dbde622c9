package menu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restro-pos/internal/database"
	"restro-pos/internal/httpapi"
	"restro-pos/internal/logger"
	"restro-pos/internal/models"
)

// memStore keeps items and categories together so category rules can be enforced
type memStore struct {
	items      []models.MenuItem
	categories []models.Category
	// strict rejects items whose category has not been created
	strict bool
}

func (m *memStore) List(context.Context) ([]models.MenuItem, error) {
	return m.items, nil
}

func (m *memStore) Create(_ context.Context, req *models.CreateMenuItemRequest) (*models.MenuItem, error) {
	if err := m.checkCategory(req.Category); err != nil {
		return nil, err
	}
	item := models.MenuItem{ID: fmt.Sprintf("m-%d", len(m.items)+1), Name: req.Name, Category: req.Category, Price: req.Price, IsAvailable: true}
	m.items = append(m.items, item)
	return &item, nil
}

func (m *memStore) Toggle(_ context.Context, id string) (*models.MenuItem, error) {
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].IsAvailable = !m.items[i].IsAvailable
			item := m.items[i]
			return &item, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memStore) Update(_ context.Context, id string, req *models.CreateMenuItemRequest) (*models.MenuItem, error) {
	if err := m.checkCategory(req.Category); err != nil {
		return nil, err
	}
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Name, m.items[i].Category, m.items[i].Price = req.Name, req.Category, req.Price
			item := m.items[i]
			return &item, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memStore) Delete(_ context.Context, id string) error {
	for i := range m.items {
		if m.items[i].ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return database.ErrNotFound
}

func (m *memStore) checkCategory(name string) error {
	if !m.strict {
		return nil
	}
	for _, c := range m.categories {
		if c.Name == name {
			return nil
		}
	}
	return unknownCategory(name, database.ErrConflict)
}

func (m *memStore) ListCategories(context.Context) ([]models.Category, error) {
	return m.categories, nil
}

func (m *memStore) CreateCategory(_ context.Context, req *models.CategoryRequest) (*models.Category, error) {
	for _, c := range m.categories {
		if c.Name == req.Name {
			return nil, fmt.Errorf("duplicate category: %w", database.ErrConflict)
		}
	}
	c := models.Category{ID: fmt.Sprintf("c-%d", len(m.categories)+1), Name: req.Name, Description: req.Description, Icon: req.Icon, BgColor: req.BgColor}
	m.categories = append(m.categories, c)
	return &c, nil
}

// UpdateCategory cascades a rename onto the items, as the foreign key does
func (m *memStore) UpdateCategory(_ context.Context, id string, req *models.CategoryRequest) (*models.Category, error) {
	for _, c := range m.categories {
		if c.Name == req.Name && c.ID != id {
			return nil, fmt.Errorf("duplicate category: %w", database.ErrConflict)
		}
	}
	for i := range m.categories {
		if m.categories[i].ID != id {
			continue
		}
		old := m.categories[i].Name
		m.categories[i] = models.Category{ID: id, Name: req.Name, Description: req.Description, Icon: req.Icon, BgColor: req.BgColor}
		for j := range m.items {
			if m.items[j].Category == old {
				m.items[j].Category = req.Name
			}
		}
		c := m.categories[i]
		return &c, nil
	}
	return nil, database.ErrNotFound
}

func (m *memStore) DeleteCategory(_ context.Context, id string) error {
	for i, c := range m.categories {
		if c.ID != id {
			continue
		}
		for _, item := range m.items {
			if item.Category == c.Name {
				return fmt.Errorf("category is still used by menu items: %w", database.ErrConflict)
			}
		}
		m.categories = append(m.categories[:i], m.categories[i+1:]...)
		return nil
	}
	return database.ErrNotFound
}

func request(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMenu(t *testing.T) {
	store := &memStore{}
	log := logger.Discard()
	router := httpapi.NewRouter(log, nil, NewHandler(store, log))

	rec := request(router, http.MethodPost, "/api/menu-item", `{"name": "Masala Dosa", "category": "South Indian", "price": "120.50"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, store.items, 1)
	assert.True(t, store.items[0].Price.Equal(decimal.RequireFromString("120.5")))

	rec = request(router, http.MethodPost, "/api/menu-item", `{"name": "Free Lunch", "category": "Mains", "price": "-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = request(router, http.MethodPatch, "/api/menu-item/m-1/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, store.items[0].IsAvailable)

	rec = request(router, http.MethodPatch, "/api/menu-item/m-missing/toggle", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = request(router, http.MethodGet, "/api/menu-item", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data []models.MenuItem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Data, 1)
	assert.Equal(t, "Masala Dosa", env.Data[0].Name)
}

func TestMenuItemUpdateAndDelete(t *testing.T) {
	store := &memStore{}
	log := logger.Discard()
	router := httpapi.NewRouter(log, nil, NewHandler(store, log))

	rec := request(router, http.MethodPost, "/api/menu-item", `{"name": "Tea", "category": "Beverages", "price": "20"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = request(router, http.MethodPatch, "/api/menu-item/m-1/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)

	tests := []struct {
		name, method, path, body string
		want                     int
	}{
		{"update", http.MethodPut, "/api/menu-item/m-1", `{"name": "Masala Tea", "category": "Beverages", "price": "25.50"}`, http.StatusOK},
		{"update missing", http.MethodPut, "/api/menu-item/m-9", `{"name": "Tea", "category": "Beverages", "price": "20"}`, http.StatusNotFound},
		{"update without name", http.MethodPut, "/api/menu-item/m-1", `{"name": "", "category": "Beverages", "price": "20"}`, http.StatusBadRequest},
		{"update negative price", http.MethodPut, "/api/menu-item/m-1", `{"name": "Tea", "category": "Beverages", "price": "-5"}`, http.StatusBadRequest},
		{"update malformed", http.MethodPut, "/api/menu-item/m-1", `{"name":`, http.StatusBadRequest},
		{"delete missing", http.MethodDelete, "/api/menu-item/m-9", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := request(router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	require.Len(t, store.items, 1)
	assert.Equal(t, "Masala Tea", store.items[0].Name)
	assert.True(t, store.items[0].Price.Equal(decimal.RequireFromString("25.5")))
	assert.False(t, store.items[0].IsAvailable, "update must not touch availability")

	rec = request(router, http.MethodDelete, "/api/menu-item/m-1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, store.items)
}

func TestCategories(t *testing.T) {
	store := &memStore{strict: true}
	log := logger.Discard()
	router := httpapi.NewRouter(log, nil, NewHandler(store, log), NewCategoryHandler(store, log))

	steps := []struct {
		name, method, path, body string
		want                     int
	}{
		{"create", http.MethodPost, "/api/category", `{"name": "Beverages", "description": "Hot and cold", "icon": "cup", "bgColor": "#f5f5f5"}`, http.StatusCreated},
		{"create second", http.MethodPost, "/api/category", `{"name": "Desserts"}`, http.StatusCreated},
		{"duplicate name", http.MethodPost, "/api/category", `{"name": "Beverages"}`, http.StatusConflict},
		{"blank name", http.MethodPost, "/api/category", `{"name": "  "}`, http.StatusBadRequest},
		{"bad colour", http.MethodPost, "/api/category", `{"name": "Breads", "bgColor": "blue"}`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/category", `{"name": "Breads", "colour": "#fff"}`, http.StatusBadRequest},
		{"item in known category", http.MethodPost, "/api/menu-item", `{"name": "Tea", "category": "Beverages", "price": "20"}`, http.StatusCreated},
		{"item in unknown category", http.MethodPost, "/api/menu-item", `{"name": "Naan", "category": "Breads", "price": "60"}`, http.StatusConflict},
		{"move item to unknown category", http.MethodPut, "/api/menu-item/m-1", `{"name": "Tea", "category": "Breads", "price": "20"}`, http.StatusConflict},
		{"rename onto existing", http.MethodPut, "/api/category/c-1", `{"name": "Desserts"}`, http.StatusConflict},
		{"rename", http.MethodPut, "/api/category/c-1", `{"name": "Drinks", "icon": "cup"}`, http.StatusOK},
		{"rename missing", http.MethodPut, "/api/category/c-9", `{"name": "Soups"}`, http.StatusNotFound},
		{"delete in use", http.MethodDelete, "/api/category/c-1", "", http.StatusConflict},
		{"delete unused", http.MethodDelete, "/api/category/c-2", "", http.StatusOK},
		{"delete missing", http.MethodDelete, "/api/category/c-2", "", http.StatusNotFound},
	}
	for _, step := range steps {
		rec := request(router, step.method, step.path, step.body)
		require.Equal(t, step.want, rec.Code, "%s: %s", step.name, rec.Body.String())
	}

	require.Len(t, store.items, 1)
	assert.Equal(t, "Drinks", store.items[0].Category, "rename carries items along")

	rec := request(router, http.MethodGet, "/api/category", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data []models.Category `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Data, 1)
	assert.Equal(t, "Drinks", env.Data[0].Name)
	assert.Equal(t, "cup", env.Data[0].Icon)
}
