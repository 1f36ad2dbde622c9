package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"restro-pos/internal/database"
	"restro-pos/internal/logger"
	"restro-pos/internal/models"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", models.ValidationError{Field: "items", Message: "items cannot be empty"}, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("create: %w", models.ValidationError{Field: "x"}), http.StatusBadRequest},
		{"not found", database.ErrNotFound, http.StatusNotFound},
		{"conflict", fmt.Errorf("status: %w", database.ErrConflict), http.StatusConflict},
		{"anything else", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := StatusFor(tt.err)
			if got != tt.want {
				t.Errorf("StatusFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

type echoHandler struct{}

func (echoHandler) Routes(r chi.Router) {
	r.Post("/echo", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := Decode(r, &body); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), RequestID(r.Context()))
			return
		}
		WriteData(w, http.StatusOK, body)
	})
}

func TestRouter(t *testing.T) {
	router := NewRouter(logger.Discard(), func(ctx context.Context) error { return nil }, echoHandler{})

	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		body        string
		wantStatus  int
	}{
		{"health", http.MethodGet, "/health", "", "", http.StatusOK},
		{"echo", http.MethodPost, "/api/echo", "application/json", `{"a":"b"}`, http.StatusOK},
		{"wrong content type", http.MethodPost, "/api/echo", "text/plain", `{"a":"b"}`, http.StatusUnsupportedMediaType},
		{"bad json", http.MethodPost, "/api/echo", "application/json", `{"a":`, http.StatusBadRequest},
		{"trailing data", http.MethodPost, "/api/echo", "application/json", `{"a":"b"} {}`, http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/api/nope", "", "", http.StatusNotFound},
		{"wrong method", http.MethodGet, "/api/echo", "", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID header")
			}
		})
	}
}

func TestRouter_HealthUnhealthy(t *testing.T) {
	router := NewRouter(logger.Discard(), func(ctx context.Context) error { return errors.New("db down") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestWriteError_Body(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusConflict, "invalid status transition", "req-1")

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["error"] != "invalid status transition" || body["request_id"] != "req-1" || body["timestamp"] == "" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestRequestIDReused(t *testing.T) {
	router := NewRouter(logger.Discard(), nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "from-terminal")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "from-terminal" {
		t.Errorf("X-Request-ID = %q", got)
	}
}
