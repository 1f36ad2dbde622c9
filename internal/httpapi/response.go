// Package httpapi holds the JSON conventions and middleware shared by the api-server handlers.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodyBytes caps request bodies; an order with twenty lines is a few kilobytes
const maxBodyBytes = 1 << 20

// WriteData writes {"data": data} with the given status
func WriteData(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
}

// WriteError writes an error response in JSON format
func WriteError(w http.ResponseWriter, status int, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":      message,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": requestID,
	})
}

// Decode reads a JSON body into v, rejecting unknown fields and trailing data
func Decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON format: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON format: unexpected data after body")
	}
	return nil
}
