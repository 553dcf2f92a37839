// Package shared holds response helpers used by every handler package.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "streamlog/pkg/domain-errors"
)

// WriteJSON encodes v with the given status. Encoding failures are
// ignored; the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error":             string(code),
		"error_description": err.Error(),
	})
}
