// Package handler implements the management REST API: owner sessions, brand
// CRUD, API key lifecycle, and operational endpoints. Handlers speak the
// same error taxonomy as the MCP surface, with a docs URL appended per code.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/brandkit/brandkit/internal/model"
)

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a taxonomy error envelope, mapping the code to its HTTP
// status. Non-taxonomy errors surface as internal_error without leaking
// their message.
func writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		apiErr = model.ErrInternal
	}
	writeJSON(w, apiErr.HTTPStatus(), model.NewErrorResponse(apiErr))
}

// readJSON decodes the request body as JSON into v. The body is closed after
// decoding regardless of success or failure.
func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// queryInt extracts an integer query parameter, returning defaultVal if the
// parameter is missing or cannot be parsed.
func queryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// queryString extracts a string query parameter.
func queryString(r *http.Request, key string) string {
	return r.URL.Query().Get(key)
}

// queryBool extracts a boolean query parameter. Returns false if the
// parameter is missing or not "true"/"1".
func queryBool(r *http.Request, key string) bool {
	val := r.URL.Query().Get(key)
	return val == "true" || val == "1"
}

// queryBoolPtr extracts an optional boolean query parameter, distinguishing
// absent from false.
func queryBoolPtr(r *http.Request, key string) *bool {
	if !r.URL.Query().Has(key) {
		return nil
	}
	b := queryBool(r, key)
	return &b
}
