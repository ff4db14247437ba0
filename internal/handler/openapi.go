package handler

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/brandkit/brandkit/internal/openapi"
)

// OpenAPIHandler serves the management API's OpenAPI document.
type OpenAPIHandler struct {
	serverURL string

	once sync.Once
	doc  []byte
	err  error
}

// NewOpenAPIHandler creates a handler that serves the API spec for the
// given public base URL.
func NewOpenAPIHandler(serverURL string) *OpenAPIHandler {
	return &OpenAPIHandler{serverURL: serverURL}
}

// Serve returns the OpenAPI document as JSON. The document is generated and
// serialized on first request.
// GET /openapi.json
func (h *OpenAPIHandler) Serve(w http.ResponseWriter, r *http.Request) {
	h.once.Do(func() {
		h.doc, h.err = json.MarshalIndent(openapi.Generate(h.serverURL), "", "  ")
	})
	if h.err != nil {
		http.Error(w, "spec generation failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.doc)
}
