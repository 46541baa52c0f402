package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// WriteJSON marshals v as JSON and writes it to w with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

// DecodeJSON decodes the request body into v, writing a 400 response and
// returning false when the body is not valid JSON.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest,
			NewValidationError("Invalid JSON body: "+err.Error(), CorrelationID(r.Context()), nil))
		return false
	}
	return true
}

// Paging represents cursor-based pagination info.
type Paging struct {
	Next *PagingNext `json:"next,omitempty"`
}

// PagingNext holds the cursor for the next page.
type PagingNext struct {
	After string `json:"after"`
}

// CollectionResponse is a paginated list response.
type CollectionResponse[T any] struct {
	Results []T     `json:"results"`
	Paging  *Paging `json:"paging,omitempty"`
}

// NewCollection wraps results, adding paging when there is a next page.
func NewCollection[T any](results []T, hasMore bool, after string) CollectionResponse[T] {
	if results == nil {
		results = []T{}
	}
	resp := CollectionResponse[T]{Results: results}
	if hasMore {
		resp.Paging = &Paging{Next: &PagingNext{After: after}}
	}
	return resp
}

// Health answers liveness checks.
func Health(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Invalidator is told when stored objects change so derived views can be
// rebuilt.
type Invalidator interface {
	Invalidate()
}
