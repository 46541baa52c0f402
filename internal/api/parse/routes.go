package parse

import "net/http"

// RegisterRoutes adds the designation parsing endpoints to the given mux.
func RegisterRoutes(mux *http.ServeMux) {
	h := &Handler{}

	mux.HandleFunc("POST /api/rds/parse/code", h.Code)
	mux.HandleFunc("POST /api/rds/parse/hierarchy", h.Hierarchy)
	mux.HandleFunc("POST /api/rds/parse/batch", h.Batch)
}
