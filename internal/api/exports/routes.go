package exports

import (
	"net/http"

	"github.com/johnwards/rdstree/internal/store"
)

// RegisterRoutes adds the export endpoints to the given mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store) {
	h := &Handler{store: s}

	mux.HandleFunc("GET /api/rds/exports/objects.csv", h.ObjectsCSV)
}
