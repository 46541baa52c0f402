package objects

import (
	"net/http"

	"github.com/johnwards/rdstree/internal/api"
	"github.com/johnwards/rdstree/internal/store"
)

// RegisterRoutes adds all designated object endpoints to the given mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store, inv api.Invalidator) {
	h := &Handler{store: s, forest: inv}

	mux.HandleFunc("GET /api/rds/objects", h.List)
	mux.HandleFunc("POST /api/rds/objects", h.Create)
	mux.HandleFunc("POST /api/rds/objects/batch", h.BatchCreate)
	mux.HandleFunc("GET /api/rds/objects/lookup", h.Lookup)
	mux.HandleFunc("GET /api/rds/objects/{objectId}", h.Get)
	mux.HandleFunc("PATCH /api/rds/objects/{objectId}", h.Update)
	mux.HandleFunc("DELETE /api/rds/objects/{objectId}", h.Delete)
}
