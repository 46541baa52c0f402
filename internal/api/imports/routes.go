package imports

import (
	"net/http"

	"github.com/johnwards/rdstree/internal/api"
	"github.com/johnwards/rdstree/internal/store"
)

// RegisterRoutes adds all import endpoints to the given mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store, inv api.Invalidator) {
	h := &Handler{store: s, forest: inv}

	mux.HandleFunc("POST /api/rds/imports", h.Start)
	mux.HandleFunc("GET /api/rds/imports", h.List)
	mux.HandleFunc("GET /api/rds/imports/{importId}", h.Get)
	mux.HandleFunc("GET /api/rds/imports/{importId}/errors", h.GetErrors)
}
