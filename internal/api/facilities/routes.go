package facilities

import (
	"net/http"

	"github.com/johnwards/rdstree/internal/api"
	"github.com/johnwards/rdstree/internal/store"
)

// RegisterRoutes adds the facility endpoints to the given mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store, inv api.Invalidator) {
	h := &Handler{store: s, forest: inv}

	mux.HandleFunc("GET /api/rds/facilities", h.List)
	mux.HandleFunc("GET /api/rds/facilities/{facility}/stats", h.Stats)
	mux.HandleFunc("DELETE /api/rds/facilities/{facility}", h.Delete)
}
