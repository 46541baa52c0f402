package trees

import (
	"net/http"

	"github.com/johnwards/rdstree/internal/forest"
	"github.com/johnwards/rdstree/internal/store"
)

// RegisterRoutes adds all tree endpoints to the given mux. Every read takes
// an optional facility query parameter; the default facility is used when it
// is absent.
func RegisterRoutes(mux *http.ServeMux, s *store.Store, f *forest.Service) {
	h := &Handler{store: s, forest: f}

	mux.HandleFunc("GET /api/rds/tree", h.Get)
	mux.HandleFunc("GET /api/rds/tree/node", h.Node)
	mux.HandleFunc("GET /api/rds/tree/trace", h.Trace)
	mux.HandleFunc("GET /api/rds/tree/guids", h.GUIDs)
	mux.HandleFunc("POST /api/rds/tree/path", h.Path)
	mux.HandleFunc("GET /api/rds/tree/builds", h.Builds)
	mux.HandleFunc("POST /api/rds/tree/build", h.Build)
	mux.HandleFunc("GET /api/rds/facilities/{facility}/tree", h.Get)
}
