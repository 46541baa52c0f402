package admin

import (
	"database/sql"
	"net/http"

	"github.com/johnwards/rdstree/internal/api"
)

// RegisterRoutes registers all admin API endpoints on the mux.
func RegisterRoutes(mux *http.ServeMux, db *sql.DB, inv api.Invalidator) {
	h := &Handler{db: db, forest: inv}

	mux.HandleFunc("POST /_rds/reset", h.Reset)
	mux.HandleFunc("POST /_rds/seed", h.SeedData)
}
