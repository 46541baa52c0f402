package admin

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/johnwards/rdstree/internal/api"
	"github.com/johnwards/rdstree/internal/database"
	"github.com/johnwards/rdstree/internal/seed"
)

// Handler serves the admin API at /_rds/.
type Handler struct {
	db     *sql.DB
	forest api.Invalidator
}

// Reset deletes all objects, imports and build history. The schema is kept.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := database.Truncate(r.Context(), h.db); err != nil {
		api.WriteError(w, http.StatusInternalServerError,
			api.NewInternalError(fmt.Sprintf("failed to reset: %s", err), api.CorrelationID(r.Context())))
		return
	}
	h.forest.Invalidate()

	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SeedData loads the sample facility without dropping existing data first.
func (h *Handler) SeedData(w http.ResponseWriter, r *http.Request) {
	if err := seed.Seed(r.Context(), h.db); err != nil {
		api.WriteError(w, http.StatusInternalServerError,
			api.NewInternalError(fmt.Sprintf("failed to seed: %s", err), api.CorrelationID(r.Context())))
		return
	}
	h.forest.Invalidate()

	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
