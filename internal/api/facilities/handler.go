package facilities

import (
	"log/slog"
	"net/http"

	"github.com/johnwards/rdstree/internal/api"
	"github.com/johnwards/rdstree/internal/domain"
	"github.com/johnwards/rdstree/internal/store"
)

// Handler handles facility HTTP requests. The per-facility tree is served by
// the trees package.
type Handler struct {
	store  *store.Store
	forest api.Invalidator
}

// DeleteResponse reports how many records a facility delete removed.
type DeleteResponse struct {
	Facility string `json:"facility"`
	Deleted  int64  `json:"deleted"`
}

// List handles GET /api/rds/facilities.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.Objects.Facilities(r.Context())
	if err != nil {
		api.WriteStoreError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.NewCollection(list, false, ""))
}

// Stats handles GET /api/rds/facilities/{facility}/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.Objects.Stats(r.Context(), r.PathValue("facility"))
	if err != nil {
		api.WriteStoreError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, st)
}

// Delete handles DELETE /api/rds/facilities/{facility}. Import history is
// kept.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	facility := domain.Facility(r.PathValue("facility"))

	n, err := h.store.Objects.DeleteFacility(r.Context(), facility)
	if err != nil {
		api.WriteStoreError(w, r, err)
		return
	}
	h.forest.Invalidate()

	slog.Info("facility deleted", "facility", facility, "records", n,
		"correlationId", api.CorrelationID(r.Context()))
	api.WriteJSON(w, http.StatusOK, DeleteResponse{Facility: facility, Deleted: n})
}
