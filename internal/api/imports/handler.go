package imports

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/johnwards/rdstree/internal/api"
	"github.com/johnwards/rdstree/internal/domain"
	"github.com/johnwards/rdstree/internal/ingest"
	"github.com/johnwards/rdstree/internal/store"
)

// Handler handles import HTTP requests.
type Handler struct {
	store  *store.Store
	forest api.Invalidator
}

// Start handles POST /api/rds/imports. The upload is a multipart form with
// the file under "files", an optional "name" and an optional "facility"; a
// .json file name selects the JSON reader. Rows that cannot be read are
// recorded as import errors and the rest are stored in one batch.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid multipart form data", corrID, nil))
		return
	}

	file, fh, err := r.FormFile("files")
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("An upload under \"files\" is required", corrID, nil))
		return
	}
	defer func() { _ = file.Close() }()

	src := ingest.ReaderSource(r.FormValue("name"), fh.Filename, file)
	src.Facility = r.FormValue("facility")

	imp, err := ingest.Load(r.Context(), h.store, src)
	if imp != nil && imp.Summary.Created > 0 {
		h.forest.Invalidate()
	}
	if err != nil {
		if errors.Is(err, ingest.ErrUnreadable) {
			api.WriteError(w, http.StatusBadRequest, api.NewValidationError(err.Error(), corrID, nil))
			return
		}
		api.WriteStoreError(w, r, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, imp)
}

// List handles GET /api/rds/imports.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	imps, hasMore, next, err := h.store.Imports.List(r.Context(), domain.ListOpts{
		Limit: limit,
		After: r.URL.Query().Get("after"),
	})
	if err != nil {
		api.WriteStoreError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.NewCollection(imps, hasMore, next))
}

// Get handles GET /api/rds/imports/{importId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	imp, err := h.store.Imports.Get(r.Context(), r.PathValue("importId"))
	if err != nil {
		api.WriteStoreError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, imp)
}

// GetErrors handles GET /api/rds/imports/{importId}/errors.
func (h *Handler) GetErrors(w http.ResponseWriter, r *http.Request) {
	importID := r.PathValue("importId")

	if _, err := h.store.Imports.Get(r.Context(), importID); err != nil {
		api.WriteStoreError(w, r, err)
		return
	}

	errs, err := h.store.Imports.GetErrors(r.Context(), importID)
	if err != nil {
		api.WriteStoreError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.NewCollection(errs, false, ""))
}
