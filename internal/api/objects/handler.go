package objects

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/johnwards/rdstree/internal/api"
	"github.com/johnwards/rdstree/internal/domain"
	"github.com/johnwards/rdstree/internal/store"
)

// Handler handles designated object HTTP requests.
type Handler struct {
	store  *store.Store
	forest api.Invalidator
}

const maxBatchSize = 1000

// defaultLookupAttribute is the attribute searched when none is given.
const defaultLookupAttribute = "bim_guid"

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("objectId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		api.WriteError(w, http.StatusBadRequest,
			api.NewValidationError("Invalid object id "+raw, api.CorrelationID(r.Context()), nil))
		return 0, false
	}
	return id, true
}

// Create handles POST /api/rds/objects.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateInput
	if !api.DecodeJSON(w, r, &in) {
		return
	}

	obj, err := h.store.Objects.Create(r.Context(), in)
	if err != nil {
		api.WriteStoreError(w, r, err)
		return
	}
	h.forest.Invalidate()

	api.WriteJSON(w, http.StatusCreated, obj)
}

// BatchCreate handles POST /api/rds/objects/batch. The batch is stored in one
// transaction in the order given.
func (h *Handler) BatchCreate(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())

	var body struct {
		Inputs []domain.CreateInput `json:"inputs"`
	}
	if !api.DecodeJSON(w, r, &body) {
		return
	}
	if len(body.Inputs) == 0 {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("inputs is required", corrID, nil))
		return
	}
	if len(body.Inputs) > maxBatchSize {
		api.WriteError(w, http.StatusBadRequest,
			api.NewValidationError("Batch size exceeds limit of "+strconv.Itoa(maxBatchSize), corrID, nil))
		return
	}

	objs, err := h.store.Objects.BatchCreate(r.Context(), body.Inputs)
	if err != nil {
		api.WriteStoreError(w, r, err)
		return
	}
	h.forest.Invalidate()

	api.WriteJSON(w, http.StatusCreated, api.NewCollection(objs, false, ""))
}

// Get handles GET /api/rds/objects/{objectId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	obj, err := h.store.Objects.Get(r.Context(), id)
	if err != nil {
		api.WriteStoreError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, obj)
}

// List handles GET /api/rds/objects. A facility query parameter narrows the
// listing to one facility.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	page, err := h.store.Objects.List(r.Context(), domain.ListOpts{
		Limit:    limit,
		After:    r.URL.Query().Get("after"),
		Facility: r.URL.Query().Get("facility"),
	})
	if err != nil {
		api.WriteStoreError(w, r, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, api.NewCollection(page.Results, page.HasMore, page.After))
}

// Lookup handles GET /api/rds/objects/lookup?attribute=&value=&facility=,
// for example to find the objects linked to a BIM element GUID. Every
// facility is searched unless one is named.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	value := r.URL.Query().Get("value")
	if value == "" {
		api.WriteError(w, http.StatusBadRequest,
			api.NewValidationError("value is required", api.CorrelationID(r.Context()), nil))
		return
	}
	attr := strings.TrimSpace(r.URL.Query().Get("attribute"))
	if attr == "" {
		attr = defaultLookupAttribute
	}

	objs, err := h.store.Objects.FindByAttribute(r.Context(), r.URL.Query().Get("facility"), attr, value)
	if err != nil {
		api.WriteStoreError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.NewCollection(objs, false, ""))
}

// Update handles PATCH /api/rds/objects/{objectId}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var in domain.UpdateInput
	if !api.DecodeJSON(w, r, &in) {
		return
	}

	obj, err := h.store.Objects.Update(r.Context(), id, in)
	if err != nil {
		api.WriteStoreError(w, r, err)
		return
	}
	h.forest.Invalidate()

	api.WriteJSON(w, http.StatusOK, obj)
}

// Delete handles DELETE /api/rds/objects/{objectId}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.store.Objects.Delete(r.Context(), id); err != nil {
		api.WriteStoreError(w, r, err)
		return
	}
	h.forest.Invalidate()

	w.WriteHeader(http.StatusNoContent)
}
