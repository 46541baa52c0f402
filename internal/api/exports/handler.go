package exports

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/johnwards/rdstree/internal/api"
	"github.com/johnwards/rdstree/internal/ingest"
	"github.com/johnwards/rdstree/internal/store"
)

// Handler handles export HTTP requests.
type Handler struct {
	store *store.Store
}

// ObjectsCSV handles GET /api/rds/exports/objects.csv. The file uses the
// import column layout with one extra column per attribute key, so it can be
// loaded back through the import endpoint. One facility is exported, the
// default one unless the facility query parameter names another.
func (h *Handler) ObjectsCSV(w http.ResponseWriter, r *http.Request) {
	objs, err := h.store.Objects.All(r.Context(), r.URL.Query().Get("facility"))
	if err != nil {
		api.WriteStoreError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := ingest.WriteCSV(&buf, objs, ingest.AttributeKeys(objs)); err != nil {
		api.WriteStoreError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="objects.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
