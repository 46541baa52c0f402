package trees

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/johnwards/rdstree/internal/api"
	"github.com/johnwards/rdstree/internal/designation"
	"github.com/johnwards/rdstree/internal/domain"
	"github.com/johnwards/rdstree/internal/forest"
	"github.com/johnwards/rdstree/internal/store"
	"github.com/johnwards/rdstree/internal/tree"
)

// GUIDAttribute is the attribute holding an object's model GUID.
const GUIDAttribute = "bim_guid"

// Handler handles tree HTTP requests.
type Handler struct {
	store  *store.Store
	forest *forest.Service
}

// ForestResponse is the JSON shape of a built forest. Truncated is set when
// the nested roots were cut at tree.MaxNestedDepth.
type ForestResponse struct {
	Facility     string                `json:"facility,omitempty"`
	Roots        []*tree.Node          `json:"roots"`
	Duplicates   []tree.DuplicateGroup `json:"duplicates"`
	Orphans      []tree.Orphan         `json:"orphans"`
	Unrecognized []string              `json:"unrecognized"`
	Total        int                   `json:"total"`
	Truncated    bool                  `json:"truncated,omitempty"`
	BuiltAt      string                `json:"builtAt,omitempty"`
}

// FlatForestResponse is the forest as a pre-order list of nodes, each naming
// the code it hangs under.
type FlatForestResponse struct {
	Facility     string                `json:"facility,omitempty"`
	Nodes        []tree.FlatNode       `json:"nodes"`
	Duplicates   []tree.DuplicateGroup `json:"duplicates"`
	Orphans      []tree.Orphan         `json:"orphans"`
	Unrecognized []string              `json:"unrecognized"`
	Total        int                   `json:"total"`
	BuiltAt      string                `json:"builtAt,omitempty"`
}

// GUIDsResponse lists the distinct attribute values found under a code.
type GUIDsResponse struct {
	Code  string   `json:"code"`
	GUIDs []string `json:"guids"`
	Total int      `json:"total"`
}

// PathRequest names the two ends of a path.
type PathRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// PathResponse is the JSON shape of a path. Length counts the edges walked.
type PathResponse struct {
	Found   bool             `json:"found"`
	Length  int              `json:"length"`
	Path    []tree.TraceStep `json:"path"`
	Message string           `json:"message,omitempty"`
}

// TraceResponse is the JSON shape of a trace.
type TraceResponse struct {
	Nodes []tree.TraceStep `json:"nodes"`
	Total int              `json:"total"`
}

// NewForestResponse summarises res with roots as the visible forest.
func NewForestResponse(res *tree.Result, roots []*tree.Node) ForestResponse {
	total := 0
	_ = tree.Walk(roots, func(*tree.Node, int) error {
		total++
		return nil
	})
	return ForestResponse{
		Roots:        roots,
		Duplicates:   res.Duplicates,
		Orphans:      res.Orphans,
		Unrecognized: res.Unrecognized,
		Total:        total,
	}
}

// FacilityOf returns the facility named by the path or the query string.
func FacilityOf(r *http.Request) string {
	if f := r.PathValue("facility"); f != "" {
		return f
	}
	return r.URL.Query().Get("facility")
}

// write renders the forest in the requested format.
func write(w http.ResponseWriter, r *http.Request, res *tree.Result, aspect designation.Aspect, depth int, facility, builtAt string) {
	switch r.URL.Query().Get("format") {
	case "flat":
		nodes := tree.Flatten(tree.Filter(res.Roots, aspect, depth))
		api.WriteJSON(w, http.StatusOK, FlatForestResponse{
			Facility:     facility,
			Nodes:        nodes,
			Duplicates:   res.Duplicates,
			Orphans:      res.Orphans,
			Unrecognized: res.Unrecognized,
			Total:        len(nodes),
			BuiltAt:      builtAt,
		})
	case "", "nested":
		roots, truncated := tree.Nested(res.Roots, aspect, depth)
		resp := NewForestResponse(res, roots)
		resp.Facility = facility
		resp.Truncated = truncated
		resp.BuiltAt = builtAt
		api.WriteJSON(w, http.StatusOK, resp)
	default:
		api.WriteError(w, http.StatusBadRequest,
			api.NewValidationError("format must be nested or flat", api.CorrelationID(r.Context()), nil))
	}
}

// filters reads the aspect and depth query parameters.
func filters(r *http.Request) (designation.Aspect, int, error) {
	var aspect designation.Aspect
	if v := r.URL.Query().Get("aspect"); v != "" {
		a, err := designation.ParseAspect(v)
		if err != nil {
			return "", 0, err
		}
		aspect = a
	}

	depth := -1
	if v := r.URL.Query().Get("depth"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d < 0 {
			return "", 0, errors.New("depth must be a non-negative integer")
		}
		depth = d
	}
	return aspect, depth, nil
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) (*forest.Snapshot, bool) {
	snap, err := h.forest.Current(r.Context(), FacilityOf(r))
	if err != nil {
		slog.Error("build forest", "facility", FacilityOf(r), "error", err)
		api.WriteError(w, http.StatusInternalServerError,
			api.NewInternalError("Failed to build forest", api.CorrelationID(r.Context())))
		return nil, false
	}
	return snap, true
}

// Get handles GET /api/rds/tree and GET /api/rds/facilities/{facility}/tree.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	aspect, depth, err := filters(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError(err.Error(), api.CorrelationID(r.Context()), nil))
		return
	}

	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	write(w, r, snap.Result, aspect, depth, snap.Facility, snap.BuiltAt.Format(store.TimeLayout))
}

// Node handles GET /api/rds/tree/node?code=. The node is returned with its
// whole subtree.
func (h *Handler) Node(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())
	code := r.URL.Query().Get("code")
	if code == "" {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("code is required", corrID, nil))
		return
	}

	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	n, found := snap.Lookup(code)
	if !found {
		api.WriteError(w, http.StatusNotFound, api.NewNotFoundError("No node with code "+code, corrID))
		return
	}
	api.WriteJSON(w, http.StatusOK, n)
}

// Trace handles GET /api/rds/tree/trace?code=&direction=.
func (h *Handler) Trace(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())
	code := r.URL.Query().Get("code")
	if code == "" {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("code is required", corrID, nil))
		return
	}
	dir, err := tree.ParseDirection(r.URL.Query().Get("direction"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError(err.Error(), corrID, nil))
		return
	}

	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	steps, found := snap.Trace(code, dir)
	if !found {
		api.WriteError(w, http.StatusNotFound, api.NewNotFoundError("No node with code "+code, corrID))
		return
	}
	api.WriteJSON(w, http.StatusOK, TraceResponse{Nodes: steps, Total: len(steps)})
}

// GUIDs handles GET /api/rds/tree/guids?code=&includeChildren=. It lists the
// distinct model GUIDs held by the node, and by its subtree unless
// includeChildren is false.
func (h *Handler) GUIDs(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())
	q := r.URL.Query()
	code := q.Get("code")
	if code == "" {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("code is required", corrID, nil))
		return
	}
	withChildren := true
	if v := q.Get("includeChildren"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest,
				api.NewValidationError("includeChildren must be true or false", corrID, nil))
			return
		}
		withChildren = b
	}
	key := q.Get("attribute")
	if key == "" {
		key = GUIDAttribute
	}

	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	guids, found := snap.Collect(code, key, withChildren)
	if !found {
		api.WriteError(w, http.StatusNotFound, api.NewNotFoundError("No node with code "+code, corrID))
		return
	}
	api.WriteJSON(w, http.StatusOK, GUIDsResponse{Code: code, GUIDs: guids, Total: len(guids)})
}

// Path handles POST /api/rds/tree/path. An unreachable target is reported
// with found set to false rather than as an error.
func (h *Handler) Path(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())

	var req PathRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	if req.Source == "" || req.Target == "" {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("source and target are required", corrID, nil))
		return
	}

	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	steps, err := snap.Path(req.Source, req.Target)
	switch {
	case err == nil:
		api.WriteJSON(w, http.StatusOK, PathResponse{Found: true, Length: len(steps) - 1, Path: steps})
	case errors.Is(err, tree.ErrNoPath):
		api.WriteJSON(w, http.StatusOK, PathResponse{
			Path:    []tree.TraceStep{},
			Message: "No path from " + req.Source + " to " + req.Target,
		})
	case errors.Is(err, tree.ErrNodeNotFound):
		api.WriteError(w, http.StatusNotFound, api.NewNotFoundError(err.Error(), corrID))
	default:
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
	}
}

// Builds handles GET /api/rds/tree/builds, newest first. Without a facility
// the builds of every facility are listed.
func (h *Handler) Builds(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	builds, err := h.store.Builds.Recent(r.Context(), FacilityOf(r), limit)
	if err != nil {
		api.WriteStoreError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.NewCollection(builds, false, ""))
}

// Build handles POST /api/rds/tree/build. It builds the posted collection
// without touching stored objects.
func (h *Handler) Build(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())

	var objects []domain.Object
	if !api.DecodeJSON(w, r, &objects) {
		return
	}
	aspect, depth, err := filters(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError(err.Error(), corrID, nil))
		return
	}

	res, err := tree.BuildContext(r.Context(), objects)
	if err != nil {
		if errors.Is(err, tree.ErrInvalidInput) {
			api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Body must be a JSON array of objects", corrID, nil))
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	write(w, r, res, aspect, depth, "", "")
}
