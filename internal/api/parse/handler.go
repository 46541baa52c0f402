package parse

import (
	"net/http"

	"github.com/johnwards/rdstree/internal/api"
	"github.com/johnwards/rdstree/internal/designation"
)

// maxBatch bounds the number of codes accepted by one batch request.
const maxBatch = 1000

// Handler handles designation parsing requests. It holds no state.
type Handler struct{}

// Request is the body of the single-code endpoints.
type Request struct {
	Code string `json:"code"`
}

// Result describes one parsed code.
type Result struct {
	Input         string            `json:"input"`
	Valid         bool              `json:"valid"`
	Code          *designation.Code `json:"code,omitempty"`
	AspectLabel   string            `json:"aspectLabel,omitempty"`
	Level         int               `json:"level"`
	DerivedParent string            `json:"derivedParent,omitempty"`
	Error         string            `json:"error,omitempty"`
}

// HierarchyResponse is the expanded entity/container chain of a code.
type HierarchyResponse struct {
	Input string    `json:"input"`
	Chain []*Result `json:"chain"`
	Total int       `json:"total"`
}

// BatchResponse holds the result of every code in a batch.
type BatchResponse struct {
	Results []*Result `json:"results"`
	Total   int       `json:"total"`
	Success int       `json:"success"`
}

// Describe parses input and reports the result without failing.
func Describe(input string) *Result {
	res := &Result{Input: input}
	c, err := designation.Parse(input)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	return DescribeCode(input, c)
}

// DescribeCode reports an already parsed code.
func DescribeCode(input string, c designation.Code) *Result {
	res := &Result{
		Input:       input,
		Valid:       true,
		Code:        &c,
		AspectLabel: c.Aspect.Label(),
		Level:       c.Level(),
	}
	if p, ok := c.DerivedParent(); ok {
		res.DerivedParent = p
	}
	return res
}

func readCode(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req Request
	if !api.DecodeJSON(w, r, &req) {
		return "", false
	}
	if req.Code == "" {
		api.WriteError(w, http.StatusBadRequest,
			api.NewValidationError("code is required", api.CorrelationID(r.Context()), nil))
		return "", false
	}
	return req.Code, true
}

// Code handles POST /api/rds/parse/code. An unrecognized prefix is reported
// in the body with valid=false rather than as an HTTP error.
func (h *Handler) Code(w http.ResponseWriter, r *http.Request) {
	code, ok := readCode(w, r)
	if !ok {
		return
	}
	api.WriteJSON(w, http.StatusOK, Describe(code))
}

// Hierarchy handles POST /api/rds/parse/hierarchy.
func (h *Handler) Hierarchy(w http.ResponseWriter, r *http.Request) {
	code, ok := readCode(w, r)
	if !ok {
		return
	}

	chain, err := designation.Expand(code)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest,
			api.NewValidationError(err.Error(), api.CorrelationID(r.Context()), nil))
		return
	}

	results := make([]*Result, len(chain))
	for i, c := range chain {
		results[i] = DescribeCode(c.Raw, c)
	}
	api.WriteJSON(w, http.StatusOK, HierarchyResponse{Input: code, Chain: results, Total: len(results)})
}

// Batch handles POST /api/rds/parse/batch with a JSON array of codes.
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())

	var codes []string
	if !api.DecodeJSON(w, r, &codes) {
		return
	}
	if len(codes) > maxBatch {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("too many codes in batch", corrID, []api.ErrorDetail{
			{Message: "a batch may hold at most 1000 codes", Code: "TOO_MANY", In: "body"},
		}))
		return
	}

	resp := BatchResponse{Results: make([]*Result, len(codes)), Total: len(codes)}
	for i, c := range codes {
		resp.Results[i] = Describe(c)
		if resp.Results[i].Valid {
			resp.Success++
		}
	}
	api.WriteJSON(w, http.StatusOK, resp)
}
