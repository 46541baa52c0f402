package conformance_test

import (
	"net/http"
	"testing"
)

func TestObjectCRUD(t *testing.T) {
	resetServer(t)

	created := createObject(t, map[string]any{
		"id":         30,
		"code":       "=WTP.PU1.M3",
		"parentCode": "=WTP.PU1.",
		"name":       "Pump motor 3",
		"objectType": "entity",
		"attributes": map[string]any{"rated_power": "37 kW"},
	})
	assertObject(t, created)
	assertStringField(t, created, "code", "=WTP.PU1.M3")
	assertStringField(t, created, "parentCode", "=WTP.PU1.")
	path := recordPath(t, created)

	resp := doRequest(t, http.MethodGet, path, nil)
	mustStatus(t, resp, http.StatusOK)
	got := readJSON(t, resp)
	assertObject(t, got)
	attrs := assertIsObject(t, got, "attributes")
	assertStringField(t, attrs, "rated_power", "37 kW")

	resp = doRequest(t, http.MethodPatch, path, map[string]any{"name": "Pump motor 3 (spare)"})
	mustStatus(t, resp, http.StatusOK)
	updated := readJSON(t, resp)
	assertStringField(t, updated, "name", "Pump motor 3 (spare)")
	assertStringField(t, updated, "code", "=WTP.PU1.M3")

	resp = doRequest(t, http.MethodDelete, path, nil)
	mustStatus(t, resp, http.StatusNoContent)
	_ = resp.Body.Close()

	resp = doRequest(t, http.MethodGet, path, nil)
	mustStatus(t, resp, http.StatusNotFound)
	assertAPIError(t, readJSON(t, resp), "OBJECT_NOT_FOUND")
}

func TestObjectCreateRequiresCode(t *testing.T) {
	resetServer(t)

	resp := doRequest(t, http.MethodPost, "/api/rds/objects", map[string]any{"name": "No code"})
	mustStatus(t, resp, http.StatusBadRequest)
	assertAPIError(t, readJSON(t, resp), "VALIDATION_ERROR")
}

func TestObjectListPaging(t *testing.T) {
	resetServer(t)

	resp := doRequest(t, http.MethodGet, "/api/rds/objects?limit=5", nil)
	mustStatus(t, resp, http.StatusOK)
	body := readJSON(t, resp)

	results := assertIsArray(t, body, "results")
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for _, r := range results {
		assertObject(t, toObject(t, r))
	}
	assertPaging(t, body)

	after := assertIsObject(t, assertIsObject(t, body, "paging"), "next")["after"].(string)
	resp = doRequest(t, http.MethodGet, "/api/rds/objects?limit=100&after="+after, nil)
	mustStatus(t, resp, http.StatusOK)
	rest := assertIsArray(t, readJSON(t, resp), "results")
	if len(rest) != 12 {
		t.Errorf("expected the remaining 12 seeded objects, got %d", len(rest))
	}
}

func TestObjectBatchCreate(t *testing.T) {
	resetServer(t)

	resp := doRequest(t, http.MethodPost, "/api/rds/objects/batch", map[string]any{
		"inputs": []map[string]any{
			{"id": 40, "code": "++B2", "name": "Building 2", "objectType": "entity"},
			{"id": 40, "code": "++B2.", "parentCode": "++B2", "name": "Building 2", "objectType": "container"},
		},
	})
	mustStatus(t, resp, http.StatusCreated)
	body := readJSON(t, resp)
	if results := assertIsArray(t, body, "results"); len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	resp = doRequest(t, http.MethodPost, "/api/rds/objects/batch", map[string]any{"inputs": []any{}})
	mustStatus(t, resp, http.StatusBadRequest)
	assertAPIError(t, readJSON(t, resp), "VALIDATION_ERROR")
}

func TestObjectLookupByBIMGUID(t *testing.T) {
	resetServer(t)

	resp := doRequest(t, http.MethodGet, "/api/rds/objects/lookup?value=0K7w7JN4XAY8N%24Cn5nXHkC", nil)
	mustStatus(t, resp, http.StatusOK)
	results := assertIsArray(t, readJSON(t, resp), "results")
	if len(results) != 1 {
		t.Fatalf("expected 1 match, got %d", len(results))
	}
	assertStringField(t, toObject(t, results[0]), "code", "===10KV.Q2.T1")

	resp = doRequest(t, http.MethodGet, "/api/rds/objects/lookup", nil)
	mustStatus(t, resp, http.StatusBadRequest)
	assertAPIError(t, readJSON(t, resp), "VALIDATION_ERROR")
}
