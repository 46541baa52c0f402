package conformance_test

import (
	"encoding/csv"
	"net/http"
	"strings"
	"testing"
)

func TestExportObjectsCSV(t *testing.T) {
	resetServer(t)

	resp := doRequest(t, http.MethodGet, "/api/rds/exports/objects.csv", nil)
	mustStatus(t, resp, http.StatusOK)
	defer func() { _ = resp.Body.Close() }()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("expected text/csv, got %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "objects.csv") {
		t.Errorf("expected attachment filename, got %q", cd)
	}

	rows, err := csv.NewReader(resp.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 18 {
		t.Fatalf("expected header plus 17 rows, got %d", len(rows))
	}
	header := strings.Join(rows[0], ",")
	for _, col := range []string{"id", "code", "parent_code", "name", "object_type", "bim_guid"} {
		if !strings.Contains(header, col) {
			t.Errorf("header %q is missing %s", header, col)
		}
	}
}
