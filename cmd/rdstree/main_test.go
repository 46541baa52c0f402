package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/johnwards/rdstree/internal/api/trees"
	"github.com/johnwards/rdstree/internal/database"
	"github.com/johnwards/rdstree/internal/seed"
	"github.com/johnwards/rdstree/internal/testhelpers"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const plantCSV = `id,code,parent_code,name,object_type
1,=A,,Plant,entity
2,=A.,=A,,container
3,=A.B,=A.,Pump,entity
4,=A.B,=A.,Pump 2,entity
5,=X.Y,=X.,Lost,entity
6,===10KV,,Switchgear,entity
`

func TestParseCommand(t *testing.T) {
	out, err := execute(t, "parse", "===10KV.Q1", "#bad")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.Contains(out, "===10KV.Q1") || !strings.Contains(out, "Power") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "unrecognized aspect") {
		t.Errorf("expected error for #bad:\n%s", out)
	}
}

func TestParseCommandExpandJSON(t *testing.T) {
	out, err := execute(t, "parse", "--expand", "--json", "=A.B")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var results []struct {
		Input string `json:"input"`
		Level int    `json:"level"`
	}
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(results) != 3 || results[2].Input != "=A.B" || results[2].Level != 3 {
		t.Errorf("unexpected chain %+v", results)
	}

	if _, err := execute(t, "parse", "--expand", "bogus"); err == nil {
		t.Error("expected error expanding an unrecognized code")
	}
}

func TestTreeCommand(t *testing.T) {
	path := writeFile(t, "plant.csv", plantCSV)

	out, err := execute(t, "tree", path)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	for _, want := range []string{
		"Plant  =A",
		"    Pump 2  =A.B",
		"Switchgear  ===10KV",
		"duplicate =A.B: ids [3 4], kept 4",
		"orphan =X.Y: missing_parent",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTreeCommandJSONFiltered(t *testing.T) {
	path := writeFile(t, "plant.csv", plantCSV)

	out, err := execute(t, "tree", "--json", "--aspect", "power", path)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	var resp trees.ForestResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(resp.Roots) != 1 || resp.Roots[0].Code != "===10KV" {
		t.Errorf("expected only the power root, got %+v", resp.Roots)
	}

	if _, err := execute(t, "tree", "--aspect", "sound", path); err == nil {
		t.Error("expected error for unknown aspect")
	}
	if _, err := execute(t, "tree", filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestTreeCommandFlat(t *testing.T) {
	path := writeFile(t, "plant.csv", plantCSV)

	out, err := execute(t, "tree", "--flat", "--aspect", "power", path)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	var resp trees.FlatForestResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if resp.Total != len(resp.Nodes) || resp.Nodes[0].Code != "===10KV" || resp.Nodes[0].ParentCode != "" {
		t.Errorf("expected the power root first, got %+v", resp.Nodes)
	}
	for _, n := range resp.Nodes[1:] {
		if n.ParentCode == "" {
			t.Errorf("expected %s to name its parent", n.Code)
		}
	}
}

func TestImportCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "rdstree.db")
	path := writeFile(t, "plant.csv", plantCSV+",,=A.,Nameless,entity\n")

	out, err := execute(t, "--db", dbPath, "import", path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "into default: 7 rows, 6 created, 1 failed") {
		t.Errorf("unexpected summary:\n%s", out)
	}
	if !strings.Contains(out, "line 8: MISSING_CODE") {
		t.Errorf("expected row error:\n%s", out)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = db.Close() }()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM rds_objects`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 6 {
		t.Errorf("expected 6 stored objects, got %d", n)
	}
}

func TestImportCommandFacility(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "rdstree.db")
	path := writeFile(t, "plant.csv", plantCSV)

	out, err := execute(t, "--db", dbPath, "import", "--facility", "plant-a", path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "into plant-a:") {
		t.Errorf("unexpected summary:\n%s", out)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = db.Close() }()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM rds_objects WHERE facility = 'plant-a'`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 6 {
		t.Errorf("expected 6 objects in plant-a, got %d", n)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "rdstree version ") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	path := writeFile(t, "plant.csv", plantCSV)
	if _, err := execute(t, "--log-level", "loud", "tree", path); err == nil {
		t.Error("expected configuration error")
	}
}

func TestHandler(t *testing.T) {
	db := testhelpers.NewMigratedDB(t)
	if err := seed.Seed(context.Background(), db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	srv := httptest.NewServer(newHandler(db, "secret"))
	defer srv.Close()

	get := func(path string, auth bool) (*http.Response, string) {
		t.Helper()
		req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if auth {
			req.Header.Set("Authorization", "Bearer secret")
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(resp.Body)
		return resp, string(body)
	}

	if resp, _ := get("/healthz", false); resp.StatusCode != http.StatusOK {
		t.Errorf("healthz: expected 200, got %d", resp.StatusCode)
	}
	if resp, _ := get("/api/rds/tree", false); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("tree without token: expected 401, got %d", resp.StatusCode)
	}
	if resp, _ := get("/api/rds/tree", true); resp.StatusCode != http.StatusOK {
		t.Errorf("tree: expected 200, got %d", resp.StatusCode)
	}
	if resp, _ := get("/nowhere", true); resp.StatusCode != http.StatusNotFound {
		t.Errorf("catch-all: expected 404, got %d", resp.StatusCode)
	}

	resp, body := get("/metrics", false)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", resp.StatusCode)
	}
	for _, want := range []string{"rdstree_tree_builds_total 1", "rdstree_http_requests_total", "go_goroutines"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}
