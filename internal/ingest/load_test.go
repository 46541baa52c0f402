package ingest_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnwards/rdstree/internal/domain"
	"github.com/johnwards/rdstree/internal/ingest"
	"github.com/johnwards/rdstree/internal/store"
	"github.com/johnwards/rdstree/internal/testhelpers"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()
	s := store.New(testhelpers.NewMigratedDB(t))

	csv := "code,parent_code,name\n=A,,Plant\n,=A,Nameless\n=A.,=A,\n"
	imp, err := ingest.Load(ctx, s, ingest.ReaderSource("", "plant.csv", strings.NewReader(csv)))
	require.NoError(t, err)

	assert.Equal(t, store.ImportSummary{Rows: 3, Created: 2, Failed: 1}, imp.Summary)
	assert.Equal(t, store.ImportDone, imp.State)
	assert.Equal(t, "plant.csv", imp.Name)
	assert.Equal(t, ingest.FormatCSV, imp.Format)

	errs, err := s.Imports.GetErrors(ctx, imp.ID)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, ingest.KindMissingCode, errs[0].Kind)
	assert.Equal(t, 3, errs[0].Line)

	all, err := s.Objects.All(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "=A.", all[1].Code)
}

func TestLoadFileSource(t *testing.T) {
	ctx := context.Background()
	s := store.New(testhelpers.NewMigratedDB(t))

	path := filepath.Join(t.TempDir(), "site.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":7,"code":"++B1","parentCode":null}]`), 0o600))

	imp, err := ingest.Load(ctx, s, ingest.FileSource(path))
	require.NoError(t, err)
	assert.Equal(t, "site.json", imp.Name)
	assert.Equal(t, ingest.FormatJSON, imp.Format)
	assert.Equal(t, 1, imp.Summary.Created)
}

func TestLoadUnreadable(t *testing.T) {
	ctx := context.Background()
	s := store.New(testhelpers.NewMigratedDB(t))

	imp, err := ingest.Load(ctx, s, ingest.ReaderSource("Bad load", "bad.csv", strings.NewReader("name\nPump\n")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ingest.ErrUnreadable)
	assert.ErrorIs(t, err, ingest.ErrNoHeader)

	require.NotNil(t, imp)
	assert.Equal(t, "Bad load", imp.Name)
	assert.Equal(t, store.ImportFailed, imp.State)
	assert.Zero(t, imp.Summary)

	errs, err := s.Imports.GetErrors(ctx, imp.ID)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, ingest.KindImportFailed, errs[0].Kind)
}

func TestLoadRejectedBatch(t *testing.T) {
	ctx := context.Background()
	s := store.New(testhelpers.NewMigratedDB(t))

	imp, err := ingest.Load(ctx, s, ingest.Source{
		Name:   "neg.json",
		Format: ingest.FormatJSON,
		Read: func() ([]domain.Object, []ingest.RowError, error) {
			return []domain.Object{{Code: "=A"}, {ID: -1, Code: "=B"}}, nil, nil
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrInvalid)
	assert.NotErrorIs(t, err, ingest.ErrUnreadable)
	assert.Equal(t, store.ImportFailed, imp.State)
	assert.Equal(t, 2, imp.Summary.Rows)

	all, err := s.Objects.All(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestLoadSheetIntoFacility(t *testing.T) {
	ctx := context.Background()
	s := store.New(testhelpers.NewMigratedDB(t))

	csv := "Name,ProcessFunction,Location
Pump,=WTP.PU1,++B1
Valve,=WTP.V1,
"
	src := ingest.ReaderSource("", "plant-a.csv", strings.NewReader(csv))
	src.Facility = "plant-a"

	imp, err := ingest.Load(ctx, s, src)
	require.NoError(t, err)
	assert.Equal(t, "plant-a", imp.Facility)
	// Three claims from two rows plus the generated =WTP and =WTP.
	assert.Equal(t, store.ImportSummary{Rows: 5, Created: 5}, imp.Summary)

	all, err := s.Objects.All(ctx, "plant-a")
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, all[0].ID, all[1].ID, "claims of one row share the object id")
	assert.NotEqual(t, all[0].ID, all[2].ID)
	assert.Equal(t, "plant-a", all[4].Facility)

	other, err := s.Objects.All(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, ingest.FormatJSON, ingest.FormatOf("site.JSON"))
	assert.Equal(t, ingest.FormatCSV, ingest.FormatOf("plant.csv"))
	assert.Equal(t, ingest.FormatCSV, ingest.FormatOf("export"))
}
