package seed_test

import (
	"context"
	"testing"

	"github.com/johnwards/rdstree/internal/seed"
	"github.com/johnwards/rdstree/internal/store"
	"github.com/johnwards/rdstree/internal/testhelpers"
	"github.com/johnwards/rdstree/internal/tree"
)

func TestSeedIdempotent(t *testing.T) {
	db := testhelpers.NewMigratedDB(t)
	ctx := context.Background()

	for i := range 2 {
		if err := seed.Seed(ctx, db); err != nil {
			t.Fatalf("seed (run %d): %v", i+1, err)
		}
	}

	all, err := store.NewSQLiteObjectStore(db).All(ctx, "")
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != len(seed.Facility) {
		t.Errorf("objects = %d, want %d", len(all), len(seed.Facility))
	}
}

func TestFacilityBuildsCleanForest(t *testing.T) {
	db := testhelpers.NewMigratedDB(t)
	ctx := context.Background()

	if err := seed.Seed(ctx, db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	all, err := store.NewSQLiteObjectStore(db).All(ctx, "")
	if err != nil {
		t.Fatalf("all: %v", err)
	}

	result, err := tree.Build(all)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(result.Roots) != 3 {
		t.Errorf("roots = %d, want 3", len(result.Roots))
	}
	if len(result.Duplicates) != 0 {
		t.Errorf("unexpected duplicates: %+v", result.Duplicates)
	}
	if len(result.Orphans) != 0 {
		t.Errorf("unexpected orphans: %+v", result.Orphans)
	}
	if len(result.Unrecognized) != 0 {
		t.Errorf("unexpected unrecognized codes: %v", result.Unrecognized)
	}
	if result.Count() != len(seed.Facility) {
		t.Errorf("nodes = %d, want %d", result.Count(), len(seed.Facility))
	}
}
