package seed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/johnwards/rdstree/internal/domain"
	"github.com/johnwards/rdstree/internal/store"
)

// Seed loads the sample facility. It is idempotent: nothing is inserted when
// the facility's first code is already stored.
func Seed(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rds_objects WHERE code = ?`, Facility[0].Code,
	).Scan(&count); err != nil {
		return fmt.Errorf("check seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	if _, err := store.NewSQLiteObjectStore(db).BatchCreate(ctx, Facility); err != nil {
		return fmt.Errorf("seed facility: %w", err)
	}
	return nil
}

func parent(code string) *string {
	return domain.StrPtr(code)
}

// Facility is a small water treatment plant designated in all three aspects:
// process functions, the 10 kV power supply and the building locations.
var Facility = []domain.CreateInput{
	{ID: 1, Code: "=WTP", Name: "Water treatment plant", ObjectType: "entity"},
	{ID: 1, Code: "=WTP.", ParentCode: parent("=WTP"), Name: "Water treatment plant", ObjectType: "container"},
	{ID: 2, Code: "=WTP.PU1", ParentCode: parent("=WTP."), Name: "Pumping station 1", ObjectType: "entity"},
	{ID: 2, Code: "=WTP.PU1.", ParentCode: parent("=WTP.PU1"), Name: "Pumping station 1", ObjectType: "container"},
	{ID: 3, Code: "=WTP.PU1.M1", ParentCode: parent("=WTP.PU1."), Name: "Pump motor 1", ObjectType: "entity",
		Attributes: map[string]string{"bim_guid": "3vB2YO$MX4xv5uCqZZG05x", "rated_power": "55 kW"}},
	{ID: 4, Code: "=WTP.PU1.M2", ParentCode: parent("=WTP.PU1."), Name: "Pump motor 2", ObjectType: "entity",
		Attributes: map[string]string{"bim_guid": "1hOSvn6df7F8_7GcBWlR72", "rated_power": "55 kW"}},
	{ID: 5, Code: "=WTP.FL1", ParentCode: parent("=WTP."), Name: "Filtration line 1", ObjectType: "entity"},

	{ID: 10, Code: "===10KV", Name: "10 kV switchgear", ObjectType: "entity"},
	{ID: 10, Code: "===10KV.", ParentCode: parent("===10KV"), Name: "10 kV switchgear", ObjectType: "container"},
	{ID: 11, Code: "===10KV.Q1", ParentCode: parent("===10KV."), Name: "Incoming feeder", ObjectType: "entity"},
	{ID: 12, Code: "===10KV.Q2", ParentCode: parent("===10KV."), Name: "Transformer feeder T1", ObjectType: "entity"},
	{ID: 12, Code: "===10KV.Q2.", ParentCode: parent("===10KV.Q2"), Name: "Transformer feeder T1", ObjectType: "container"},
	{ID: 13, Code: "===10KV.Q2.T1", ParentCode: parent("===10KV.Q2."), Name: "Transformer T1 10/0.4 kV", ObjectType: "entity",
		Attributes: map[string]string{"bim_guid": "0K7w7JN4XAY8N$Cn5nXHkC"}},

	{ID: 20, Code: "++B1", Name: "Building 1", ObjectType: "entity"},
	{ID: 20, Code: "++B1.", ParentCode: parent("++B1"), Name: "Building 1", ObjectType: "container"},
	{ID: 21, Code: "++B1.R101", ParentCode: parent("++B1."), Name: "Pump hall", ObjectType: "entity"},
	{ID: 22, Code: "++B1.R102", ParentCode: parent("++B1."), Name: "Switchgear room", ObjectType: "entity"},
}
