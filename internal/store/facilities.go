package store

import (
	"context"
	"fmt"

	"github.com/johnwards/rdstree/internal/designation"
	"github.com/johnwards/rdstree/internal/domain"
)

// FacilitySummary describes one facility that holds stored objects.
type FacilitySummary struct {
	Facility  string `json:"facility"`
	Records   int    `json:"records"`
	Objects   int    `json:"objects"`
	UpdatedAt string `json:"updatedAt"`
}

// FacilityTotals counts the distinct objects and the code claims (records) of
// a facility.
type FacilityTotals struct {
	Objects int `json:"objects"`
	Records int `json:"records"`
}

// FacilityStats breaks a facility down by object type and by aspect. Objects
// counts distinct object ids per type; Aspects counts code claims per aspect.
type FacilityStats struct {
	Facility string         `json:"facility"`
	Objects  map[string]int `json:"objects"`
	Aspects  map[string]int `json:"aspects"`
	Totals   FacilityTotals `json:"totals"`
}

// Facilities lists every facility with stored objects, by name.
func (s *SQLiteObjectStore) Facilities(ctx context.Context) ([]*FacilitySummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT facility, COUNT(*), COUNT(DISTINCT object_id), MAX(updated_at)
		 FROM rds_objects GROUP BY facility ORDER BY facility ASC`)
	if err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []*FacilitySummary{}
	for rows.Next() {
		var f FacilitySummary
		if err := rows.Scan(&f.Facility, &f.Records, &f.Objects, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan facility: %w", err)
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

// Stats counts the objects of a facility. A facility without objects is not
// found.
func (s *SQLiteObjectStore) Stats(ctx context.Context, facility string) (*FacilityStats, error) {
	facility = domain.Facility(facility)
	rows, err := s.db.QueryContext(ctx,
		`SELECT object_id, object_type, code FROM rds_objects WHERE facility = ?`, facility)
	if err != nil {
		return nil, fmt.Errorf("facility stats %s: %w", facility, err)
	}
	defer func() { _ = rows.Close() }()

	st := &FacilityStats{
		Facility: facility,
		Objects:  map[string]int{},
		Aspects:  map[string]int{},
	}
	seen := map[int64]bool{}
	for rows.Next() {
		var id int64
		var objectType, code string
		if err := rows.Scan(&id, &objectType, &code); err != nil {
			return nil, fmt.Errorf("scan facility stats: %w", err)
		}
		st.Totals.Records++
		st.Aspects[string(designation.Classify(code))]++
		if !seen[id] {
			seen[id] = true
			st.Objects[objectType]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	if st.Totals.Records == 0 {
		return nil, fmt.Errorf("facility %s: %w", facility, ErrNotFound)
	}
	st.Totals.Objects = len(seen)
	return st, nil
}

// DeleteFacility removes every object of a facility and reports how many
// records went.
func (s *SQLiteObjectStore) DeleteFacility(ctx context.Context, facility string) (int64, error) {
	facility = domain.Facility(facility)
	res, err := s.db.ExecContext(ctx, `DELETE FROM rds_objects WHERE facility = ?`, facility)
	if err != nil {
		return 0, fmt.Errorf("delete facility %s: %w", facility, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("facility %s: %w", facility, ErrNotFound)
	}
	return n, nil
}
