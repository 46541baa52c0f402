package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/johnwards/rdstree/internal/domain"
)

// Build is the summary of one forest build.
type Build struct {
	ID              int64  `json:"id"`
	Facility        string `json:"facility"`
	Objects         int    `json:"objects"`
	Nodes           int    `json:"nodes"`
	Roots           int    `json:"roots"`
	DuplicateGroups int    `json:"duplicateGroups"`
	Orphans         int    `json:"orphans"`
	DurationMS      int64  `json:"durationMs"`
	BuiltAt         string `json:"builtAt"`
}

// BuildStore records forest build history.
type BuildStore interface {
	Record(ctx context.Context, b Build) (*Build, error)
	Recent(ctx context.Context, facility string, limit int) ([]*Build, error)
}

// SQLiteBuildStore implements BuildStore backed by SQLite.
type SQLiteBuildStore struct {
	db *sql.DB
}

// NewSQLiteBuildStore creates a new SQLiteBuildStore.
func NewSQLiteBuildStore(db *sql.DB) *SQLiteBuildStore {
	return &SQLiteBuildStore{db: db}
}

// Record stores a build summary. BuiltAt is set to the current time when empty.
func (s *SQLiteBuildStore) Record(ctx context.Context, b Build) (*Build, error) {
	if b.BuiltAt == "" {
		b.BuiltAt = now()
	}
	b.Facility = domain.Facility(b.Facility)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tree_builds (facility, objects, nodes, roots, duplicate_groups, orphans, duration_ms, built_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Facility, b.Objects, b.Nodes, b.Roots, b.DuplicateGroups, b.Orphans, b.DurationMS, b.BuiltAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert build: %w", err)
	}

	b.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &b, nil
}

// Recent returns up to limit builds, newest first. An empty facility returns
// builds of every facility.
func (s *SQLiteBuildStore) Recent(ctx context.Context, facility string, limit int) ([]*Build, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, facility, objects, nodes, roots, duplicate_groups, orphans, duration_ms, built_at
		 FROM tree_builds WHERE (? = '' OR facility = ?) ORDER BY id DESC LIMIT ?`,
		facility, facility, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	builds := []*Build{}
	for rows.Next() {
		var b Build
		if err := rows.Scan(&b.ID, &b.Facility, &b.Objects, &b.Nodes, &b.Roots, &b.DuplicateGroups, &b.Orphans, &b.DurationMS, &b.BuiltAt); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		builds = append(builds, &b)
	}
	return builds, rows.Err()
}
