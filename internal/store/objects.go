package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/johnwards/rdstree/internal/domain"
)

// ObjectStore defines the interface for designated object persistence.
type ObjectStore interface {
	Create(ctx context.Context, in domain.CreateInput) (*domain.Object, error)
	BatchCreate(ctx context.Context, inputs []domain.CreateInput) ([]*domain.Object, error)
	Get(ctx context.Context, recordID int64) (*domain.Object, error)
	List(ctx context.Context, opts domain.ListOpts) (*domain.ObjectPage, error)
	All(ctx context.Context, facility string) ([]domain.Object, error)
	Update(ctx context.Context, recordID int64, in domain.UpdateInput) (*domain.Object, error)
	Delete(ctx context.Context, recordID int64) error
	FindByAttribute(ctx context.Context, facility, key, value string) ([]*domain.Object, error)

	Facilities(ctx context.Context) ([]*FacilitySummary, error)
	Stats(ctx context.Context, facility string) (*FacilityStats, error)
	DeleteFacility(ctx context.Context, facility string) (int64, error)
}

// ErrNotFound is returned when a requested object does not exist.
var ErrNotFound = errors.New("object not found")

// ErrInvalid is returned when an input fails validation.
var ErrInvalid = errors.New("invalid object")

const objectColumns = `id, facility, object_id, code, parent_code, name, object_type, attributes, created_at, updated_at`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SQLiteObjectStore implements ObjectStore backed by SQLite.
type SQLiteObjectStore struct {
	db *sql.DB
}

// NewSQLiteObjectStore creates a new SQLiteObjectStore.
func NewSQLiteObjectStore(db *sql.DB) *SQLiteObjectStore {
	return &SQLiteObjectStore{db: db}
}

// Create inserts a new designated object.
func (s *SQLiteObjectStore) Create(ctx context.Context, in domain.CreateInput) (*domain.Object, error) {
	recordID, err := insertObject(ctx, s.db, in, now())
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, recordID)
}

// BatchCreate inserts all inputs in one transaction. Nothing is written if any
// input fails. Inputs without an ID that share a source Row get the object id
// of the first of them.
func (s *SQLiteObjectStore) BatchCreate(ctx context.Context, inputs []domain.CreateInput) ([]*domain.Object, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch create: %w", err)
	}

	ts := now()
	ids := make([]int64, 0, len(inputs))
	rows := make(map[int]int64)
	for i, in := range inputs {
		grouped := in.ID == 0 && in.Row > 0
		if grouped {
			in.ID = rows[in.Row]
		}
		id, err := insertObject(ctx, tx, in, ts)
		if err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		if grouped && in.ID == 0 {
			rows[in.Row] = id
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch create: %w", err)
	}

	out := make([]*domain.Object, 0, len(ids))
	for _, id := range ids {
		obj, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

func insertObject(ctx context.Context, db execer, in domain.CreateInput, ts string) (int64, error) {
	if err := validateCreate(in); err != nil {
		return 0, err
	}

	attrs, err := encodeAttributes(in.Attributes)
	if err != nil {
		return 0, err
	}

	res, err := db.ExecContext(ctx,
		`INSERT INTO rds_objects (facility, object_id, code, parent_code, name, object_type, attributes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		domain.Facility(in.Facility), in.ID, in.Code, nullString(in.ParentCode), in.Name, in.ObjectType, attrs, ts, ts,
	)
	if err != nil {
		return 0, fmt.Errorf("insert object: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	// Without an explicit object id the record stands for its own object.
	if in.ID == 0 {
		if _, err := db.ExecContext(ctx, `UPDATE rds_objects SET object_id = id WHERE id = ?`, id); err != nil {
			return 0, fmt.Errorf("assign object id: %w", err)
		}
	}
	return id, nil
}

func validateCreate(in domain.CreateInput) error {
	if strings.TrimSpace(in.Code) == "" {
		return fmt.Errorf("code is required: %w", ErrInvalid)
	}
	if in.ID < 0 {
		return fmt.Errorf("id must be positive: %w", ErrInvalid)
	}
	return nil
}

// Get retrieves a single object by record ID.
func (s *SQLiteObjectStore) Get(ctx context.Context, recordID int64) (*domain.Object, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+objectColumns+` FROM rds_objects WHERE id = ?`, recordID)

	obj, err := scanObject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get object %d: %w", recordID, ErrNotFound)
		}
		return nil, fmt.Errorf("get object %d: %w", recordID, err)
	}
	return obj, nil
}

// List returns a paginated list of objects in insertion order, optionally
// limited to one facility.
func (s *SQLiteObjectStore) List(ctx context.Context, opts domain.ListOpts) (*domain.ObjectPage, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	if opts.Limit > 1000 {
		opts.Limit = 1000
	}

	query := `SELECT ` + objectColumns + ` FROM rds_objects WHERE 1 = 1`
	var args []any

	if opts.Facility != "" {
		query += ` AND facility = ?`
		args = append(args, opts.Facility)
	}
	if opts.After != "" {
		after, err := strconv.ParseInt(opts.After, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor %q: %w", opts.After, ErrInvalid)
		}
		query += ` AND id > ?`
		args = append(args, after)
	}

	// Fetch one extra to determine if there is a next page.
	query += ` ORDER BY id ASC LIMIT ?`
	args = append(args, opts.Limit+1)

	objs, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}

	page := &domain.ObjectPage{Results: objs}
	if len(page.Results) > opts.Limit {
		page.HasMore = true
		page.After = strconv.FormatInt(page.Results[opts.Limit-1].RecordID, 10)
		page.Results = page.Results[:opts.Limit]
	}
	return page, nil
}

// All returns every object of a facility ordered by record ID. This is the
// stable input order the tree builder relies on.
func (s *SQLiteObjectStore) All(ctx context.Context, facility string) ([]domain.Object, error) {
	objs, err := s.query(ctx,
		`SELECT `+objectColumns+` FROM rds_objects WHERE facility = ? ORDER BY id ASC`,
		domain.Facility(facility))
	if err != nil {
		return nil, fmt.Errorf("load objects of %s: %w", facility, err)
	}

	out := make([]domain.Object, len(objs))
	for i, o := range objs {
		out[i] = *o
	}
	return out, nil
}

// Update applies a partial update to an object.
func (s *SQLiteObjectStore) Update(ctx context.Context, recordID int64, in domain.UpdateInput) (*domain.Object, error) {
	existing, err := s.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}

	if in.ID != nil {
		if *in.ID <= 0 {
			return nil, fmt.Errorf("id must be positive: %w", ErrInvalid)
		}
		existing.ID = *in.ID
	}
	if in.Code != nil {
		if strings.TrimSpace(*in.Code) == "" {
			return nil, fmt.Errorf("code is required: %w", ErrInvalid)
		}
		existing.Code = *in.Code
	}
	switch {
	case in.ClearParent:
		existing.ParentCode = nil
	case in.ParentCode != nil:
		existing.ParentCode = in.ParentCode
	}
	if in.Name != nil {
		existing.Name = *in.Name
	}
	if in.ObjectType != nil {
		existing.ObjectType = *in.ObjectType
	}
	if in.Attributes != nil {
		if existing.Attributes == nil {
			existing.Attributes = make(map[string]string)
		}
		for k, v := range in.Attributes {
			if v == "" {
				delete(existing.Attributes, k)
			} else {
				existing.Attributes[k] = v
			}
		}
	}

	attrs, err := encodeAttributes(existing.Attributes)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE rds_objects SET object_id = ?, code = ?, parent_code = ?, name = ?, object_type = ?, attributes = ?, updated_at = ?
		 WHERE id = ?`,
		existing.ID, existing.Code, nullString(existing.ParentCode), existing.Name, existing.ObjectType, attrs, now(), recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("update object %d: %w", recordID, err)
	}

	return s.Get(ctx, recordID)
}

// Delete removes an object.
func (s *SQLiteObjectStore) Delete(ctx context.Context, recordID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rds_objects WHERE id = ?`, recordID)
	if err != nil {
		return fmt.Errorf("delete object %d: %w", recordID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete object %d: %w", recordID, ErrNotFound)
	}
	return nil
}

// FindByAttribute returns the objects whose attribute key equals value, such
// as a BIM model GUID. An empty facility searches all of them.
func (s *SQLiteObjectStore) FindByAttribute(ctx context.Context, facility, key, value string) ([]*domain.Object, error) {
	objs, err := s.query(ctx,
		`SELECT `+objectColumns+` FROM rds_objects
		 WHERE json_extract(attributes, '$.' || json_quote(?)) = ?
		   AND (? = '' OR facility = ?)
		 ORDER BY id ASC`,
		key, value, facility, facility,
	)
	if err != nil {
		return nil, fmt.Errorf("find by attribute %s: %w", key, err)
	}
	return objs, nil
}

func (s *SQLiteObjectStore) query(ctx context.Context, query string, args ...any) ([]*domain.Object, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	objs := []*domain.Object{}
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		objs = append(objs, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return objs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanObject(row scanner) (*domain.Object, error) {
	var obj domain.Object
	var parent sql.NullString
	var attrs string
	if err := row.Scan(&obj.RecordID, &obj.Facility, &obj.ID, &obj.Code, &parent, &obj.Name, &obj.ObjectType, &attrs, &obj.CreatedAt, &obj.UpdatedAt); err != nil {
		return nil, err
	}
	if parent.Valid {
		obj.ParentCode = &parent.String
	}
	if attrs != "" && attrs != "{}" {
		if err := json.Unmarshal([]byte(attrs), &obj.Attributes); err != nil {
			return nil, fmt.Errorf("decode attributes: %w", err)
		}
	}
	return &obj, nil
}

func encodeAttributes(attrs map[string]string) (string, error) {
	if len(attrs) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return "", fmt.Errorf("encode attributes: %w", err)
	}
	return string(b), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
