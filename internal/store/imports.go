package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/johnwards/rdstree/internal/domain"
)

// ImportState is the lifecycle state of an import.
type ImportState string

// Import states. An import is STARTED until its rows are stored, then DONE,
// or FAILED when the source could not be read or the batch was rejected.
const (
	ImportStarted ImportState = "STARTED"
	ImportDone    ImportState = "DONE"
	ImportFailed  ImportState = "FAILED"
)

// ImportSummary counts the records of one import. Rows is the number of
// objects read plus the number of rejected rows; a spreadsheet row with
// several aspect codes reads as one object per code.
type ImportSummary struct {
	Rows    int `json:"rows"`
	Created int `json:"created"`
	Failed  int `json:"failed"`
}

// Import is one load of designated objects from a CSV or JSON source.
type Import struct {
	ID        string        `json:"id"`
	Facility  string        `json:"facility"`
	Name      string        `json:"name,omitempty"`
	Format    string        `json:"format"`
	State     ImportState   `json:"state"`
	Summary   ImportSummary `json:"summary"`
	CreatedAt string        `json:"createdAt"`
	UpdatedAt string        `json:"updatedAt"`
}

// ImportError is a problem recorded against an import, usually a source row
// that could not be read. Line is 0 for errors that concern the whole source.
type ImportError struct {
	ID        string `json:"id"`
	ImportID  string `json:"-"`
	Kind      string `json:"errorType"`
	Message   string `json:"message"`
	Value     string `json:"invalidValue,omitempty"`
	Line      int    `json:"lineNumber,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// ImportStore defines the interface for import persistence.
type ImportStore interface {
	Create(ctx context.Context, facility, name, format string) (*Import, error)
	Get(ctx context.Context, id string) (*Import, error)
	List(ctx context.Context, opts domain.ListOpts) ([]*Import, bool, string, error)
	Finish(ctx context.Context, id string, state ImportState, sum ImportSummary) (*Import, error)
	AddErrors(ctx context.Context, importID string, errs []ImportError) error
	GetErrors(ctx context.Context, importID string) ([]*ImportError, error)
}

const importColumns = `id, facility, name, format, state, rows_total, rows_created, rows_failed, created_at, updated_at`

// SQLiteImportStore implements ImportStore backed by SQLite.
type SQLiteImportStore struct {
	db *sql.DB
}

// NewSQLiteImportStore creates a new SQLiteImportStore.
func NewSQLiteImportStore(db *sql.DB) *SQLiteImportStore {
	return &SQLiteImportStore{db: db}
}

// parseImportID converts an API import id into its row id. Anything that is
// not a positive integer cannot name an import.
func parseImportID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("import %q: %w", id, ErrNotFound)
	}
	return n, nil
}

// Create opens a new import into a facility in the STARTED state.
func (s *SQLiteImportStore) Create(ctx context.Context, facility, name, format string) (*Import, error) {
	ts := now()
	facility = domain.Facility(facility)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO imports (facility, name, format, state, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		facility, name, format, ImportStarted, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert import: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return &Import{
		ID:        strconv.FormatInt(id, 10),
		Facility:  facility,
		Name:      name,
		Format:    format,
		State:     ImportStarted,
		CreatedAt: ts,
		UpdatedAt: ts,
	}, nil
}

// Get retrieves an import by ID.
func (s *SQLiteImportStore) Get(ctx context.Context, id string) (*Import, error) {
	rowID, err := parseImportID(id)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+importColumns+` FROM imports WHERE id = ?`, rowID)
	imp, err := scanImport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("import %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get import %s: %w", id, err)
	}
	return imp, nil
}

// List returns imports oldest first, with the cursor of the next page when
// there is one.
//
//nolint:gocritic // four results mirror the collection response
func (s *SQLiteImportStore) List(ctx context.Context, opts domain.ListOpts) ([]*Import, bool, string, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := `SELECT ` + importColumns + ` FROM imports`
	args := []any{}

	if opts.After != "" {
		after, err := strconv.ParseInt(opts.After, 10, 64)
		if err != nil {
			return nil, false, "", fmt.Errorf("invalid cursor %q: %w", opts.After, ErrInvalid)
		}
		query += ` WHERE id > ?`
		args = append(args, after)
	}

	query += ` ORDER BY id ASC LIMIT ?`
	args = append(args, limit+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, false, "", fmt.Errorf("list imports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	imports := []*Import{}
	for rows.Next() {
		imp, err := scanImport(rows)
		if err != nil {
			return nil, false, "", fmt.Errorf("scan import: %w", err)
		}
		imports = append(imports, imp)
	}
	if err := rows.Err(); err != nil {
		return nil, false, "", fmt.Errorf("rows iteration: %w", err)
	}

	if len(imports) > limit {
		return imports[:limit], true, imports[limit-1].ID, nil
	}
	return imports, false, "", nil
}

func scanImport(row scanner) (*Import, error) {
	var imp Import
	var rowID int64
	var name, format sql.NullString
	if err := row.Scan(&rowID, &imp.Facility, &name, &format, &imp.State,
		&imp.Summary.Rows, &imp.Summary.Created, &imp.Summary.Failed,
		&imp.CreatedAt, &imp.UpdatedAt); err != nil {
		return nil, err
	}
	imp.ID = strconv.FormatInt(rowID, 10)
	imp.Name = name.String
	imp.Format = format.String
	return &imp, nil
}

// Finish stores the final state and row counts of an import and returns the
// updated record.
func (s *SQLiteImportStore) Finish(ctx context.Context, id string, state ImportState, sum ImportSummary) (*Import, error) {
	rowID, err := parseImportID(id)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE imports SET state = ?, rows_total = ?, rows_created = ?, rows_failed = ?, updated_at = ?
		 WHERE id = ?`,
		state, sum.Rows, sum.Created, sum.Failed, now(), rowID,
	)
	if err != nil {
		return nil, fmt.Errorf("finish import %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return nil, fmt.Errorf("import %s: %w", id, ErrNotFound)
	}
	return s.Get(ctx, id)
}

// AddErrors records errors against an import in one transaction, keeping
// their order.
func (s *SQLiteImportStore) AddErrors(ctx context.Context, importID string, errs []ImportError) error {
	if len(errs) == 0 {
		return nil
	}
	rowID, err := parseImportID(importID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()
	for _, ie := range errs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO import_errors (import_id, error_type, error_message, invalid_value, line_number, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			rowID, ie.Kind, ie.Message, nullIfEmpty(ie.Value), ie.Line, ts,
		); err != nil {
			return fmt.Errorf("add import error: %w", err)
		}
	}
	return tx.Commit()
}

// GetErrors returns all errors of an import in the order they were recorded.
func (s *SQLiteImportStore) GetErrors(ctx context.Context, importID string) ([]*ImportError, error) {
	rowID, err := parseImportID(importID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, error_type, error_message, invalid_value, line_number, created_at
		 FROM import_errors WHERE import_id = ? ORDER BY id ASC`,
		rowID,
	)
	if err != nil {
		return nil, fmt.Errorf("get import errors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	errs := []*ImportError{}
	for rows.Next() {
		var ie ImportError
		var id int64
		var value sql.NullString
		var line sql.NullInt64
		if err := rows.Scan(&id, &ie.Kind, &ie.Message, &value, &line, &ie.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan import error: %w", err)
		}
		ie.ID = strconv.FormatInt(id, 10)
		ie.ImportID = importID
		ie.Value = value.String
		ie.Line = int(line.Int64)
		errs = append(errs, &ie)
	}
	return errs, rows.Err()
}
