package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/johnwards/rdstree/internal/domain"
	"github.com/johnwards/rdstree/internal/store"
)

// ErrUnreadable wraps a failure to read an import source at all, as opposed
// to individual bad rows.
var ErrUnreadable = errors.New("unreadable import")

// KindImportFailed marks the import error recorded when a whole import fails.
const KindImportFailed = "IMPORT_FAILED"

// ReadFunc reads an import source.
type ReadFunc func() ([]domain.Object, []RowError, error)

// Source is one import input. Every object it yields is stored in Facility.
type Source struct {
	Name     string
	Format   string
	Facility string
	Read     ReadFunc
}

// ReaderSource returns a source that reads r in the format of fileName. An
// empty name falls back to fileName.
func ReaderSource(name, fileName string, r io.Reader) Source {
	if name == "" {
		name = fileName
	}
	format := FormatOf(fileName)
	return Source{
		Name:   name,
		Format: format,
		Read:   func() ([]domain.Object, []RowError, error) { return Read(r, format) },
	}
}

// FileSource returns a source that reads the file at path.
func FileSource(path string) Source {
	return Source{
		Name:   filepath.Base(path),
		Format: FormatOf(path),
		Read:   func() ([]domain.Object, []RowError, error) { return ReadFile(path) },
	}
}

// Load runs one import. It opens an import record, records every row error
// against it and stores the readable objects in one batch. When the source
// cannot be read or the batch is rejected the import is left FAILED and the
// cause is returned; the import record is returned either way once it exists.
func Load(ctx context.Context, s *store.Store, src Source) (*store.Import, error) {
	imp, err := s.Imports.Create(ctx, src.Facility, src.Name, src.Format)
	if err != nil {
		return nil, fmt.Errorf("create import: %w", err)
	}

	var sum store.ImportSummary
	objs, rowErrs, err := src.Read()
	if err != nil {
		return fail(ctx, s, imp, sum, fmt.Errorf("%w: %w", ErrUnreadable, err))
	}

	if err := s.Imports.AddErrors(ctx, imp.ID, importErrors(rowErrs)); err != nil {
		return imp, fmt.Errorf("record row errors: %w", err)
	}
	sum.Rows = len(objs) + len(rowErrs)
	sum.Failed = len(rowErrs)

	if len(objs) > 0 {
		inputs := Inputs(objs)
		for i := range inputs {
			inputs[i].Facility = imp.Facility
		}
		created, err := s.Objects.BatchCreate(ctx, inputs)
		if err != nil {
			return fail(ctx, s, imp, sum, err)
		}
		sum.Created = len(created)
	}

	done, err := s.Imports.Finish(ctx, imp.ID, store.ImportDone, sum)
	if err != nil {
		return imp, err
	}

	slog.InfoContext(ctx, "import finished",
		"importId", done.ID,
		"facility", done.Facility,
		"format", done.Format,
		"rows", sum.Rows,
		"created", sum.Created,
		"failed", sum.Failed,
	)
	return done, nil
}

func importErrors(rowErrs []RowError) []store.ImportError {
	out := make([]store.ImportError, len(rowErrs))
	for i, re := range rowErrs {
		out[i] = store.ImportError{Kind: re.Kind, Message: re.Message, Value: re.Value, Line: re.Line}
	}
	return out
}

func fail(ctx context.Context, s *store.Store, imp *store.Import, sum store.ImportSummary, cause error) (*store.Import, error) {
	if err := s.Imports.AddErrors(ctx, imp.ID, []store.ImportError{
		{Kind: KindImportFailed, Message: cause.Error()},
	}); err != nil {
		slog.ErrorContext(ctx, "record import failure", "importId", imp.ID, "error", err)
	}
	if failed, err := s.Imports.Finish(ctx, imp.ID, store.ImportFailed, sum); err != nil {
		slog.ErrorContext(ctx, "mark import failed", "importId", imp.ID, "error", err)
	} else {
		imp = failed
	}
	slog.WarnContext(ctx, "import failed", "importId", imp.ID, "error", cause)
	return imp, cause
}
