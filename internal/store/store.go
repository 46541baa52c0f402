// Package store persists designated objects, import jobs and the history of
// forest builds in SQLite.
package store

import (
	"database/sql"
	"time"
)

// TimeLayout is the millisecond-precision UTC layout of every stored timestamp.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Store holds all sub-stores used by the application.
type Store struct {
	DB      *sql.DB
	Objects ObjectStore
	Imports ImportStore
	Builds  BuildStore
}

// New creates a Store with all sub-stores initialized.
func New(db *sql.DB) *Store {
	return &Store{
		DB:      db,
		Objects: NewSQLiteObjectStore(db),
		Imports: NewSQLiteImportStore(db),
		Builds:  NewSQLiteBuildStore(db),
	}
}

func now() string {
	return time.Now().UTC().Format(TimeLayout)
}

// nullIfEmpty stores an empty string as NULL.
func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
