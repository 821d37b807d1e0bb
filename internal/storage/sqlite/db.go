package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB opened on a merge history database file.
type DB struct {
	*sql.DB

	// Path is the file the database was opened on.
	Path string
}

// pragmas applied to every connection before use. WAL keeps readers from
// blocking the writer; busy_timeout covers most lock contention so that
// retryOnBusy rarely fires.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// Open opens (creating if necessary) the history database at path and
// applies the connection pragmas. The schema is not created here; call
// MigrateUp after opening.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return &DB{DB: db, Path: path}, nil
}

const (
	busyMaxAttempts  = 5
	busyInitialDelay = 10 * time.Millisecond
)

// isSQLiteBusy reports whether err is a transient lock error worth retrying.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// retryOnBusy runs fn, retrying with exponential backoff while sqlite
// reports a locked database. Any other error returns immediately.
func retryOnBusy(fn func() error) error {
	delay := busyInitialDelay
	var err error
	for attempt := 0; attempt < busyMaxAttempts; attempt++ {
		err = fn()
		if !isSQLiteBusy(err) {
			return err
		}
		if attempt < busyMaxAttempts-1 {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return err
}
