// Package archive persists the in-memory sync state to a local SQLite
// database, so chat history survives a restart and is greppable offline.
// The in-memory store stays the source of truth; the archive is a
// write-through copy fed from bus events.
package archive

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection for the app-owned archive database.
type DB struct {
	*sql.DB
}

// Open creates a SQLite connection with WAL mode and busy timeout set.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping archive: %w", err)
	}
	return &DB{db}, nil
}
