package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteDriverName = "sqlite"

const (
	schemaSlots = `
CREATE TABLE IF NOT EXISTS slots (
    idx   INTEGER PRIMARY KEY,
    value INTEGER NOT NULL
)`

	selectSlotsSQL = `SELECT idx, value FROM slots`

	upsertSlotSQL = `
		INSERT INTO slots (idx, value) VALUES (?, ?)
		ON CONFLICT(idx) DO UPDATE SET value=excluded.value
	`
)

// SQLite keeps slots in a single table. Like File, the database belongs on
// tmpfs so that power loss clears it.
type SQLite struct {
	db  *sql.DB
	buf []byte
	err error
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string, size int) (*SQLite, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// One writer, no contention.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA journal_mode=WAL: %w", err)
	}

	s, err := NewSQLite(db, size)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLite wraps an open database, creating the slot table if needed and
// loading the current contents. Rows outside [0,size) are ignored.
func NewSQLite(db *sql.DB, size int) (*SQLite, error) {
	if _, err := db.Exec(schemaSlots); err != nil {
		return nil, fmt.Errorf("create slots table: %w", err)
	}

	rows, err := db.Query(selectSlotsSQL)
	if err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}
	defer rows.Close()

	buf := make([]byte, size)
	for rows.Next() {
		var idx, value int64
		if err := rows.Scan(&idx, &value); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		if idx < 0 || idx >= int64(size) {
			continue
		}
		buf[idx] = byte(value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}

	return &SQLite{db: db, buf: buf}, nil
}

// Read returns slot i from the in-memory copy.
func (s *SQLite) Read(i int) byte {
	checkIndex(i, len(s.buf))
	return s.buf[i]
}

// Write sets slot i and upserts its row.
func (s *SQLite) Write(i int, v byte) {
	checkIndex(i, len(s.buf))
	s.buf[i] = v
	if s.err != nil {
		return
	}
	if s.db == nil {
		s.err = ErrClosed
		return
	}
	if _, err := s.db.Exec(upsertSlotSQL, int64(i), int64(v)); err != nil {
		s.err = fmt.Errorf("write slot %d: %w", i, err)
	}
}

// Sync returns the first write failure, if any.
func (s *SQLite) Sync() error {
	if s.err != nil {
		return s.err
	}
	if s.db == nil {
		return ErrClosed
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
