package database

import (
	"database/sql"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

type DBConn struct {
	db *sql.DB
	mu sync.Mutex
}

// Connect opens (creating if needed) the sqlite journal at file.
func Connect(file string) (*DBConn, error) {
	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, err
	}
	const createRelocations string = `
	CREATE TABLE IF NOT EXISTS relocations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		info_hash TEXT NOT NULL,
		source TEXT NOT NULL,
		destination TEXT NOT NULL,
		action TEXT NOT NULL,
		piece_index INTEGER NOT NULL,
		time DATETIME NOT NULL
	);`
	if _, err := db.Exec(createRelocations); err != nil {
		db.Close()
		return nil, err
	}
	const createIndex string = `
	CREATE INDEX IF NOT EXISTS relocations_info_hash ON relocations (info_hash);`
	if _, err := db.Exec(createIndex); err != nil {
		db.Close()
		return nil, err
	}
	return &DBConn{
		db: db,
	}, nil
}

func (dbc *DBConn) Disconnect() error {
	dbc.mu.Lock()
	defer dbc.mu.Unlock()

	return dbc.db.Close()
}
