package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"
)

// InitDB opens the SQLite database at path and creates the schema if needed.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create users table
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		external_id TEXT UNIQUE,
		name TEXT NOT NULL,
		avatar TEXT NOT NULL DEFAULT '',
		admin INTEGER NOT NULL DEFAULT 0,
		points INTEGER NOT NULL DEFAULT 0,
		role TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create users table: %w", err)
	}

	// Create columns table
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS columns (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		ord INTEGER,
		clickup_list_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create columns table: %w", err)
	}

	// Create tasks table
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT 'new',
		assigned_to_id TEXT NOT NULL DEFAULT '',
		col_id TEXT NOT NULL DEFAULT '',
		grid_row INTEGER NOT NULL DEFAULT 0,
		reference_url TEXT NOT NULL DEFAULT '',
		technology TEXT NOT NULL DEFAULT '',
		points INTEGER NOT NULL DEFAULT 0,
		serial_number INTEGER NOT NULL,
		priority INTEGER NOT NULL DEFAULT 0,
		clickup_sync INTEGER NOT NULL DEFAULT 0,
		locked INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks table: %w", err)
	}

	log.Println("Database initialized successfully")
	return db, nil
}
