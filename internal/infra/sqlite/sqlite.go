// Package sqlite implements the collections store on SQLite.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Store implements port.CollectionsStore using SQLite.
type Store struct {
	db *sql.DB
}

// New opens (creating if necessary) the SQLite database at dbPath and
// runs schema migration.
func New(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath must not be empty")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS customers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		phone_number TEXT NOT NULL UNIQUE,
		email TEXT,
		language_preference TEXT NOT NULL DEFAULT 'en',
		risk_score REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS loans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id INTEGER NOT NULL REFERENCES customers(id),
		loan_amount REAL NOT NULL,
		emi_amount REAL NOT NULL,
		due_date TIMESTAMP NOT NULL,
		next_due_date TIMESTAMP NOT NULL,
		outstanding_amount REAL NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_loans_customer ON loans(customer_id);
	CREATE INDEX IF NOT EXISTS idx_loans_next_due ON loans(next_due_date);

	CREATE TABLE IF NOT EXISTS payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		loan_id INTEGER NOT NULL REFERENCES loans(id),
		amount REAL NOT NULL,
		payment_method TEXT NOT NULL DEFAULT '',
		transaction_id TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'pending',
		payment_date TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_payments_loan ON payments(loan_id);
	CREATE INDEX IF NOT EXISTS idx_payments_created ON payments(created_at);

	CREATE TABLE IF NOT EXISTS interactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id INTEGER NOT NULL REFERENCES customers(id),
		call_id TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL,
		conversation_log TEXT,
		sentiment_score REAL NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL DEFAULT '',
		call_duration INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_interactions_customer ON interactions(customer_id);
	CREATE INDEX IF NOT EXISTS idx_interactions_created ON interactions(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}
