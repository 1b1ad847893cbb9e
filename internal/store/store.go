// Package store reads and writes SQLite question-bank files.
//
// A bank file keeps each question record as raw JSON text so that the bank
// loader validates packed banks exactly like JSON and YAML ones.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Each :memory: connection is a separate database.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bank_records (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS exam_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ReplaceRecords swaps the stored bank for records, in order, in one transaction.
func (s *Store) ReplaceRecords(records []json.RawMessage) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM bank_records`); err != nil {
		return err
	}
	for i, rec := range records {
		if _, err := tx.Exec(`INSERT INTO bank_records (data) VALUES (?)`, string(rec)); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// ListRecords returns the stored records in insertion order.
func (s *Store) ListRecords() ([]json.RawMessage, error) {
	rows, err := s.db.Query(`SELECT data FROM bank_records ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []json.RawMessage
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		records = append(records, json.RawMessage(data))
	}
	return records, rows.Err()
}

// RecordCount returns the number of stored records.
func (s *Store) RecordCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM bank_records`).Scan(&count)
	return count, err
}
