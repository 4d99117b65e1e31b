package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS user_records (
	email      TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// SQLiteStore keeps one row per user with the snapshot as a JSON
// payload. A single table is all the key-value contract needs.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLiteStore(databaseURL string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context, email string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM user_records WHERE email = ?`, userKey(email))

	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return normalizeSnapshot(Snapshot{}), nil
		}
		return Snapshot{}, err
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return Snapshot{}, err
	}
	return normalizeSnapshot(snap), nil
}

func (s *SQLiteStore) Save(ctx context.Context, email string, snap Snapshot) error {
	payload, err := json.Marshal(normalizeSnapshot(snap))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_records (email, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		userKey(email), string(payload), time.Now().UTC())
	return err
}

func (s *SQLiteStore) Clear(ctx context.Context, email string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM user_records WHERE email = ?`, userKey(email))
	return err
}
