package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrDocumentNotFound = errors.New("document not found")

// Fixed document keys. Values are UTF-8 JSON.
const (
	KeyChallenges     = "fitchallenge_challenges"
	KeyUserChallenges = "fitchallenge_user_challenges"
	KeyUsers          = "fitchallenge_users"
	KeySessions       = "fitchallenge_sessions"
	KeyConnections    = "fitchallenge_connections"
)

// DocumentStore is a key/value store of JSON documents. Get returns
// ErrDocumentNotFound for a key that was never set.
type DocumentStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
}

type SQLiteDocumentStore struct {
	queue *DBQueue
}

func NewSQLiteDocumentStore(queue *DBQueue) *SQLiteDocumentStore {
	return &SQLiteDocumentStore{queue: queue}
}

func (s *SQLiteDocumentStore) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := s.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		var value string
		err := db.QueryRowContext(ctx, `SELECT value FROM documents WHERE key = ?`, key).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return value, err
	})
	if err != nil {
		return nil, err
	}
	return []byte(result.(string)), nil
}

func (s *SQLiteDocumentStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		_, err := db.ExecContext(ctx, `
			INSERT INTO documents (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, string(value))
		return nil, err
	})
	return err
}

func (s *SQLiteDocumentStore) Ping(ctx context.Context) error {
	_, err := s.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		return nil, db.PingContext(ctx)
	})
	return err
}

// getJSON decodes the document at key into v. It reports false when the key
// does not exist, leaving v untouched.
func getJSON(ctx context.Context, store DocumentStore, key string, v interface{}) (bool, error) {
	data, err := store.Get(ctx, key)
	if errors.Is(err, ErrDocumentNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if len(data) == 0 || string(data) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func setJSON(ctx context.Context, store DocumentStore, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
