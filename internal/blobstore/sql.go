package blobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLStore keeps each key as one row of the blobs table. A save is a single
// upsert statement, so a row is always either the old or the new collection.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Save(ctx context.Context, key string, v any) error {
	if err := validateKey(key); err != nil {
		return err
	}
	data, err := encode(key, v)
	if err != nil {
		return err
	}

	query := s.db.Rebind(`INSERT INTO blobs (name, value, updated_at) VALUES (?, ?, ?)
	          ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)

	_, err = s.db.ExecContext(ctx, query, key, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Retrieve(ctx context.Context, key string, dst any) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	var value string
	query := s.db.Rebind(`SELECT value FROM blobs WHERE name = ?`)
	err := s.db.GetContext(ctx, &value, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}

	if err := decode(key, []byte(value), dst); err != nil {
		return false, err
	}
	return true, nil
}
