package repository

import (
	"context"
	"database/sql"
	"errors"

	"clubsite/internal/database"
)

// StoreRepository persists key/value pairs in the kv_store table
type StoreRepository struct {
	db *database.DB
}

func NewStoreRepository(db *database.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

// Get retrieves a value by key
func (r *StoreRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	query := `SELECT store_value FROM kv_store WHERE store_key = ?`
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set updates or inserts a value
func (r *StoreRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, r.db.Dialect.UpsertStoreQuery(), key, value)
	return err
}
