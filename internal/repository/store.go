package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

// Store is a string key/value persistence layer
type Store interface {
	// Get returns the value stored under key and whether it exists
	Get(ctx context.Context, key string) (string, bool, error)

	// Set inserts or replaces the value stored under key
	Set(ctx context.Context, key, value string) error
}

// LoadJSON decodes the JSON value stored under key into a T.
// A missing key yields def with a nil error. A read failure or corrupt value
// yields def together with the error so callers can log and carry on.
func LoadJSON[T any](ctx context.Context, s Store, key string, def T) (T, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return def, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return def, nil
	}

	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		log.Printf("Ignoring unreadable value for %s: %v", key, err)
		return def, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return value, nil
}

// SaveJSON encodes value as JSON and stores it under key
func SaveJSON[T any](ctx context.Context, s Store, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
