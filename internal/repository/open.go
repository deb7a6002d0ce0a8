package repository

import (
	"context"
	"fmt"
	"log"
	"strings"

	"clubsite/internal/config"
	"clubsite/internal/database"
)

// OpenStore returns the Store selected by DB_TYPE, migrated and ready.
// The returned close function releases the database connection.
func OpenStore(ctx context.Context, cfg *config.Config) (Store, func() error, error) {
	if strings.EqualFold(cfg.DatabaseType, "memory") {
		log.Println("Using in-memory store: data will not survive a restart")
		return NewMemoryStore(), func() error { return nil }, nil
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return NewStoreRepository(db), db.Close, nil
}
