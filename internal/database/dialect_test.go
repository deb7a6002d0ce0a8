package database

import (
	"strings"
	"testing"
)

func TestDialectNames(t *testing.T) {
	tests := []struct {
		name       string
		dialect    Dialect
		driver     string
		migrations string
	}{
		{"SQLite", NewSQLiteDialect(), "sqlite3", "sqlite"},
		{"PostgreSQL", NewPostgresDialect(), "postgres", "postgres"},
		{"MySQL", NewMySQLDialect(), "mysql", "mysql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.DriverName(); got != tt.driver {
				t.Errorf("DriverName() = %v, want %v", got, tt.driver)
			}
			if got := tt.dialect.MigrationsSubdir(); got != tt.migrations {
				t.Errorf("MigrationsSubdir() = %v, want %v", got, tt.migrations)
			}
		})
	}
}

func TestDialectDSN(t *testing.T) {
	cfg := DialectConfig{Path: "./club.db", URL: "postgres://club@localhost/club"}

	if got := NewSQLiteDialect().DSN(cfg); got != "./club.db" {
		t.Errorf("SQLite DSN() = %q", got)
	}
	if got := NewPostgresDialect().DSN(cfg); got != cfg.URL {
		t.Errorf("PostgreSQL DSN() = %q", got)
	}
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT store_value FROM kv_store WHERE store_key = ?",
			expected: "SELECT store_value FROM kv_store WHERE store_key = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT store_value FROM kv_store WHERE store_key = ?",
			expected: "SELECT store_value FROM kv_store WHERE store_key = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO kv_store (store_key, store_value) VALUES (?, ?)",
			expected: "INSERT INTO kv_store (store_key, store_value) VALUES ($1, $2)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "INSERT INTO kv_store (store_key, store_value) VALUES (?, ?)",
			expected: "INSERT INTO kv_store (store_key, store_value) VALUES (?, ?)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestUpsertStoreQueryTakesKeyAndValue(t *testing.T) {
	for _, dialect := range []Dialect{NewSQLiteDialect(), NewPostgresDialect(), NewMySQLDialect()} {
		query := dialect.UpsertStoreQuery()
		if n := strings.Count(query, "?"); n != 2 {
			t.Errorf("%s UpsertStoreQuery() has %d placeholders, want 2", dialect.DriverName(), n)
		}
	}
}

func TestEmbeddedMigrationsExistForEveryDialect(t *testing.T) {
	for _, dialect := range []Dialect{NewSQLiteDialect(), NewPostgresDialect(), NewMySQLDialect()} {
		entries, err := migrationFiles.ReadDir("migrations/" + dialect.MigrationsSubdir())
		if err != nil {
			t.Fatalf("ReadDir(%s) error = %v", dialect.MigrationsSubdir(), err)
		}
		if len(entries) == 0 {
			t.Errorf("no migrations for %s", dialect.MigrationsSubdir())
		}
	}
}
