package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"clubsite/internal/database"
	"clubsite/internal/models"
)

type failingStore struct{}

func (failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("disk unavailable")
}

func (failingStore) Set(ctx context.Context, key, value string) error {
	return errors.New("disk unavailable")
}

func TestLoadJSONMissingKeyReturnsDefault(t *testing.T) {
	store := NewMemoryStore()
	def := models.DefaultNews()

	got, err := LoadJSON(context.Background(), store, models.CollectionNews.StoreKey(), def)
	if err != nil {
		t.Fatalf("LoadJSON() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "welcome" {
		t.Errorf("LoadJSON() = %+v, want default news", got)
	}
}

func TestLoadJSONCorruptValueReturnsDefaultAndError(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := models.CollectionMembers.StoreKey()
	store.Set(ctx, key, "{not json")

	got, err := LoadJSON(ctx, store, key, []models.Member{})
	if err == nil {
		t.Fatal("LoadJSON() expected error for corrupt value")
	}
	if got == nil || len(got) != 0 {
		t.Errorf("LoadJSON() = %v, want empty default", got)
	}
}

func TestLoadJSONReadFailure(t *testing.T) {
	got, err := LoadJSON(context.Background(), failingStore{}, "sspl_logo", "default")
	if err == nil {
		t.Fatal("LoadJSON() expected error")
	}
	if got != "default" {
		t.Errorf("LoadJSON() = %q, want default", got)
	}
}

func TestSaveJSONRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	events := []models.CalendarEvent{
		{ID: "e1", Title: "Tournoi", Date: "2024-10-05", Description: "Gymnase"},
		{ID: "e2", Title: "Cross", Date: "2024-11-12", Description: "Parc"},
	}

	if err := SaveJSON(ctx, store, models.CollectionEvents.StoreKey(), events); err != nil {
		t.Fatalf("SaveJSON() error = %v", err)
	}

	got, err := LoadJSON(ctx, store, models.CollectionEvents.StoreKey(), []models.CalendarEvent(nil))
	if err != nil {
		t.Fatalf("LoadJSON() error = %v", err)
	}
	if len(got) != 2 || got[0] != events[0] || got[1] != events[1] {
		t.Errorf("LoadJSON() = %+v, want %+v", got, events)
	}
}

func TestSaveJSONPropagatesStoreError(t *testing.T) {
	if err := SaveJSON(context.Background(), failingStore{}, "sspl_logo", "x"); err == nil {
		t.Fatal("SaveJSON() expected error")
	}
}

func TestStoreRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.RunMigrations(ctx); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	repo := NewStoreRepository(db)

	if _, ok, err := repo.Get(ctx, "sspl_members"); err != nil || ok {
		t.Fatalf("Get() on empty store = ok %v, err %v", ok, err)
	}

	if err := repo.Set(ctx, "sspl_members", "[]"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set(ctx, "sspl_members", `[{"id":"1"}]`); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	if err := repo.Set(ctx, "sspl_cta_text", "Go"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, ok, err := repo.Get(ctx, "sspl_members")
	if err != nil || !ok {
		t.Fatalf("Get() = ok %v, err %v", ok, err)
	}
	if value != `[{"id":"1"}]` {
		t.Errorf("Get() = %q", value)
	}

	keys := storedKeys(t, repo)
	if len(keys) != 2 || keys[0] != "sspl_cta_text" || keys[1] != "sspl_members" {
		t.Errorf("stored keys = %v", keys)
	}
}

// storedKeys lists every key in the kv_store table, sorted
func storedKeys(t *testing.T, repo *StoreRepository) []string {
	t.Helper()
	rows, err := repo.db.QueryContext(context.Background(), `SELECT store_key FROM kv_store ORDER BY store_key`)
	if err != nil {
		t.Fatalf("query keys: %v", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			t.Fatalf("scan key: %v", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterate keys: %v", err)
	}
	return keys
}
