package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/desertthunder/sptx/internal/shared"
)

// newTestDB opens a migrated in-memory database. The pool is pinned to a
// single connection because each sqlite :memory: connection is its own
// database.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestLookupRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips a payload", func(t *testing.T) {
		repo := NewLookupRepository(newTestDB(t), nil)

		if err := repo.Put(ctx, "lastfm", "track_info", "Radiohead", "Creep", []byte(`{"name":"Creep"}`)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		payload, ok, err := repo.Get(ctx, "lastfm", "track_info", "Radiohead", "Creep", time.Hour)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !ok {
			t.Fatal("expected a cache hit")
		}
		if string(payload) != `{"name":"Creep"}` {
			t.Errorf("unexpected payload: %s", payload)
		}
	})

	t.Run("misses on an absent key", func(t *testing.T) {
		repo := NewLookupRepository(newTestDB(t), nil)

		_, ok, err := repo.Get(ctx, "lastfm", "track_info", "Radiohead", "Creep", time.Hour)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if ok {
			t.Error("expected a miss for an absent key")
		}
	})

	t.Run("keys are distinguished by every column", func(t *testing.T) {
		repo := NewLookupRepository(newTestDB(t), nil)

		if err := repo.Put(ctx, "lastfm", "track_info", "Radiohead", "Creep", []byte(`1`)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := repo.Put(ctx, "musicbrainz", "track_info", "Radiohead", "Creep", []byte(`2`)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := repo.Put(ctx, "lastfm", "artist_info", "Radiohead", "", []byte(`3`)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		payload, ok, err := repo.Get(ctx, "musicbrainz", "track_info", "Radiohead", "Creep", 0)
		if err != nil || !ok {
			t.Fatalf("Get failed: ok=%v err=%v", ok, err)
		}
		if string(payload) != "2" {
			t.Errorf("expected payload 2, got %s", payload)
		}
	})

	t.Run("upsert replaces the payload", func(t *testing.T) {
		repo := NewLookupRepository(newTestDB(t), nil)

		if err := repo.Put(ctx, "lastfm", "track_info", "Radiohead", "Creep", []byte(`old`)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := repo.Put(ctx, "lastfm", "track_info", "Radiohead", "Creep", []byte(`new`)); err != nil {
			t.Fatalf("second Put failed: %v", err)
		}

		payload, ok, err := repo.Get(ctx, "lastfm", "track_info", "Radiohead", "Creep", time.Hour)
		if err != nil || !ok {
			t.Fatalf("Get failed: ok=%v err=%v", ok, err)
		}
		if string(payload) != "new" {
			t.Errorf("expected replaced payload, got %s", payload)
		}
	})

	t.Run("stale entries read as misses", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewLookupRepository(db, nil)

		if err := repo.Put(ctx, "lastfm", "track_info", "Radiohead", "Creep", []byte(`stale`)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if _, err := db.Exec(`UPDATE lookups SET created_at = ?`, time.Now().UTC().Add(-48*time.Hour)); err != nil {
			t.Fatalf("failed to backdate entry: %v", err)
		}

		_, ok, err := repo.Get(ctx, "lastfm", "track_info", "Radiohead", "Creep", 24*time.Hour)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if ok {
			t.Error("expected a miss for a stale entry")
		}

		// maxAge <= 0 disables the age check entirely.
		payload, ok, err := repo.Get(ctx, "lastfm", "track_info", "Radiohead", "Creep", 0)
		if err != nil || !ok {
			t.Fatalf("Get with no age limit failed: ok=%v err=%v", ok, err)
		}
		if string(payload) != "stale" {
			t.Errorf("unexpected payload: %s", payload)
		}
	})

	t.Run("prune removes old entries only", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewLookupRepository(db, nil)

		if err := repo.Put(ctx, "lastfm", "track_info", "Radiohead", "Creep", []byte(`old`)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if _, err := db.Exec(`UPDATE lookups SET created_at = ?`, time.Now().UTC().Add(-48*time.Hour)); err != nil {
			t.Fatalf("failed to backdate entry: %v", err)
		}
		if err := repo.Put(ctx, "lastfm", "track_info", "Radiohead", "Karma Police", []byte(`fresh`)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		removed, err := repo.Prune(ctx, 24*time.Hour)
		if err != nil {
			t.Fatalf("Prune failed: %v", err)
		}
		if removed != 1 {
			t.Errorf("expected 1 pruned entry, got %d", removed)
		}

		_, ok, err := repo.Get(ctx, "lastfm", "track_info", "Radiohead", "Karma Police", 0)
		if err != nil || !ok {
			t.Fatalf("expected fresh entry to survive: ok=%v err=%v", ok, err)
		}
	})
}
