package journal

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"soundpills/internal/spawn"
)

// schemaV1 is the first journal schema, where spawn IDs were globally unique.
const schemaV1 = `
CREATE TABLE schema_version (version INTEGER NOT NULL);
CREATE TABLE sessions (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    ended_at TEXT,
    status TEXT NOT NULL,
    content_title TEXT,
    item_count INTEGER NOT NULL DEFAULT 0,
    audio_source TEXT,
    seed INTEGER NOT NULL DEFAULT 0,
    error_message TEXT
);
CREATE TABLE spawns (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    kind TEXT NOT NULL,
    label TEXT NOT NULL,
    section TEXT,
    x REAL NOT NULL,
    y REAL NOT NULL,
    rms REAL NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    expired_at TEXT
);
INSERT INTO schema_version (version) VALUES (1);
`

func writeV1Journal(t *testing.T, path string, started time.Time) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open v1 db: %v", err)
	}
	defer db.Close()
	stamp := formatTime(started)
	for _, stmt := range []string{
		schemaV1,
		`INSERT INTO sessions (id, started_at, status) VALUES ('old', '` + stamp + `', 'completed')`,
		`INSERT INTO spawns (id, session_id, kind, label, x, y, created_at) VALUES ('0-abcde', 'old', 'glyph', 'x', 1, 2, '` + stamp + `')`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed v1 journal: %v", err)
		}
	}
}

func TestOpenMigratesV1Journal(t *testing.T) {
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "journal.db")
	writeV1Journal(t, path, started)

	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	var version int
	if err := store.db.QueryRowContext(ctx, "SELECT version FROM schema_version").Scan(&version); err != nil {
		t.Fatalf("read version: %v", err)
	}
	if version != schemaVersion {
		t.Fatalf("expected version %d after migration, got %d", schemaVersion, version)
	}

	kept, err := store.ListSpawns(ctx, "old", 0)
	if err != nil {
		t.Fatalf("ListSpawns: %v", err)
	}
	if len(kept) != 1 || kept[0].ID != "0-abcde" {
		t.Fatalf("expected migrated spawn, got %+v", kept)
	}

	if err := store.BeginSession(ctx, Session{ID: "new", StartedAt: started.Add(time.Hour)}); err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	reused := spawn.Entity{ID: "0-abcde", Kind: spawn.KindGlyph, Glyph: "x", CreatedAt: started.Add(time.Hour)}
	if err := store.RecordSpawns(ctx, "new", []spawn.Entity{reused}); err != nil {
		t.Fatalf("RecordSpawns after migration: %v", err)
	}
}

func TestOpenRejectsNewerJournal(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.db.ExecContext(ctx, "UPDATE schema_version SET version = ?", schemaVersion+1); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	store.Close()

	if _, err := Open(ctx, path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
