package testsupport

import (
	"context"
	"testing"
	"time"

	"soundpills/internal/config"
	"soundpills/internal/journal"
)

// MustOpenJournal opens the journal for tests and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Store {
	t.Helper()

	store, err := journal.Open(context.Background(), cfg.Journal.Path)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// BeginSession records a running session for tests.
func BeginSession(t testing.TB, store *journal.Store, id string, startedAt time.Time) journal.Session {
	t.Helper()

	session := journal.Session{ID: id, StartedAt: startedAt, ContentTitle: "test", AudioSource: "synthetic"}
	if err := store.BeginSession(context.Background(), session); err != nil {
		t.Fatalf("store.BeginSession: %v", err)
	}
	return session
}
