package journal_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/goleak"

	"soundpills/internal/journal"
	"soundpills/internal/logging"
	"soundpills/internal/spawn"
	"soundpills/internal/testsupport"
)

func TestWriterPersistsStoreEvents(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testsupport.NewConfig(t)
	store, err := journal.Open(context.Background(), cfg.Journal.Path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	testsupport.BeginSession(t, store, "s1", t0)

	clock := clockwork.NewFakeClockAt(t0.Add(time.Minute))
	writer := journal.NewWriter(store, "s1", 16, clock, logging.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go writer.Run(ctx)

	entities := spawn.NewStore(time.Second)
	entities.SetObserver(writer)
	entities.Add(spawnEntity("0-aaaaa", spawn.KindPill, 0, 3), spawnEntity("1-bbbbb", spawn.KindGlyph, 10, 3))
	entities.Prune(t0.Add(2 * time.Second))

	cancel()
	writer.Close()

	spawns, err := store.ListSpawns(context.Background(), "s1", 0)
	if err != nil {
		t.Fatalf("ListSpawns: %v", err)
	}
	if len(spawns) != 2 {
		t.Fatalf("expected 2 spawns, got %d", len(spawns))
	}
	for _, sp := range spawns {
		if !sp.ExpiredAt.Equal(t0.Add(time.Minute)) {
			t.Fatalf("expected expiry stamped from clock, got %v", sp.ExpiredAt)
		}
	}
	if writer.Written() != 2 || writer.Dropped() != 0 {
		t.Fatalf("unexpected counters written=%d dropped=%d", writer.Written(), writer.Dropped())
	}

	// Events after Close are ignored.
	writer.OnSpawn(spawnEntity("2-ccccc", spawn.KindGlyph, 20, 3))
}

func TestWriterDropsOnOverflow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	testsupport.BeginSession(t, store, "s1", t0)

	writer := journal.NewWriter(store, "s1", 2, nil, logging.NewNop())
	for i := range 5 {
		writer.OnSpawn(spawnEntity(string(rune('a'+i))+"-xxxxx", spawn.KindGlyph, i, 1))
	}
	if writer.Dropped() != 3 {
		t.Fatalf("expected 3 dropped events before Run, got %d", writer.Dropped())
	}
	go writer.Run(context.Background())
	writer.Close()
	if writer.Written() != 2 {
		t.Fatalf("expected buffered events written, got %d", writer.Written())
	}
}
