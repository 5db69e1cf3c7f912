package spawn_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"soundpills/internal/content"
	"soundpills/internal/spawn"
)

func entity(id string, kind spawn.Kind, createdMS int, item *content.Item) spawn.Entity {
	return spawn.Entity{ID: id, Kind: kind, Item: item, CreatedAt: at(createdMS)}
}

func TestPruneRemovesExactlyExpired(t *testing.T) {
	store := spawn.NewStore(5000 * time.Millisecond)
	store.Add(entity("0-aaaaa", spawn.KindGlyph, 1000, nil))

	if expired := store.Prune(at(5999)); len(expired) != 0 || store.Len() != 1 {
		t.Fatalf("entity must survive at 5999ms (expired=%d live=%d)", len(expired), store.Len())
	}
	expired := store.Prune(at(6001))
	if len(expired) != 1 || expired[0].ID != "0-aaaaa" {
		t.Fatalf("expected entity pruned at 6001ms, got %+v", expired)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
}

func TestPruneHonoursEntityLifetime(t *testing.T) {
	store := spawn.NewStore(time.Second)
	pointer := entity("0-aaaaa", spawn.KindPill, 0, &content.Item{Text: "p"})
	pointer.Lifetime = 10 * time.Second
	store.Add(pointer, entity("1-bbbbb", spawn.KindGlyph, 0, nil))

	expired := store.Prune(at(1000))
	if len(expired) != 1 || expired[0].ID != "1-bbbbb" {
		t.Fatalf("expected only the default-lifetime entity expired, got %+v", expired)
	}
	if expired := store.Prune(at(9999)); len(expired) != 0 {
		t.Fatalf("pointer entity expired early: %+v", expired)
	}
	if expired := store.Prune(at(10000)); len(expired) != 1 || expired[0].ID != "0-aaaaa" {
		t.Fatalf("expected pointer entity expired at its own lifetime, got %+v", expired)
	}
}

func TestPruneBoundaryIsInclusive(t *testing.T) {
	store := spawn.NewStore(time.Second)
	store.Add(
		entity("0-aaaaa", spawn.KindGlyph, 0, nil),
		entity("1-bbbbb", spawn.KindGlyph, 500, nil),
	)
	expired := store.Prune(at(1000))
	if len(expired) != 1 || expired[0].ID != "0-aaaaa" {
		t.Fatalf("expected only the first entity expired at exactly its lifetime, got %+v", expired)
	}
	live := store.Live()
	if len(live) != 1 || live[0].ID != "1-bbbbb" {
		t.Fatalf("unexpected live set %+v", live)
	}
	for _, e := range live {
		if at(1000).Sub(e.CreatedAt) >= store.Lifetime() {
			t.Fatalf("live entity %s exceeded lifetime", e.ID)
		}
	}
}

func TestToggleOnlyExpandsPillsWithDetail(t *testing.T) {
	detailed := &content.Item{Text: "more", ExpandedText: "details"}
	plain := &content.Item{Text: "plain"}

	store := spawn.NewStore(time.Second)
	store.Add(
		entity("0-aaaaa", spawn.KindPill, 0, detailed),
		entity("1-bbbbb", spawn.KindPill, 0, plain),
		entity("2-ccccc", spawn.KindGlyph, 0, nil),
	)

	expanded, ok := store.Toggle("0-aaaaa")
	if !ok || !expanded || !store.Expanded("0-aaaaa") {
		t.Fatalf("expected detailed pill to expand (expanded=%v ok=%v)", expanded, ok)
	}
	expanded, ok = store.Toggle("0-aaaaa")
	if !ok || expanded || store.Expanded("0-aaaaa") {
		t.Fatalf("expected second toggle to collapse (expanded=%v ok=%v)", expanded, ok)
	}
	for _, id := range []string{"1-bbbbb", "2-ccccc", "9-zzzzz"} {
		if _, ok := store.Toggle(id); ok {
			t.Fatalf("toggle of %s should be rejected", id)
		}
	}
}

func TestToggleDoesNotExtendLifetime(t *testing.T) {
	store := spawn.NewStore(time.Second)
	store.Add(entity("0-aaaaa", spawn.KindPill, 0, &content.Item{ExpandedImage: "https://i"}))
	if _, ok := store.Toggle("0-aaaaa"); !ok {
		t.Fatal("expected toggle to succeed")
	}
	store.Prune(at(1000))
	if store.Len() != 0 {
		t.Fatal("expanded pill must expire on schedule")
	}
	if store.Expanded("0-aaaaa") || store.ExpandedCount() != 0 {
		t.Fatal("expected pruned id dropped from the expand table")
	}
	if _, ok := store.Toggle("0-aaaaa"); ok {
		t.Fatal("toggle of an expired id must be a no-op")
	}
}

type recordingObserver struct {
	mu      sync.Mutex
	spawned []string
	expired []string
}

func (r *recordingObserver) OnSpawn(e spawn.Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spawned = append(r.spawned, e.ID)
}

func (r *recordingObserver) OnExpire(e spawn.Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expired = append(r.expired, e.ID)
}

func TestObserverSeesLifecycle(t *testing.T) {
	obs := &recordingObserver{}
	store := spawn.NewStore(time.Second)
	store.SetObserver(obs)
	store.Add(entity("0-aaaaa", spawn.KindGlyph, 0, nil), entity("1-bbbbb", spawn.KindGlyph, 600, nil))
	store.Prune(at(1200))

	if len(obs.spawned) != 2 || len(obs.expired) != 1 || obs.expired[0] != "0-aaaaa" {
		t.Fatalf("unexpected observer calls: spawned=%v expired=%v", obs.spawned, obs.expired)
	}
}

// orderObserver fails when an entity expires before its spawn was seen.
type orderObserver struct {
	t       *testing.T
	mu      sync.Mutex
	spawned map[string]bool
	expired int
}

func (o *orderObserver) OnSpawn(e spawn.Entity) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.spawned[e.ID] = true
}

func (o *orderObserver) OnExpire(e spawn.Entity) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.spawned[e.ID] {
		o.t.Errorf("expire of %s observed before its spawn", e.ID)
	}
	o.expired++
}

func TestObserverOrderUnderConcurrentPrune(t *testing.T) {
	obs := &orderObserver{t: t, spawned: map[string]bool{}}
	store := spawn.NewStore(0)
	store.SetObserver(obs)

	const total = 500
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Go(func() {
		defer close(done)
		for i := range total {
			store.Add(entity(fmt.Sprintf("%d-aaaaa", i), spawn.KindGlyph, 0, nil))
		}
	})
	wg.Go(func() {
		for {
			select {
			case <-done:
				return
			default:
				store.Prune(at(1))
			}
		}
	})
	wg.Wait()
	store.Prune(at(1))

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.spawned) != total || obs.expired != total {
		t.Fatalf("expected %d spawns and expiries, got %d and %d", total, len(obs.spawned), obs.expired)
	}
}

func TestLiveReturnsCopy(t *testing.T) {
	store := spawn.NewStore(time.Second)
	store.Add(entity("0-aaaaa", spawn.KindGlyph, 0, nil))
	live := store.Live()
	live[0].ID = "mutated"
	if got, ok := store.Get("0-aaaaa"); !ok || got.ID != "0-aaaaa" {
		t.Fatalf("store contents changed through Live copy: %+v", got)
	}
}

func TestSchedulerAndStoreTogether(t *testing.T) {
	s := newScheduler(spawn.Options{Sensitivity: 1.5, Throttle: 50 * time.Millisecond, BurstCount: 2}, items("a"), canvas)
	store := spawn.NewStore(5 * time.Second)
	for ms := 0; ms < 1000; ms += 16 {
		store.Add(s.Observe(sample(2, ms)).Entities...)
	}
	if store.Len() == 0 {
		t.Fatal("expected spawns")
	}
	store.Prune(at(1000 + 5000))
	if store.Len() != 0 {
		t.Fatalf("expected everything expired, %d left", store.Len())
	}
}
