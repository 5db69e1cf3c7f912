package spawn

import (
	"sync"
	"time"
)

// Observer is notified of entity lifecycle changes. Callbacks run under the
// store lock, so an entity's OnSpawn always precedes its OnExpire; they must
// not block or call back into the store.
type Observer interface {
	OnSpawn(Entity)
	OnExpire(Entity)
}

// Store holds the live entities and the expanded-pill side table.
type Store struct {
	lifetime time.Duration

	mu       sync.Mutex
	live     []Entity
	expanded map[string]bool
	observer Observer
}

// NewStore builds a store whose entities live for lifetime.
func NewStore(lifetime time.Duration) *Store {
	return &Store{lifetime: lifetime, expanded: make(map[string]bool)}
}

// SetObserver installs the lifecycle observer. Pass nil to remove it.
func (s *Store) SetObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = o
}

// Lifetime returns the default entity lifetime.
func (s *Store) Lifetime() time.Duration {
	return s.lifetime
}

func (s *Store) lifetimeOf(e Entity) time.Duration {
	if e.Lifetime > 0 {
		return e.Lifetime
	}
	return s.lifetime
}

// Add appends entities in spawn order.
func (s *Store) Add(entities ...Entity) {
	if len(entities) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = append(s.live, entities...)
	if s.observer != nil {
		for _, e := range entities {
			s.observer.OnSpawn(e)
		}
	}
}

// Prune removes exactly the entities with now - CreatedAt >= lifetime and
// returns them. Their expand state is dropped.
func (s *Store) Prune(now time.Time) []Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []Entity
	kept := s.live[:0]
	for _, e := range s.live {
		if now.Sub(e.CreatedAt) >= s.lifetimeOf(e) {
			expired = append(expired, e)
			delete(s.expanded, e.ID)
			continue
		}
		kept = append(kept, e)
	}
	clear(s.live[len(kept):])
	s.live = kept
	if s.observer != nil {
		for _, e := range expired {
			s.observer.OnExpire(e)
		}
	}
	return expired
}

// Live returns a copy of the live entities in spawn order.
func (s *Store) Live() []Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entity, len(s.live))
	copy(out, s.live)
	return out
}

// Len returns the number of live entities.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Get returns the live entity with id.
func (s *Store) Get(id string) (Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.live {
		if e.ID == id {
			return e, true
		}
	}
	return Entity{}, false
}

// Toggle flips the expand state of a live pill with detail content and
// returns the new state. ok is false for unknown, expired, or non-expandable
// entities. Toggling never changes an entity's lifetime.
func (s *Store) Toggle(id string) (expanded bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.live {
		if e.ID != id {
			continue
		}
		if !e.Expandable() {
			return false, false
		}
		next := !s.expanded[id]
		if next {
			s.expanded[id] = true
		} else {
			delete(s.expanded, id)
		}
		return next, true
	}
	return false, false
}

// Expanded reports whether the pill with id is currently expanded.
func (s *Store) Expanded(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded[id]
}

// ExpandedCount returns the size of the expand side table.
func (s *Store) ExpandedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expanded)
}
