package session

import (
	"time"

	"soundpills/internal/audio"
	"soundpills/internal/content"
	"soundpills/internal/spawn"
)

// Stats summarizes a session for status lines and the headless report.
type Stats struct {
	ID         string
	StartedAt  time.Time
	Elapsed    time.Duration
	Spawned    int64
	Live       int
	Expanded   int
	AudioState audio.State
	AudioErr   error
	ContentErr error
	Title      string
	Items      int
}

// ID returns the session identifier, empty before Start.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Snapshot returns the content loaded at start.
func (s *Session) Snapshot() content.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Live returns the entities currently alive.
func (s *Session) Live() []spawn.Entity {
	return s.store.Live()
}

// Expanded reports whether a pill is expanded.
func (s *Session) Expanded(id string) bool {
	return s.store.Expanded(id)
}

// Toggle flips the expand state of a pill with detail content.
func (s *Session) Toggle(id string) (expanded, ok bool) {
	return s.store.Toggle(id)
}

// Resume arms the sampler after the first user gesture.
func (s *Session) Resume() {
	if sampler := s.currentSampler(); sampler != nil {
		sampler.Resume()
	}
}

// Pointer spawns pills at a pointer position when pointer spawning is
// enabled. It reports whether anything spawned.
func (s *Session) Pointer(x, y float64) bool {
	if !s.cfg.Spawn.PointerSpawn {
		return false
	}
	s.mu.Lock()
	scheduler := s.scheduler
	running := s.running
	s.mu.Unlock()
	if !running || scheduler == nil {
		return false
	}
	decision := scheduler.ObservePointer(x, y, s.clock.Now())
	s.apply(decision)
	return decision.Reason == spawn.ReasonSpawned
}

// Stats returns a point-in-time summary.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	stats := Stats{
		ID:         s.id,
		StartedAt:  s.startedAt,
		Title:      s.snapshot.Title,
		ContentErr: s.snapshot.Err,
	}
	sampler := s.sampler
	scheduler := s.scheduler
	s.mu.Unlock()

	if !stats.StartedAt.IsZero() {
		stats.Elapsed = s.clock.Since(stats.StartedAt)
	}
	stats.Spawned = s.spawned.Load()
	stats.Live = s.store.Len()
	stats.Expanded = s.store.ExpandedCount()
	if sampler != nil {
		stats.AudioState = sampler.State()
		stats.AudioErr = sampler.Err()
	}
	if scheduler != nil {
		stats.Items = scheduler.ItemCount()
	}
	return stats
}

// Degraded reports whether audio or content is disabled.
func (s *Session) Degraded() bool {
	stats := s.Stats()
	return stats.AudioErr != nil || stats.ContentErr != nil
}

func (s *Session) currentSampler() *audio.Sampler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampler
}
