package spawn

import (
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"soundpills/internal/audio"
	"soundpills/internal/config"
	"soundpills/internal/content"
)

// Reason explains a scheduling decision.
type Reason string

const (
	ReasonQuiet          Reason = "quiet"
	ReasonThrottled      Reason = "throttled"
	ReasonCanvasNotReady Reason = "canvas_not_ready"
	ReasonSpawned        Reason = "spawned"
	// ReasonNoContent means a pointer spawn was requested with no pills to show.
	ReasonNoContent Reason = "no_content"
)

// KindMode selects how pills and glyphs are mixed.
type KindMode string

const (
	// KindModeRandom flips a fair coin per entity.
	KindModeRandom KindMode = "random"
	// KindModeAlternate alternates pill, glyph, pill, ...
	KindModeAlternate KindMode = "alternate"
)

// Options tune the scheduler.
type Options struct {
	Sensitivity float64
	Throttle    time.Duration
	BurstCount  int
	Jitter      float64
	KindMode    KindMode
	Glyphs      []string
	Pointer     PointerOptions
}

// PointerOptions tune pointer spawns. They keep their own throttle state.
type PointerOptions struct {
	Throttle time.Duration
	Jitter   float64
	Lifetime time.Duration
}

// OptionsFromConfig maps the spawn config section to scheduler options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Sensitivity: cfg.Spawn.Sensitivity,
		Throttle:    cfg.ThrottleInterval(),
		BurstCount:  cfg.Spawn.BurstCount,
		Jitter:      cfg.Spawn.Jitter,
		KindMode:    KindMode(cfg.Spawn.KindMode),
		Glyphs:      slices.Clone(cfg.Spawn.Glyphs),
		Pointer: PointerOptions{
			Throttle: cfg.PointerThrottleInterval(),
			Jitter:   cfg.Spawn.Pointer.Jitter,
			Lifetime: cfg.PointerLifetime(),
		},
	}
}

// Decision is the outcome of one observation.
type Decision struct {
	Reason   Reason
	Entities []Entity
}

// Scheduler turns loudness samples into bursts of entities.
type Scheduler struct {
	opts   Options
	items  []content.Item
	canvas Canvas
	rng    *rand.Rand

	mu          sync.Mutex
	lastSpawn   time.Time
	hasSpawned  bool
	lastPointer time.Time
	hasPointer  bool
	nextItem    int
	nextPill    bool
}

// NewScheduler builds a scheduler over the usable content items. With no
// items every entity is a glyph.
func NewScheduler(opts Options, items []content.Item, canvas Canvas, rng *rand.Rand) *Scheduler {
	if opts.BurstCount < 1 {
		opts.BurstCount = 1
	}
	if opts.KindMode == "" {
		opts.KindMode = KindModeRandom
	}
	if len(opts.Glyphs) == 0 {
		opts.Glyphs = config.DefaultGlyphs()
	}
	if rng == nil {
		rng = NewRand(0)
	}
	return &Scheduler{
		opts:     opts,
		items:    slices.Clone(items),
		canvas:   canvas,
		rng:      rng,
		nextPill: true,
	}
}

// Observe decides whether sample triggers a spawn. Spawning requires the
// RMS to exceed the sensitivity and the throttle interval to have elapsed
// since the previous spawn. The canvas is read on every spawning decision;
// an unmeasured canvas defers the spawn without consuming the throttle.
func (s *Scheduler) Observe(sample audio.Sample) Decision {
	if sample.RMS <= s.opts.Sensitivity {
		return Decision{Reason: ReasonQuiet}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := sample.At
	if s.hasSpawned && now.Sub(s.lastSpawn) < s.opts.Throttle {
		return Decision{Reason: ReasonThrottled}
	}
	width, height, ok := s.canvas.Bounds()
	if !ok {
		return Decision{Reason: ReasonCanvasNotReady}
	}
	s.lastSpawn = now
	s.hasSpawned = true

	entities := make([]Entity, 0, s.opts.BurstCount)
	for range s.opts.BurstCount {
		base := Position{X: s.rng.Float64() * width, Y: s.rng.Float64() * height}
		e := s.newEntityLocked(now, base, s.nextKindLocked(), s.opts.Jitter)
		e.Loudness = sample.RMS
		entities = append(entities, e)
	}
	return Decision{Reason: ReasonSpawned, Entities: entities}
}

// ObservePointer spawns pills around a pointer position. It skips the
// loudness gate and uses the pointer throttle, jitter and lifetime, so it
// never delays an audio spawn. Without content items nothing spawns.
func (s *Scheduler) ObservePointer(x, y float64, now time.Time) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return Decision{Reason: ReasonNoContent}
	}
	if s.hasPointer && now.Sub(s.lastPointer) < s.opts.Pointer.Throttle {
		return Decision{Reason: ReasonThrottled}
	}
	if _, _, ok := s.canvas.Bounds(); !ok {
		return Decision{Reason: ReasonCanvasNotReady}
	}
	s.lastPointer = now
	s.hasPointer = true

	entities := make([]Entity, 0, s.opts.BurstCount)
	for range s.opts.BurstCount {
		e := s.newEntityLocked(now, Position{X: x, Y: y}, KindPill, s.opts.Pointer.Jitter)
		e.Lifetime = s.opts.Pointer.Lifetime
		entities = append(entities, e)
	}
	return Decision{Reason: ReasonSpawned, Entities: entities}
}

// newEntityLocked draws the ID, then the jitter, then the glyph.
func (s *Scheduler) newEntityLocked(now time.Time, base Position, kind Kind, jitter float64) Entity {
	e := Entity{
		ID:        newID(s.rng),
		Kind:      kind,
		CreatedAt: now,
		Position: Position{
			X: base.X + s.jitterLocked(jitter),
			Y: base.Y + s.jitterLocked(jitter),
		},
	}
	if kind == KindPill {
		item := s.items[s.nextItem%len(s.items)]
		s.nextItem++
		e.Item = &item
	} else {
		e.Glyph = s.opts.Glyphs[s.rng.IntN(len(s.opts.Glyphs))]
	}
	return e
}

func (s *Scheduler) nextKindLocked() Kind {
	if len(s.items) == 0 {
		return KindGlyph
	}
	switch s.opts.KindMode {
	case KindModeAlternate:
		pill := s.nextPill
		s.nextPill = !s.nextPill
		if pill {
			return KindPill
		}
		return KindGlyph
	default:
		if s.rng.IntN(2) == 0 {
			return KindPill
		}
		return KindGlyph
	}
}

// jitterLocked returns an offset uniform in [-jitter/2, +jitter/2).
func (s *Scheduler) jitterLocked(jitter float64) float64 {
	return (s.rng.Float64() - 0.5) * jitter
}

// LastSpawn returns the time of the most recent audio spawn, if any.
func (s *Scheduler) LastSpawn() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSpawn, s.hasSpawned
}

// ItemCount returns the number of usable content items.
func (s *Scheduler) ItemCount() int {
	return len(s.items)
}
