package session_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/goleak"

	"soundpills/internal/audio"
	"soundpills/internal/config"
	"soundpills/internal/faults"
	"soundpills/internal/journal"
	"soundpills/internal/logging"
	"soundpills/internal/session"
	"soundpills/internal/spawn"
	"soundpills/internal/testsupport"
)

var start = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func loud() []byte  { return audio.Constant(512, 200) }
func quiet() []byte { return audio.Constant(512, 128) }

func newSession(t *testing.T, cfg *config.Config, clock clockwork.Clock, src audio.Source, opts ...session.Option) *session.Session {
	t.Helper()
	opts = append([]session.Option{
		session.WithClock(clock),
		session.WithAudioSource(src),
		session.WithLogger(logging.NewNop()),
	}, opts...)
	s, err := session.New(cfg, opts...)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	return s
}

func readJournal(t *testing.T, cfg *config.Config, id string) (journal.Session, []journal.Spawn) {
	t.Helper()
	ctx := context.Background()
	store, err := journal.Open(ctx, cfg.Journal.Path)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	defer store.Close()
	record, err := store.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	spawns, err := store.ListSpawns(ctx, id, 0)
	if err != nil {
		t.Fatalf("ListSpawns: %v", err)
	}
	return record, spawns
}

func TestLoudAudioSpawnsAndStopLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testsupport.NewConfig(t)
	clock := clockwork.NewFakeClockAt(start)
	s := newSession(t, cfg, clock, audio.NewBufferSource(loud()))

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	eventually(t, func() bool {
		clock.Advance(cfg.FrameInterval())
		return s.Stats().Spawned > 0
	})
	s.Stop()
	s.Stop()

	stats := s.Stats()
	if stats.AudioState != audio.StateStopped {
		t.Fatalf("expected stopped sampler, got %s", stats.AudioState)
	}
	record, spawns := readJournal(t, cfg, s.ID())
	if record.Status != journal.StatusCompleted {
		t.Fatalf("expected completed session, got %s (%s)", record.Status, record.ErrorMessage)
	}
	if int64(len(spawns)) != stats.Spawned {
		t.Fatalf("journal recorded %d spawns, session counted %d", len(spawns), stats.Spawned)
	}
	for _, sp := range spawns {
		if sp.Kind != string(spawn.KindGlyph) {
			t.Fatalf("expected glyph-only spawns without content, got %+v", sp)
		}
	}
}

func TestDeniedAudioKeepsSessionRunningWithoutSpawns(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testsupport.NewConfig(t)
	clock := clockwork.NewFakeClockAt(start)
	src := audio.NewBufferSource(loud())
	src.OpenErr = faults.Wrap(faults.ErrPermissionDenied, "audio", "open", "microphone", nil)
	s := newSession(t, cfg, clock, src)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start must not fail on audio denial: %v", err)
	}
	for range 20 {
		clock.Advance(cfg.FrameInterval())
	}
	stats := s.Stats()
	if stats.Spawned != 0 {
		t.Fatalf("expected no spawns, got %d", stats.Spawned)
	}
	if stats.AudioState != audio.StateFailed || !errors.Is(stats.AudioErr, faults.ErrPermissionDenied) {
		t.Fatalf("unexpected audio state %s (%v)", stats.AudioState, stats.AudioErr)
	}
	if !s.Degraded() {
		t.Fatal("expected degraded session")
	}
	s.Stop()

	record, _ := readJournal(t, cfg, s.ID())
	if record.Status != journal.StatusDegraded {
		t.Fatalf("expected degraded status, got %s", record.Status)
	}
	if !strings.Contains(record.ErrorMessage, "permission denied") {
		t.Fatalf("expected failure recorded, got %q", record.ErrorMessage)
	}
}

func TestCaptureLockIsExclusive(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testsupport.NewConfig(t, testsupport.WithoutJournal())
	clock := clockwork.NewFakeClockAt(start)
	first := newSession(t, cfg, clock, audio.NewBufferSource(quiet()))
	second := newSession(t, cfg, clock, audio.NewBufferSource(quiet()))

	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := second.Start(context.Background()); !errors.Is(err, session.ErrAlreadyActive) {
		t.Fatalf("expected ErrAlreadyActive, got %v", err)
	}
	first.Stop()

	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("second Start after release: %v", err)
	}
	second.Stop()
}

func TestEntitiesExpireOnPruneCadence(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testsupport.NewConfig(t)
	clock := clockwork.NewFakeClockAt(start)
	src := audio.NewBufferSource(loud())
	s := newSession(t, cfg, clock, src)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	eventually(t, func() bool {
		clock.Advance(cfg.FrameInterval())
		return len(s.Live()) > 0
	})
	src.Set(quiet())

	eventually(t, func() bool {
		clock.Advance(cfg.PruneInterval())
		return len(s.Live()) == 0
	})
	s.Stop()

	_, spawns := readJournal(t, cfg, s.ID())
	if len(spawns) == 0 {
		t.Fatal("expected recorded spawns")
	}
	for _, sp := range spawns {
		if sp.ExpiredAt.IsZero() {
			t.Fatalf("expected expiry recorded for %s", sp.ID)
		}
		if age := sp.ExpiredAt.Sub(sp.CreatedAt); age < cfg.Lifetime() {
			t.Fatalf("entity %s expired after %v, before its lifetime", sp.ID, age)
		}
	}
}

func TestContentFailureFallsBackToGlyphs(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testsupport.NewConfig(t, testsupport.WithContentPath(filepath.Join(t.TempDir(), "missing.yaml")))
	clock := clockwork.NewFakeClockAt(start)
	s := newSession(t, cfg, clock, audio.NewBufferSource(loud()))

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	snap := s.Snapshot()
	if !errors.Is(snap.Err, faults.ErrContentLoadFailed) || snap.Title != "Error" {
		t.Fatalf("expected failed snapshot, got %+v", snap)
	}
	eventually(t, func() bool {
		clock.Advance(cfg.FrameInterval())
		return s.Stats().Spawned > 0
	})
	for _, e := range s.Live() {
		if e.Kind != spawn.KindGlyph {
			t.Fatalf("expected glyph, got %+v", e)
		}
	}
	s.Stop()

	record, _ := readJournal(t, cfg, s.ID())
	if record.Status != journal.StatusDegraded || record.ContentTitle != "Error" {
		t.Fatalf("unexpected record %+v", record)
	}
}

func TestPointerSpawnAndToggle(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.yaml")
	testsupport.WriteFile(t, path, []byte(testsupport.SnapshotYAML))
	cfg := testsupport.NewConfig(t,
		testsupport.WithContentPath(path),
		testsupport.WithoutJournal(),
		testsupport.WithSpawn(func(sp *config.Spawn) { sp.PointerSpawn = true }),
	)
	clock := clockwork.NewFakeClockAt(start)
	s := newSession(t, cfg, clock, audio.NewBufferSource(quiet()))

	if s.Pointer(10, 10) {
		t.Fatal("pointer must not spawn before Start")
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	if !s.Pointer(100, 50) {
		t.Fatal("expected pointer spawn")
	}
	if s.Pointer(100, 50) {
		t.Fatal("expected throttled pointer spawn")
	}
	clock.Advance(cfg.PointerThrottleInterval())
	if !s.Pointer(200, 80) {
		t.Fatal("expected second pointer spawn after throttle")
	}

	var alpha, beta spawn.Entity
	for _, e := range s.Live() {
		switch e.Label() {
		case "Alpha":
			alpha = e
		case "Beta":
			beta = e
		}
	}
	if alpha.ID == "" || beta.ID == "" {
		t.Fatalf("expected Alpha then Beta pills, got %+v", s.Live())
	}
	if _, ok := s.Toggle(alpha.ID); ok {
		t.Fatal("pill without detail must not toggle")
	}
	if expanded, ok := s.Toggle(beta.ID); !ok || !expanded {
		t.Fatalf("expected Beta to expand, got expanded=%v ok=%v", expanded, ok)
	}
	if !s.Expanded(beta.ID) || s.Stats().Expanded != 1 {
		t.Fatal("expected expand state recorded")
	}
}

func TestGestureGateHoldsSamplingUntilResume(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testsupport.NewConfig(t, testsupport.WithoutJournal())
	cfg.Audio.RequireGesture = true
	clock := clockwork.NewFakeClockAt(start)
	s := newSession(t, cfg, clock, audio.NewBufferSource(loud()))

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()
	if state := s.Stats().AudioState; state != audio.StateWaiting {
		t.Fatalf("expected waiting state, got %s", state)
	}
	for range 10 {
		clock.Advance(cfg.FrameInterval())
	}
	if s.Stats().Spawned != 0 {
		t.Fatal("expected no spawns before the first gesture")
	}
	s.Resume()
	eventually(t, func() bool {
		clock.Advance(cfg.FrameInterval())
		return s.Stats().Spawned > 0
	})
}

func TestRunHeadlessStopsAfterDuration(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testsupport.NewConfig(t, testsupport.WithoutJournal())
	cfg.Audio.RequireGesture = true
	clock := clockwork.NewFakeClockAt(start)
	s := newSession(t, cfg, clock, audio.NewBufferSource(loud()))

	type result struct {
		stats session.Stats
		err   error
	}
	done := make(chan result, 1)
	go func() {
		stats, err := session.RunHeadless(context.Background(), s, 2*time.Second)
		done <- result{stats, err}
	}()

	var res result
	eventually(t, func() bool {
		select {
		case res = <-done:
			return true
		default:
			clock.Advance(50 * time.Millisecond)
			return false
		}
	})
	if res.err != nil {
		t.Fatalf("RunHeadless: %v", res.err)
	}
	if res.stats.Spawned == 0 {
		t.Fatal("expected headless run to arm the sampler and spawn")
	}
	if res.stats.AudioState != audio.StateStopped {
		t.Fatalf("expected stopped state, got %s", res.stats.AudioState)
	}
}

func TestNewRequiresConfig(t *testing.T) {
	if _, err := session.New(nil); !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
