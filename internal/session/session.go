package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"soundpills/internal/audio"
	"soundpills/internal/config"
	"soundpills/internal/content"
	"soundpills/internal/devicewatch"
	"soundpills/internal/faults"
	"soundpills/internal/journal"
	"soundpills/internal/logging"
	"soundpills/internal/preflight"
	"soundpills/internal/spawn"
)

// ErrAlreadyActive reports that another process holds the capture lock.
var ErrAlreadyActive = errors.New("another soundpills session is already capturing")

// Session coordinates one spawning run.
type Session struct {
	cfg           *config.Config
	baseLogger    *slog.Logger
	logger        *slog.Logger
	clock         clockwork.Clock
	audioSource   audio.Source
	contentSource content.Source
	canvas        spawn.Canvas
	autoResume    bool
	listener      func(spawn.Decision)

	lock      *flock.Flock
	id        string
	startedAt time.Time
	snapshot  content.Snapshot
	sampler   *audio.Sampler
	scheduler *spawn.Scheduler
	store     *spawn.Store
	journal   *journal.Store
	writer    *journal.Writer
	cron      gocron.Scheduler
	watcher   *devicewatch.Watcher

	cancel  context.CancelFunc
	group   *errgroup.Group
	spawned atomic.Int64

	mu       sync.Mutex
	running  bool
	stopping bool
	stopped  bool
}

// New builds a session for cfg. Nothing is acquired until Start.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "session", "new", "config is required", nil)
	}
	s := &Session{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.audioSource == nil {
		s.audioSource = audio.NewSource(cfg, s.clock)
	}
	if s.contentSource == nil {
		s.contentSource = content.NewSource(cfg)
	}
	if s.canvas == nil {
		s.canvas = spawn.FixedCanvas{Width: float64(cfg.Canvas.Width), Height: float64(cfg.Canvas.Height)}
	}
	s.logger = logging.NewComponentLogger(s.baseLogger, "session")
	s.lock = flock.New(cfg.LockPath())
	s.store = spawn.NewStore(cfg.Lifetime())
	return s, nil
}

// Start acquires the capture lock, loads content, opens the audio stream,
// and starts the frame and prune timers. Only lock and setup errors are
// returned; audio and content failures degrade the session instead.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("session already running")
	}
	if s.stopped {
		return errors.New("session already stopped")
	}

	if err := s.cfg.EnsureDirectories(); err != nil {
		return faults.Wrap(faults.ErrConfiguration, "session", "prepare directories", "", err)
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire capture lock: %w", err)
	}
	if !ok {
		return ErrAlreadyActive
	}

	id, err := uuid.NewV7()
	if err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("session id: %w", err)
	}
	s.id = id.String()
	s.startedAt = s.clock.Now()
	ctx = faults.WithSessionID(ctx, s.id)
	ctx = faults.WithAudioSource(ctx, s.audioSource.Name())
	s.logger = logging.WithContext(ctx, logging.NewComponentLogger(s.baseLogger, "session"))

	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)
	s.cancel = cancel
	s.group = group

	s.cleanupLogs()
	s.runPreflight(ctx)

	s.snapshot = content.Load(ctx, s.contentSource, s.logger)
	items := s.snapshot.Usable(s.cfg.Spawn.Sections)
	s.scheduler = spawn.NewScheduler(spawn.OptionsFromConfig(s.cfg), items, s.canvas, spawn.NewRand(s.cfg.Spawn.Seed))

	s.openJournal(ctx, len(items))
	if s.writer != nil {
		s.store.SetObserver(s.writer)
		go s.writer.Run(runCtx)
	}

	s.sampler = audio.NewSampler(s.audioSource, audio.SamplerOptions{
		WindowSize:     s.cfg.Audio.WindowSize,
		RequireGesture: s.cfg.Audio.RequireGesture && !s.autoResume,
		Logger:         s.logger,
	})
	if err := s.sampler.Start(runCtx); err != nil {
		s.noteFailure(ctx, err)
	}

	if err := s.startPruning(); err != nil {
		s.teardown()
		s.closeJournal(journal.StatusDegraded, err.Error())
		_ = s.lock.Unlock()
		return err
	}

	s.watcher = devicewatch.New(s.cfg, s.logger, s.onDeviceRemoved)
	if err := s.watcher.Start(groupCtx); err != nil {
		s.logger.Warn("device watcher failed to start", logging.Error(err))
	}

	ticker := s.clock.NewTicker(s.cfg.FrameInterval())
	sampler := s.sampler
	group.Go(func() error {
		defer ticker.Stop()
		sampler.Run(groupCtx, ticker.Chan(), s.observe)
		return nil
	})

	s.running = true
	s.logger.Info("session started",
		logging.String(logging.FieldEventType, "session_started"),
		logging.String("content_title", s.snapshot.Title),
		logging.Int("usable_items", len(items)),
		logging.String("audio_state", string(s.sampler.State())),
		logging.Duration("lifetime", s.cfg.Lifetime()),
		logging.Duration("throttle", s.cfg.ThrottleInterval()),
	)
	return nil
}

// Stop tears the session down: timers, audio stream, device watcher, and
// journal writer, then releases the capture lock. It is idempotent.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.running || s.stopping {
		if !s.running {
			s.stopped = true
		}
		s.mu.Unlock()
		return
	}
	s.stopping = true
	s.mu.Unlock()

	s.teardown()
	status, message := s.outcome()
	s.closeJournal(status, message)
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release capture lock", logging.Error(err))
	}

	s.mu.Lock()
	s.running = false
	s.stopping = false
	s.stopped = true
	s.mu.Unlock()

	s.logger.Info("session stopped",
		logging.String(logging.FieldEventType, "session_stopped"),
		logging.String("status", string(status)),
		logging.Int64("spawned", s.spawned.Load()),
		logging.Duration("elapsed", s.clock.Since(s.startedAt)),
	)
}

// teardown stops every goroutine owned by the session. The journal writer
// closes last so it drains events produced by the final frames.
func (s *Session) teardown() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.cron != nil {
		if err := s.cron.Shutdown(); err != nil {
			s.logger.Warn("prune scheduler shutdown failed", logging.Error(err))
		}
		s.cron = nil
	}
	if s.group != nil {
		_ = s.group.Wait()
		s.group = nil
	}
	s.watcher.Stop()
	if s.sampler != nil {
		if err := s.sampler.Stop(); err != nil {
			s.logger.Warn("failed to release audio stream", logging.Error(err))
		}
	}
	if s.writer != nil {
		s.writer.Close()
		if dropped := s.writer.Dropped(); dropped > 0 {
			s.logger.Info("journal dropped events", logging.Int64("dropped", dropped))
		}
	}
}

func (s *Session) closeJournal(status journal.Status, message string) {
	if s.journal == nil {
		return
	}
	if err := s.journal.EndSession(context.Background(), s.id, status, message, s.clock.Now()); err != nil {
		s.logger.Warn("failed to record session end", logging.Error(err))
	}
	if err := s.journal.Close(); err != nil {
		s.logger.Warn("failed to close journal", logging.Error(err))
	}
	s.journal = nil
}

func (s *Session) startPruning() error {
	cron, err := gocron.NewScheduler(gocron.WithClock(s.clock))
	if err != nil {
		return fmt.Errorf("create prune scheduler: %w", err)
	}
	if _, err := cron.NewJob(
		gocron.DurationJob(s.cfg.PruneInterval()),
		gocron.NewTask(s.pruneTick),
		gocron.WithName("prune"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		_ = cron.Shutdown()
		return fmt.Errorf("register prune job: %w", err)
	}
	cron.Start()
	s.cron = cron
	return nil
}

// pruneTick runs on the prune cadence. Besides expiring entities it notices
// a capture process that died on its own.
func (s *Session) pruneTick() {
	s.Prune(s.clock.Now())

	if alive, ok := s.audioSource.(interface{ Alive() bool }); ok && s.sampler.State() == audio.StateRunning && !alive.Alive() {
		s.sampler.Disable(faults.Wrap(faults.ErrDeviceUnavailable, "audio", "capture", "capture process exited", nil))
	}
}

// Prune expires entities at now and returns them.
func (s *Session) Prune(now time.Time) []spawn.Entity {
	expired := s.store.Prune(now)
	if len(expired) > 0 {
		s.logger.Debug("entities expired", logging.Int("count", len(expired)), logging.Int("live", s.store.Len()))
	}
	return expired
}

func (s *Session) observe(sample audio.Sample) {
	s.apply(s.scheduler.Observe(sample))
}

func (s *Session) apply(decision spawn.Decision) {
	if decision.Reason != spawn.ReasonSpawned {
		return
	}
	s.store.Add(decision.Entities...)
	s.spawned.Add(int64(len(decision.Entities)))
	if s.logger.Enabled(context.Background(), slog.LevelDebug) {
		for _, e := range decision.Entities {
			s.logger.Debug("entity spawned",
				logging.String(logging.FieldEntityID, e.ID),
				logging.String("kind", string(e.Kind)),
				logging.String("label", e.Label()),
			)
		}
	}
	if s.listener != nil {
		s.listener(decision)
	}
}

func (s *Session) onDeviceRemoved(r devicewatch.Removal) {
	err := faults.Wrap(faults.ErrDeviceUnavailable, "audio", "capture", r.Card+" removed", nil)
	s.sampler.Disable(err)
	s.noteFailure(context.Background(), err)
}

func (s *Session) openJournal(ctx context.Context, itemCount int) {
	if !s.cfg.Journal.Enabled {
		return
	}
	store, err := journal.Open(ctx, s.cfg.Journal.Path)
	if err != nil {
		logging.WarnWithContext(s.logger, "journal unavailable", "journal_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check journal.path permissions or set journal.enabled = false"),
			logging.String(logging.FieldImpact, "session history not recorded"),
		)
		return
	}
	if n, err := store.MarkInterrupted(ctx); err != nil {
		s.logger.Warn("failed to close stale sessions", logging.Error(err))
	} else if n > 0 {
		s.logger.Info("marked stale sessions interrupted", logging.Int64("count", n))
	}
	record := journal.Session{
		ID:           s.id,
		StartedAt:    s.startedAt,
		ContentTitle: s.snapshot.Title,
		ItemCount:    itemCount,
		AudioSource:  s.audioSource.Name(),
		Seed:         s.cfg.Spawn.Seed,
	}
	if s.snapshot.Err != nil {
		record.ErrorMessage = s.snapshot.Err.Error()
	}
	if err := store.BeginSession(ctx, record); err != nil {
		s.logger.Warn("failed to record session start", logging.Error(err))
		_ = store.Close()
		return
	}
	s.journal = store
	s.writer = journal.NewWriter(store, s.id, s.cfg.Journal.BufferSize, s.clock, s.logger)
}

func (s *Session) noteFailure(ctx context.Context, err error) {
	if s.journal == nil || err == nil {
		return
	}
	if jerr := s.journal.NoteFailure(ctx, s.id, err.Error()); jerr != nil {
		s.logger.Warn("failed to record session failure", logging.Error(jerr))
	}
}

func (s *Session) outcome() (journal.Status, string) {
	var errs []error
	if s.snapshot.Err != nil {
		errs = append(errs, s.snapshot.Err)
	}
	if s.sampler != nil {
		if err := s.sampler.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return journal.StatusCompleted, ""
	}
	return journal.StatusDegraded, errors.Join(errs...).Error()
}

func (s *Session) cleanupLogs() {
	removed := logging.CleanupOldLogs(s.logger, s.cfg.Logging.RetentionDays, s.clock.Now(), logging.RetentionTarget{
		Dir:     s.cfg.Paths.LogDir,
		Pattern: "*.log*",
		Exclude: []string{logging.LogPath(s.cfg)},
	})
	if removed > 0 {
		s.logger.Info("removed old log files", logging.Int("count", removed))
	}
}

func (s *Session) runPreflight(ctx context.Context) {
	for _, result := range preflight.Failed(preflight.RunCapture(ctx, s.cfg)) {
		logging.WarnWithContext(s.logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run soundpills check for details"),
			logging.String(logging.FieldImpact, "session continues; the affected feature may be disabled"),
		)
	}
}
