package audio

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"soundpills/internal/config"
	"soundpills/internal/logging"
)

// ErrStopped is returned by Start once the sampler has been stopped.
var ErrStopped = errors.New("sampler stopped")

// Sample is one loudness measurement.
type Sample struct {
	RMS float64
	At  time.Time
}

// State describes the sampler lifecycle.
type State string

const (
	StateIdle    State = "idle"
	StateWaiting State = "waiting_for_gesture"
	StateRunning State = "running"
	StateFailed  State = "failed"
	StateStopped State = "stopped"
)

// SamplerOptions configures a Sampler.
type SamplerOptions struct {
	WindowSize int
	// RequireGesture keeps the sampler inert until Resume is called.
	RequireGesture bool
	Logger         *slog.Logger
}

// Sampler computes loudness from a Source once per animation frame.
type Sampler struct {
	src    Source
	opts   SamplerOptions
	logger *slog.Logger
	levels *logging.LevelSampler

	mu      sync.Mutex
	buf     []byte
	opening bool
	opened  bool
	armed   bool
	stopped bool
	failure error
}

// NewSampler wraps src. The stream is not acquired until Start.
func NewSampler(src Source, opts SamplerOptions) *Sampler {
	if opts.WindowSize <= 0 {
		opts.WindowSize = 512
	}
	return &Sampler{
		src:    src,
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "sampler"),
		levels: logging.NewLevelSampler(5),
		buf:    make([]byte, opts.WindowSize),
		armed:  !opts.RequireGesture,
	}
}

// Start acquires the stream. A failure is terminal: it is recorded, logged
// with its impact, and returned; the sampler then never produces samples.
// A Stop that lands while the stream is opening wins: the stream is closed
// and ErrStopped returned.
func (s *Sampler) Start(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.stopped:
		s.mu.Unlock()
		return ErrStopped
	case s.failure != nil:
		err := s.failure
		s.mu.Unlock()
		return err
	case s.opened:
		s.mu.Unlock()
		return nil
	case s.opening:
		s.mu.Unlock()
		return errors.New("sampler is already starting")
	}
	s.opening = true
	s.mu.Unlock()

	err := s.src.Open(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.opening = false
	if s.stopped {
		if err == nil {
			_ = s.src.Close()
		}
		return ErrStopped
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		s.failure = err
		attrs := append(logging.FailureAttrs(err), logging.String(logging.FieldAudioSource, s.src.Name()))
		logging.WarnWithContext(s.logger, "audio capture unavailable", "audio_acquire_failed", attrs...)
		return err
	}
	s.opened = true
	s.logger.Info("audio capture started",
		logging.String(logging.FieldAudioSource, s.src.Name()),
		logging.Int("window_size", s.opts.WindowSize),
		logging.Bool("awaiting_gesture", !s.armed),
	)
	return nil
}

// Resume arms the sampler. The first call after a user gesture unblocks
// sampling; later calls are no-ops.
func (s *Sampler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.armed {
		return
	}
	s.armed = true
	s.logger.Debug("sampler armed by user gesture")
}

// Disable fails the sampler after acquisition, e.g. when the device vanishes.
func (s *Sampler) Disable(err error) {
	s.mu.Lock()
	if s.failure != nil || s.stopped {
		s.mu.Unlock()
		return
	}
	s.failure = err
	opened := s.opened
	s.opened = false
	s.mu.Unlock()

	if opened {
		_ = s.src.Close()
	}
	attrs := append(logging.FailureAttrs(err), logging.String(logging.FieldAudioSource, s.src.Name()))
	logging.WarnWithContext(s.logger, "audio capture lost", "audio_device_lost", attrs...)
}

// Tick computes one sample at now. It reports false while the sampler is not
// acquired, not armed, failed, or stopped.
func (s *Sampler) Tick(now time.Time) (Sample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened || !s.armed || s.failure != nil || s.stopped {
		return Sample{}, false
	}
	n := s.src.Latest(s.buf)
	rms := RMS(s.buf[:n], s.src.Midpoint())
	if s.levels.ShouldLog(rms, "") {
		s.logger.Debug("loudness", logging.Float64("rms", rms), logging.Int("samples", n))
	}
	return Sample{RMS: rms, At: now}, true
}

// Run emits one sample per tick until ctx is cancelled or ticks closes.
func (s *Sampler) Run(ctx context.Context, ticks <-chan time.Time, emit func(Sample)) {
	for {
		select {
		case <-ctx.Done():
			return
		case now, ok := <-ticks:
			if !ok {
				return
			}
			if sample, ok := s.Tick(now); ok {
				emit(sample)
			}
		}
	}
}

// Stop releases the stream. It is idempotent. Stopping during Start leaves
// the release to Start once the stream has opened.
func (s *Sampler) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	opened := s.opened
	s.opened = false
	s.mu.Unlock()
	if !opened {
		return nil
	}
	return s.src.Close()
}

// Err returns the terminal acquisition failure, if any.
func (s *Sampler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// State reports the lifecycle state.
func (s *Sampler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.failure != nil:
		return StateFailed
	case s.stopped:
		return StateStopped
	case !s.opened:
		return StateIdle
	case !s.armed:
		return StateWaiting
	default:
		return StateRunning
	}
}

// SourceName returns the backend name.
func (s *Sampler) SourceName() string {
	return s.src.Name()
}

// NewSource builds the capture backend selected by cfg.
func NewSource(cfg *config.Config, clock clockwork.Clock) Source {
	switch cfg.Audio.Source {
	case "wav":
		return NewWAVSource(cfg.Audio.WAVPath, clock)
	case "synthetic":
		return NewSyntheticSource(SyntheticConfig{SampleRate: cfg.Audio.SampleRate}, clock)
	default:
		return NewFFmpegSource(FFmpegConfig{
			Binary:     cfg.Audio.FFmpegBinary,
			Format:     cfg.Audio.Format,
			Device:     cfg.Audio.Device,
			SampleRate: cfg.Audio.SampleRate,
			WindowSize: cfg.Audio.WindowSize,
		})
	}
}
