package session

import (
	"log/slog"

	"github.com/jonboulle/clockwork"

	"soundpills/internal/audio"
	"soundpills/internal/content"
	"soundpills/internal/spawn"
)

// Option customizes a Session.
type Option func(*Session)

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.baseLogger = logger }
}

// WithClock injects the clock that drives frames, pruning, and timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Session) { s.clock = clock }
}

// WithAudioSource replaces the capture backend selected by config.
func WithAudioSource(src audio.Source) Option {
	return func(s *Session) { s.audioSource = src }
}

// WithContentSource replaces the content source selected by config.
func WithContentSource(src content.Source) Option {
	return func(s *Session) { s.contentSource = src }
}

// WithCanvas sets the drawable surface. Headless sessions default to the
// configured virtual canvas.
func WithCanvas(canvas spawn.Canvas) Option {
	return func(s *Session) { s.canvas = canvas }
}

// WithAutoResume arms the sampler at start, for hosts with no user gesture.
func WithAutoResume() Option {
	return func(s *Session) { s.autoResume = true }
}

// WithListener registers a callback invoked after each spawn decision that
// produced entities. It runs on the frame goroutine and must not block.
func WithListener(fn func(spawn.Decision)) Option {
	return func(s *Session) { s.listener = fn }
}
