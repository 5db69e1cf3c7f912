package session

import (
	"context"
	"time"

	"soundpills/internal/logging"
)

// statusInterval is how often a headless run logs its progress.
const statusInterval = 10 * time.Second

// RunHeadless starts s with the sampler armed, runs until ctx is done or
// duration elapses (zero runs until ctx is done), stops the session, and
// returns its final stats.
func RunHeadless(ctx context.Context, s *Session, duration time.Duration) (Stats, error) {
	s.autoResume = true
	if err := s.Start(ctx); err != nil {
		return Stats{}, err
	}
	defer s.Stop()

	var deadline <-chan time.Time
	if duration > 0 {
		timer := s.clock.NewTimer(duration)
		defer timer.Stop()
		deadline = timer.Chan()
	}
	status := s.clock.NewTicker(statusInterval)
	defer status.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return s.Stats(), nil
		case <-deadline:
			s.Stop()
			return s.Stats(), nil
		case <-status.Chan():
			stats := s.Stats()
			s.logger.Info("session status",
				logging.String(logging.FieldEventType, "session_status"),
				logging.Int64("spawned", stats.Spawned),
				logging.Int("live", stats.Live),
				logging.String("audio_state", string(stats.AudioState)),
			)
		}
	}
}
