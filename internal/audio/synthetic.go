package audio

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// SyntheticConfig shapes the generated tone bursts.
type SyntheticConfig struct {
	SampleRate int
	// Period is the length of one loud+quiet cycle.
	Period time.Duration
	// Duty is the loud fraction of each period, in (0,1].
	Duty float64
	// Amplitude is the peak deviation from the midpoint, at most 127.
	Amplitude float64
	ToneHz    float64
}

// SyntheticSource generates deterministic tone bursts from the injected
// clock. Silence between bursts sits exactly at the midpoint.
type SyntheticSource struct {
	cfg   SyntheticConfig
	clock clockwork.Clock

	mu    sync.Mutex
	start time.Time
	open  bool
}

// NewSyntheticSource builds a generator. Zero config fields take demo defaults.
func NewSyntheticSource(cfg SyntheticConfig, clock clockwork.Clock) *SyntheticSource {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.Period <= 0 {
		cfg.Period = 2 * time.Second
	}
	if cfg.Duty <= 0 || cfg.Duty > 1 {
		cfg.Duty = 0.5
	}
	if cfg.Amplitude <= 0 {
		cfg.Amplitude = 40
	}
	cfg.Amplitude = math.Min(cfg.Amplitude, 127)
	if cfg.ToneHz <= 0 {
		cfg.ToneHz = 440
	}
	return &SyntheticSource{cfg: cfg, clock: clock}
}

func (s *SyntheticSource) Name() string { return "synthetic" }

func (s *SyntheticSource) Midpoint() float64 { return Midpoint }

func (s *SyntheticSource) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start = s.clock.Now()
	s.open = true
	return nil
}

func (s *SyntheticSource) Latest(dst []byte) int {
	s.mu.Lock()
	open, start := s.open, s.start
	s.mu.Unlock()
	if !open {
		return 0
	}
	end := s.clock.Since(start).Seconds()
	rate := float64(s.cfg.SampleRate)
	period := s.cfg.Period.Seconds()
	for i := range dst {
		t := end - float64(len(dst)-1-i)/rate
		if t < 0 {
			dst[i] = byte(Midpoint)
			continue
		}
		phase := math.Mod(t, period) / period
		if phase >= s.cfg.Duty {
			dst[i] = byte(Midpoint)
			continue
		}
		v := Midpoint + s.cfg.Amplitude*math.Sin(2*math.Pi*s.cfg.ToneHz*t)
		dst[i] = byte(math.Round(math.Max(0, math.Min(255, v))))
	}
	return len(dst)
}

func (s *SyntheticSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	return nil
}
