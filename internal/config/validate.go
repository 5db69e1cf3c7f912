package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateSpawn(); err != nil {
		return err
	}
	if err := c.validateCanvas(); err != nil {
		return err
	}
	if err := c.validateContent(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAudio() error {
	switch c.Audio.Source {
	case "ffmpeg":
		switch c.Audio.Format {
		case "pulse", "alsa":
		default:
			return fmt.Errorf("audio.format: unsupported value %q (use pulse or alsa)", c.Audio.Format)
		}
	case "wav":
		if strings.TrimSpace(c.Audio.WAVPath) == "" {
			return errors.New("audio.wav_path must be set when audio.source is wav")
		}
	case "synthetic":
	default:
		return fmt.Errorf("audio.source: unsupported value %q (use ffmpeg, wav, or synthetic)", c.Audio.Source)
	}
	if c.Audio.FrameRate > 240 {
		return errors.New("audio.frame_rate must be at most 240")
	}
	return ensurePositiveMap(map[string]int{
		"audio.sample_rate": c.Audio.SampleRate,
		"audio.window_size": c.Audio.WindowSize,
		"audio.frame_rate":  c.Audio.FrameRate,
	})
}

func (c *Config) validateSpawn() error {
	if c.Spawn.Sensitivity < 0 {
		return errors.New("spawn.sensitivity must be >= 0")
	}
	if c.Spawn.ThrottleMS < 0 {
		return errors.New("spawn.throttle_ms must be >= 0")
	}
	if c.Spawn.BurstCount < 1 {
		return errors.New("spawn.burst_count must be >= 1")
	}
	if c.Spawn.Jitter < 0 {
		return errors.New("spawn.jitter must be >= 0")
	}
	if c.Spawn.LifetimeMS <= 0 {
		return errors.New("spawn.lifetime_ms must be positive")
	}
	if c.Spawn.PruneIntervalMS <= 0 {
		return errors.New("spawn.prune_interval_ms must be positive")
	}
	switch c.Spawn.KindMode {
	case "random", "alternate":
	default:
		return fmt.Errorf("spawn.kind_mode: unsupported value %q (use random or alternate)", c.Spawn.KindMode)
	}
	if len(c.Spawn.Glyphs) == 0 {
		return errors.New("spawn.glyphs must include at least one glyph")
	}
	if c.Spawn.Pointer.ThrottleMS < 0 {
		return errors.New("spawn.pointer.throttle_ms must be >= 0")
	}
	if c.Spawn.Pointer.Jitter < 0 {
		return errors.New("spawn.pointer.jitter must be >= 0")
	}
	if c.Spawn.Pointer.LifetimeMS <= 0 {
		return errors.New("spawn.pointer.lifetime_ms must be positive")
	}
	return nil
}

func (c *Config) validateCanvas() error {
	return ensurePositiveMap(map[string]int{
		"canvas.width":  c.Canvas.Width,
		"canvas.height": c.Canvas.Height,
	})
}

func (c *Config) validateContent() error {
	if c.Content.Path != "" && c.Content.URL != "" {
		return errors.New("content.path and content.url are mutually exclusive")
	}
	if c.Content.URL != "" && !strings.HasPrefix(c.Content.URL, "http://") && !strings.HasPrefix(c.Content.URL, "https://") {
		return fmt.Errorf("content.url must be an http(s) URL, got %q", c.Content.URL)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
