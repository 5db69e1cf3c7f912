package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeAudio(); err != nil {
		return err
	}
	c.normalizeSpawn()
	if err := c.normalizeContent(); err != nil {
		return err
	}
	if err := c.normalizeJournal(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.StateDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAudio() error {
	c.Audio.Source = strings.ToLower(strings.TrimSpace(c.Audio.Source))
	if c.Audio.Source == "" {
		c.Audio.Source = defaultAudioSource
	}
	c.Audio.Format = strings.ToLower(strings.TrimSpace(c.Audio.Format))
	if c.Audio.Format == "" {
		c.Audio.Format = defaultAudioFormat
	}
	c.Audio.Device = strings.TrimSpace(c.Audio.Device)
	if c.Audio.Device == "" {
		if value, ok := os.LookupEnv("SOUNDPILLS_AUDIO_DEVICE"); ok && strings.TrimSpace(value) != "" {
			c.Audio.Device = strings.TrimSpace(value)
		} else {
			c.Audio.Device = defaultAudioDevice
		}
	}
	c.Audio.FFmpegBinary = strings.TrimSpace(c.Audio.FFmpegBinary)
	if c.Audio.FFmpegBinary == "" {
		c.Audio.FFmpegBinary = defaultFFmpegBinary
	}
	if strings.TrimSpace(c.Audio.WAVPath) != "" {
		var err error
		if c.Audio.WAVPath, err = expandPath(c.Audio.WAVPath); err != nil {
			return fmt.Errorf("audio.wav_path: %w", err)
		}
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = defaultSampleRate
	}
	if c.Audio.WindowSize <= 0 {
		c.Audio.WindowSize = defaultWindowSize
	}
	if c.Audio.FrameRate <= 0 {
		c.Audio.FrameRate = defaultFrameRate
	}
	c.Audio.DeviceCard = strings.TrimSpace(c.Audio.DeviceCard)
	return nil
}

func (c *Config) normalizeSpawn() {
	c.Spawn.KindMode = strings.ToLower(strings.TrimSpace(c.Spawn.KindMode))
	if c.Spawn.KindMode == "" {
		c.Spawn.KindMode = defaultKindMode
	}
	if c.Spawn.PruneIntervalMS <= 0 {
		c.Spawn.PruneIntervalMS = defaultPruneIntervalMS
	}

	glyphs := make([]string, 0, len(c.Spawn.Glyphs))
	for _, glyph := range c.Spawn.Glyphs {
		if trimmed := strings.TrimSpace(glyph); trimmed != "" {
			glyphs = append(glyphs, trimmed)
		}
	}
	if len(glyphs) == 0 {
		glyphs = DefaultGlyphs()
	}
	c.Spawn.Glyphs = glyphs

	if len(c.Spawn.Sections) > 0 {
		sections := make([]string, 0, len(c.Spawn.Sections))
		seen := make(map[string]struct{}, len(c.Spawn.Sections))
		for _, section := range c.Spawn.Sections {
			normalized := strings.ToLower(strings.TrimSpace(section))
			if normalized == "" {
				continue
			}
			if _, exists := seen[normalized]; exists {
				continue
			}
			seen[normalized] = struct{}{}
			sections = append(sections, normalized)
		}
		c.Spawn.Sections = sections
	}
}

func (c *Config) normalizeContent() error {
	c.Content.URL = strings.TrimSpace(c.Content.URL)
	if c.Content.URL == "" {
		if value, ok := os.LookupEnv("SOUNDPILLS_CONTENT_URL"); ok {
			c.Content.URL = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Content.Path) != "" {
		var err error
		if c.Content.Path, err = expandPath(c.Content.Path); err != nil {
			return fmt.Errorf("content.path: %w", err)
		}
	}
	if c.Content.TimeoutSeconds <= 0 {
		c.Content.TimeoutSeconds = defaultContentTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizeJournal() error {
	if strings.TrimSpace(c.Journal.Path) == "" {
		c.Journal.Path = filepath.Join(c.Paths.StateDir, "journal.db")
	}
	var err error
	if c.Journal.Path, err = expandPath(c.Journal.Path); err != nil {
		return fmt.Errorf("journal.path: %w", err)
	}
	if c.Journal.BufferSize <= 0 {
		c.Journal.BufferSize = defaultJournalBufferSize
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
