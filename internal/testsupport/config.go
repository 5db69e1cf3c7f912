package testsupport

import (
	"path/filepath"
	"testing"

	"soundpills/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Audio defaults to the synthetic source without the gesture gate so tests
// never touch a capture device.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Journal.Path = filepath.Join(base, "state", "journal.db")
	cfgVal.Audio.Source = "synthetic"
	cfgVal.Audio.Device = "default"
	cfgVal.Audio.RequireGesture = false
	cfgVal.Spawn.Seed = 42

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithAudioSource overrides the capture backend.
func WithAudioSource(source string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Audio.Source = source
	}
}

// WithWAV replays path through the WAV source.
func WithWAV(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Audio.Source = "wav"
		b.cfg.Audio.WAVPath = path
	}
}

// WithContentPath points the content source at a snapshot file.
func WithContentPath(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Content.Path = path
	}
}

// WithSpawn adjusts the spawn section in place.
func WithSpawn(mutate func(*config.Spawn)) ConfigOption {
	return func(b *configBuilder) {
		mutate(&b.cfg.Spawn)
	}
}

// WithoutJournal disables session history.
func WithoutJournal() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Journal.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
