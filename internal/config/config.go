package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Audio contains configuration for microphone capture and amplitude sampling.
type Audio struct {
	// Source selects the capture backend: "ffmpeg", "wav", or "synthetic".
	Source string `toml:"source"`
	// Format is the ffmpeg input format used for live capture ("pulse" or "alsa").
	Format       string `toml:"format"`
	Device       string `toml:"device"`
	FFmpegBinary string `toml:"ffmpeg_binary"`
	WAVPath      string `toml:"wav_path"`
	SampleRate   int    `toml:"sample_rate"`
	// WindowSize is the number of time-domain samples per RMS computation.
	WindowSize int `toml:"window_size"`
	// FrameRate is the animation tick rate in frames per second.
	FrameRate int `toml:"frame_rate"`
	// RequireGesture keeps the sampler inert until the first user interaction.
	RequireGesture bool `toml:"require_gesture"`
	// WatchDevice enables udev monitoring for capture device removal (Linux).
	WatchDevice bool   `toml:"watch_device"`
	DeviceCard  string `toml:"device_card"`
}

// Spawn contains spawner tuning.
type Spawn struct {
	Sensitivity     float64  `toml:"sensitivity"`
	ThrottleMS      int      `toml:"throttle_ms"`
	BurstCount      int      `toml:"burst_count"`
	Jitter          float64  `toml:"jitter"`
	LifetimeMS      int      `toml:"lifetime_ms"`
	PruneIntervalMS int      `toml:"prune_interval_ms"`
	KindMode        string   `toml:"kind_mode"`
	Glyphs          []string `toml:"glyphs"`
	Sections        []string `toml:"sections"`
	Seed            uint64   `toml:"seed"`
	// PointerSpawn lets pointer motion spawn pills at the cursor.
	PointerSpawn bool    `toml:"pointer_spawn"`
	Pointer      Pointer `toml:"pointer"`
}

// Pointer tunes pointer-driven spawns. They keep their own throttle so
// pointer motion never delays sound spawns.
type Pointer struct {
	ThrottleMS int     `toml:"throttle_ms"`
	Jitter     float64 `toml:"jitter"`
	LifetimeMS int     `toml:"lifetime_ms"`
}

// Canvas contains the virtual canvas size used when no interactive host
// supplies real bounds.
type Canvas struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Content contains configuration for the content snapshot source.
type Content struct {
	Path           string `toml:"path"`
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Journal contains configuration for the spawn history database.
type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	// BufferSize bounds pending journal writes; overflow is dropped and logged.
	BufferSize int `toml:"buffer_size"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for soundpills.
//
// Configuration sections by subsystem:
//   - Paths: state and log directories
//   - Audio: capture backend and sampler cadence
//   - Spawn: throttle, burst, jitter, lifetime, glyph palette
//   - Canvas: headless canvas bounds
//   - Content: snapshot file or URL
//   - Journal: spawn history database
//   - Logging: log format, level, and retention
type Config struct {
	Paths   Paths   `toml:"paths"`
	Audio   Audio   `toml:"audio"`
	Spawn   Spawn   `toml:"spawn"`
	Canvas  Canvas  `toml:"canvas"`
	Content Content `toml:"content"`
	Journal Journal `toml:"journal"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/soundpills/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("soundpills.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Journal.Enabled && strings.TrimSpace(c.Journal.Path) != "" {
		if err := os.MkdirAll(filepath.Dir(c.Journal.Path), 0o755); err != nil {
			return fmt.Errorf("create journal directory: %w", err)
		}
	}
	return nil
}

// LockPath returns the single-instance capture lock location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "capture.lock")
}

// ThrottleInterval returns the minimum time between spawn decisions.
func (c *Config) ThrottleInterval() time.Duration {
	return time.Duration(c.Spawn.ThrottleMS) * time.Millisecond
}

// Lifetime returns how long a spawned entity stays alive.
func (c *Config) Lifetime() time.Duration {
	return time.Duration(c.Spawn.LifetimeMS) * time.Millisecond
}

// PointerThrottleInterval returns the minimum time between pointer spawns.
func (c *Config) PointerThrottleInterval() time.Duration {
	return time.Duration(c.Spawn.Pointer.ThrottleMS) * time.Millisecond
}

// PointerLifetime returns how long a pointer-spawned pill stays alive.
func (c *Config) PointerLifetime() time.Duration {
	return time.Duration(c.Spawn.Pointer.LifetimeMS) * time.Millisecond
}

// PruneInterval returns the cadence of the expiration pass.
func (c *Config) PruneInterval() time.Duration {
	return time.Duration(c.Spawn.PruneIntervalMS) * time.Millisecond
}

// FrameInterval returns the animation tick period derived from the frame rate.
func (c *Config) FrameInterval() time.Duration {
	if c.Audio.FrameRate <= 0 {
		return time.Second / defaultFrameRate
	}
	return time.Second / time.Duration(c.Audio.FrameRate)
}

// ContentTimeout returns the content fetch timeout.
func (c *Config) ContentTimeout() time.Duration {
	return time.Duration(c.Content.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SampleConfig returns the embedded sample configuration text.
func SampleConfig() string {
	return sampleConfig
}
