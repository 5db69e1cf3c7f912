package config

const (
	defaultStateDir         = "~/.local/share/soundpills"
	defaultLogDir           = "~/.local/share/soundpills/logs"
	defaultLogRetentionDays = 30
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"

	defaultAudioSource  = "ffmpeg"
	defaultAudioFormat  = "pulse"
	defaultAudioDevice  = "default"
	defaultFFmpegBinary = "ffmpeg"
	defaultSampleRate   = 44100
	defaultWindowSize   = 512
	defaultFrameRate    = 60

	defaultSensitivity     = 1.5
	defaultThrottleMS      = 50
	defaultBurstCount      = 1
	defaultJitter          = 220
	defaultLifetimeMS      = 5000
	defaultPruneIntervalMS = 400
	defaultKindMode        = "random"

	defaultPointerThrottleMS = 200
	defaultPointerJitter     = 500
	defaultPointerLifetimeMS = 10000

	defaultCanvasWidth  = 1280
	defaultCanvasHeight = 720

	defaultContentTimeoutSeconds = 10
	defaultJournalBufferSize     = 256
)

var defaultGlyphs = []string{
	"💬", "💭", "💯", "😂", "😀", "🐝", "😆",
	"💛", "😃", "✅", "🎈", "👏", "🎯", "💡",
}

// DefaultGlyphs returns a copy of the built-in glyph palette.
func DefaultGlyphs() []string {
	out := make([]string, len(defaultGlyphs))
	copy(out, defaultGlyphs)
	return out
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Audio: Audio{
			Source:         defaultAudioSource,
			Format:         defaultAudioFormat,
			FFmpegBinary:   defaultFFmpegBinary,
			SampleRate:     defaultSampleRate,
			WindowSize:     defaultWindowSize,
			FrameRate:      defaultFrameRate,
			RequireGesture: true,
		},
		Spawn: Spawn{
			Sensitivity:     defaultSensitivity,
			ThrottleMS:      defaultThrottleMS,
			BurstCount:      defaultBurstCount,
			Jitter:          defaultJitter,
			LifetimeMS:      defaultLifetimeMS,
			PruneIntervalMS: defaultPruneIntervalMS,
			KindMode:        defaultKindMode,
			Glyphs:          DefaultGlyphs(),
			Pointer: Pointer{
				ThrottleMS: defaultPointerThrottleMS,
				Jitter:     defaultPointerJitter,
				LifetimeMS: defaultPointerLifetimeMS,
			},
		},
		Canvas: Canvas{
			Width:  defaultCanvasWidth,
			Height: defaultCanvasHeight,
		},
		Content: Content{
			TimeoutSeconds: defaultContentTimeoutSeconds,
		},
		Journal: Journal{
			Enabled:    true,
			BufferSize: defaultJournalBufferSize,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
