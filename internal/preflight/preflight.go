package preflight

import (
	"context"
	"path/filepath"

	"soundpills/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// State directory (always checked)
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	// Journal directory, when it lives outside the state directory
	if cfg.Journal.Enabled {
		if dir := filepath.Dir(cfg.Journal.Path); dir != cfg.Paths.StateDir {
			results = append(results, CheckDirectoryAccess("Journal directory", dir))
		}
	}

	results = append(results, RunCapture(ctx, cfg)...)

	if cfg.Content.Path != "" || cfg.Content.URL != "" {
		results = append(results, CheckContent(ctx, cfg))
	}

	return results
}

// RunCapture checks only the selected capture backend. Sessions run it at
// start; it never touches the network.
func RunCapture(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	switch cfg.Audio.Source {
	case "ffmpeg":
		return []Result{
			CheckFFmpegBinary(ctx, cfg.Audio.FFmpegBinary),
			CheckCaptureDevice(cfg.Audio.Format, cfg.Audio.Device),
		}
	case "wav":
		return []Result{CheckReadableFile("WAV file", cfg.Audio.WAVPath)}
	default:
		return nil
	}
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
