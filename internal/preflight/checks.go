package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"soundpills/internal/config"
	"soundpills/internal/content"
	"soundpills/internal/deps"
)

// alsaDevDir is where ALSA exposes sound card nodes.
var alsaDevDir = "/dev/snd"

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckReadableFile verifies that path is a readable regular file.
func CheckReadableFile(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "path not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
}

// CheckFFmpegBinary verifies the capture binary resolves and reports its version.
func CheckFFmpegBinary(ctx context.Context, binary string) Result {
	status := deps.CheckFFmpeg(ctx, binary)
	if !status.Available {
		return Result{Name: status.Name, Detail: status.Detail}
	}
	return Result{Name: status.Name, Passed: true, Detail: fmt.Sprintf("%s (version %s)", status.Command, status.Detail)}
}

// CheckCaptureDevice verifies the OS exposes the capture backend. For ALSA
// it checks access to the sound device nodes; for PulseAudio it checks the
// server socket.
func CheckCaptureDevice(format, device string) Result {
	const name = "Capture device"

	switch format {
	case "alsa":
		if _, err := os.Stat(alsaDevDir); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s missing (no ALSA sound cards)", alsaDevDir)}
		}
		controls, _ := filepath.Glob(filepath.Join(alsaDevDir, "controlC*"))
		if len(controls) == 0 {
			return Result{Name: name, Detail: fmt.Sprintf("no sound cards under %s", alsaDevDir)}
		}
		for _, node := range controls {
			if err := unix.Access(node, unix.R_OK|unix.W_OK); err != nil {
				return Result{Name: name, Detail: fmt.Sprintf("%s (permission denied; add your user to the audio group)", node)}
			}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("alsa %s (%d card(s))", device, len(controls))}
	case "pulse":
		socket := pulseSocket()
		if socket == "" {
			return Result{Name: name, Detail: "PulseAudio socket not found (is pulseaudio or pipewire-pulse running?)"}
		}
		conn, err := net.Dial("unix", socket)
		if err != nil {
			if errors.Is(err, os.ErrPermission) {
				return Result{Name: name, Detail: fmt.Sprintf("%s (permission denied)", socket)}
			}
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", socket, err)}
		}
		_ = conn.Close()
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("pulse %s via %s", device, socket)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unsupported format %q", format)}
	}
}

func pulseSocket() string {
	if server := strings.TrimSpace(os.Getenv("PULSE_SERVER")); strings.HasPrefix(server, "unix:") {
		return strings.TrimPrefix(server, "unix:")
	}
	runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if runtimeDir == "" {
		return ""
	}
	candidate := filepath.Join(runtimeDir, "pulse", "native")
	if _, err := os.Stat(candidate); err != nil {
		return ""
	}
	return candidate
}

// CheckContent fetches the configured snapshot and reports its size.
func CheckContent(ctx context.Context, cfg *config.Config) Result {
	const name = "Content source"

	src := content.NewSource(cfg)
	checkCtx, cancel := context.WithTimeout(ctx, cfg.ContentTimeout())
	defer cancel()

	snap, err := src.Fetch(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", src.Describe(), err)}
	}
	usable := len(snap.Usable(cfg.Spawn.Sections))
	if usable == 0 {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (no usable items; glyph-only spawning)", src.Describe())}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d usable item(s))", src.Describe(), usable)}
}
