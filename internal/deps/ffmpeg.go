// Package deps resolves and probes the external ffmpeg binary used for live
// audio capture.
package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// versionTimeout bounds the ffmpeg -version probe.
const versionTimeout = 3 * time.Second

// Status reports whether ffmpeg is usable. Command is the resolved path when
// lookup succeeds; Detail carries the version or the reason it is unusable.
type Status struct {
	Name      string
	Command   string
	Available bool
	Detail    string
}

// CheckFFmpeg reports whether the configured ffmpeg binary resolves and
// records its version in Detail. An empty binary means "ffmpeg" on PATH.
func CheckFFmpeg(ctx context.Context, binary string) Status {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	status := Status{Name: "FFmpeg", Command: binary}

	resolved, err := exec.LookPath(binary)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", binary)
		return status
	}
	status.Command = resolved
	version, err := FFmpegVersion(ctx, resolved)
	if err != nil {
		status.Detail = fmt.Sprintf("version probe failed: %v", err)
		return status
	}
	status.Available = true
	status.Detail = version
	return status
}

// FFmpegVersion runs "<binary> -version" and returns the version token.
func FFmpegVersion(ctx context.Context, binary string) (string, error) {
	probeCtx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	out, err := exec.CommandContext(probeCtx, binary, "-hide_banner", "-version").Output()
	if err != nil {
		return "", err
	}
	return parseVersion(out)
}

func parseVersion(out []byte) (string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 3 && fields[1] == "version" {
			return fields[2], nil
		}
	}
	return "", fmt.Errorf("no version line in output")
}
