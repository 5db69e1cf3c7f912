package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"soundpills/internal/faults"
)

const (
	ffmpegStartupTimeout = 3 * time.Second
	ffmpegStderrLimit    = 16 << 10
	// ffmpegHistoryWindows sizes the ring relative to the analysis window.
	ffmpegHistoryWindows = 4
)

// FFmpegConfig selects the capture device and sample format.
type FFmpegConfig struct {
	Binary     string
	Format     string
	Device     string
	SampleRate int
	WindowSize int
}

// FFmpegSource captures mono unsigned 8-bit PCM from a PulseAudio or ALSA
// device through an ffmpeg child process.
type FFmpegSource struct {
	cfg  FFmpegConfig
	ring *ring

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	waitErr error
	stderr  *limitedBuffer
}

// NewFFmpegSource builds a capture source. Nothing runs until Open.
func NewFFmpegSource(cfg FFmpegConfig) *FFmpegSource {
	if cfg.Binary == "" {
		cfg.Binary = "ffmpeg"
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 512
	}
	return &FFmpegSource{cfg: cfg, ring: newRing(cfg.WindowSize * ffmpegHistoryWindows)}
}

// Args returns the ffmpeg command line used for capture.
func (s *FFmpegSource) Args() []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		"-f", s.cfg.Format,
		"-i", s.cfg.Device,
		"-ac", "1",
		"-ar", strconv.Itoa(s.cfg.SampleRate),
		"-f", "u8",
		"pipe:1",
	}
}

func (s *FFmpegSource) Name() string {
	return "ffmpeg:" + s.cfg.Format + ":" + s.cfg.Device
}

func (s *FFmpegSource) Midpoint() float64 { return Midpoint }

// Open starts ffmpeg and waits until the first samples arrive or the process
// exits. An early exit is classified from ffmpeg's stderr.
func (s *FFmpegSource) Open(ctx context.Context) error {
	if _, err := exec.LookPath(s.cfg.Binary); err != nil {
		return faults.Wrap(ErrDeviceUnavailable, "audio", "open", fmt.Sprintf("ffmpeg binary %q not found", s.cfg.Binary), err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(runCtx, s.cfg.Binary, s.Args()...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return faults.Wrap(ErrDeviceUnavailable, "audio", "open", "stdout pipe", err)
	}
	stderr := &limitedBuffer{limit: ffmpegStderrLimit}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		cancel()
		return classifyCaptureError(err, "")
	}

	ready := make(chan struct{})
	done := make(chan struct{})
	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.stderr = stderr
	s.mu.Unlock()

	go func() {
		defer close(done)
		var once sync.Once
		buf := make([]byte, 4096)
		for {
			n, readErr := stdout.Read(buf)
			if n > 0 {
				_, _ = s.ring.Write(buf[:n])
				once.Do(func() { close(ready) })
			}
			if readErr != nil {
				if !errors.Is(readErr, io.EOF) && !errors.Is(readErr, fs.ErrClosed) {
					stderr.WriteString(readErr.Error())
				}
				break
			}
		}
		waitErr := cmd.Wait()
		s.mu.Lock()
		s.waitErr = waitErr
		s.mu.Unlock()
	}()

	timer := time.NewTimer(ffmpegStartupTimeout)
	defer timer.Stop()
	select {
	case <-ready:
		return nil
	case <-done:
		s.mu.Lock()
		waitErr := s.waitErr
		s.mu.Unlock()
		return classifyCaptureError(waitErr, stderr.String())
	case <-ctx.Done():
		_ = s.Close()
		return ctx.Err()
	case <-timer.C:
		_ = s.Close()
		return faults.Wrap(ErrDeviceUnavailable, "audio", "open", "no samples from "+s.cfg.Device+" within "+ffmpegStartupTimeout.String(), nil)
	}
}

func (s *FFmpegSource) Latest(dst []byte) int {
	return s.ring.Latest(dst)
}

// Alive reports whether the capture process is still running.
func (s *FFmpegSource) Alive() bool {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Close stops ffmpeg and waits for the reader to exit. Safe to call twice.
func (s *FFmpegSource) Close() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// classifyCaptureError maps an ffmpeg failure to a capture marker.
func classifyCaptureError(err error, stderr string) error {
	detail := strings.TrimSpace(stderr)
	if len(detail) > 240 {
		detail = detail[len(detail)-240:]
	}
	lower := strings.ToLower(detail)
	switch {
	case errors.Is(err, fs.ErrPermission),
		strings.Contains(lower, "permission denied"),
		strings.Contains(lower, "access denied"),
		strings.Contains(lower, "eacces"):
		return faults.Wrap(ErrPermissionDenied, "audio", "open", detail, err)
	default:
		if detail == "" {
			detail = "capture process exited"
		}
		return faults.Wrap(ErrDeviceUnavailable, "audio", "open", detail, err)
	}
}

type limitedBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) WriteString(s string) {
	_, _ = b.Write([]byte(s))
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
