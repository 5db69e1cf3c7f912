package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"soundpills/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckReadableFile(t *testing.T) {
	if r := CheckReadableFile("wav", ""); r.Passed {
		t.Fatal("expected failure for blank path")
	}
	if r := CheckReadableFile("wav", t.TempDir()); r.Passed {
		t.Fatal("expected failure for directory")
	}
	path := filepath.Join(t.TempDir(), "a.wav")
	testsupport.WriteFile(t, path, []byte("RIFF"))
	if r := CheckReadableFile("wav", path); !r.Passed {
		t.Fatalf("expected pass, got %s", r.Detail)
	}
}

func TestCheckCaptureDeviceAlsa(t *testing.T) {
	dir := t.TempDir()
	old := alsaDevDir
	alsaDevDir = dir
	t.Cleanup(func() { alsaDevDir = old })

	if r := CheckCaptureDevice("alsa", "hw:0"); r.Passed {
		t.Fatal("expected failure without control nodes")
	}
	testsupport.WriteFile(t, filepath.Join(dir, "controlC0"), nil)
	r := CheckCaptureDevice("alsa", "hw:0")
	if !r.Passed {
		t.Fatalf("expected pass with accessible control node, got %s", r.Detail)
	}
	if !strings.Contains(r.Detail, "1 card") {
		t.Fatalf("unexpected detail %q", r.Detail)
	}

	alsaDevDir = filepath.Join(dir, "missing")
	if r := CheckCaptureDevice("alsa", "hw:0"); r.Passed {
		t.Fatal("expected failure for missing /dev/snd")
	}
}

func TestCheckCaptureDevicePulseMissing(t *testing.T) {
	t.Setenv("PULSE_SERVER", "")
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	if r := CheckCaptureDevice("pulse", "default"); r.Passed {
		t.Fatal("expected failure without a pulse socket")
	}
}

func TestCheckCaptureDeviceUnsupported(t *testing.T) {
	if r := CheckCaptureDevice("jack", "default"); r.Passed {
		t.Fatal("expected failure for unsupported format")
	}
}

func TestCheckContentFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.yaml")
	testsupport.WriteFile(t, path, []byte(testsupport.SnapshotYAML))
	cfg := testsupport.NewConfig(t, testsupport.WithContentPath(path))

	r := CheckContent(context.Background(), cfg)
	if !r.Passed {
		t.Fatalf("expected pass, got %s", r.Detail)
	}
	if !strings.Contains(r.Detail, "3 usable item(s)") {
		t.Fatalf("unexpected detail %q", r.Detail)
	}
}

func TestCheckContentHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Content.URL = srv.URL + "/snapshot.json"

	if r := CheckContent(context.Background(), cfg); r.Passed {
		t.Fatalf("expected failure for 502, got %s", r.Detail)
	}
}

func TestRunAllSyntheticSkipsCapture(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	results := RunAll(context.Background(), cfg)
	for _, r := range results {
		if r.Name == "FFmpeg" || r.Name == "Capture device" {
			t.Fatalf("unexpected capture check for synthetic source: %+v", r)
		}
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("expected all checks to pass, got %+v", failed)
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatalf("expected nil results, got %+v", results)
	}
}

func TestRunCaptureWAV(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWAV(filepath.Join(t.TempDir(), "missing.wav")))
	results := RunCapture(context.Background(), cfg)
	if len(results) != 1 || results[0].Passed {
		t.Fatalf("expected one failing WAV check, got %+v", results)
	}
}
