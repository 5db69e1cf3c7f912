package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"soundpills/internal/audio"
)

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteWAV writes mono unsigned 8-bit samples as a WAV file in dir and
// returns its path.
func WriteWAV(t testing.TB, dir string, samples []byte, sampleRate int) string {
	t.Helper()

	var buf bytes.Buffer
	if err := audio.EncodeWAV(&buf, samples, sampleRate); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	path := filepath.Join(dir, "input.wav")
	WriteFile(t, path, buf.Bytes())
	return path
}

// SquareWave returns n samples alternating midpoint±amplitude.
func SquareWave(n int, amplitude byte) []byte {
	out := make([]byte, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = 128 - amplitude
		} else {
			out[i] = 128 + amplitude
		}
	}
	return out
}

// SnapshotYAML is a small content document with three pills, one expandable.
const SnapshotYAML = `title: Test Board
blocks:
  - section: one
    text: Alpha
    order: 1
  - section: two
    text: Beta
    url: //example.com/beta
    expanded_text: Beta details
    order: 2
  - section: loose
    text: Gamma
    order: 3
info_cards:
  - title: Hello
    body: World
news:
  - text: Headline
`
