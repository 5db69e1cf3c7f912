package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"soundpills/internal/faults"
)

// WAVSource replays a PCM WAV file at real-time pace, looping at the end.
// Playback position follows the injected clock.
type WAVSource struct {
	path  string
	clock clockwork.Clock

	mu         sync.Mutex
	samples    []byte
	sampleRate int
	start      time.Time
}

// NewWAVSource builds a replay source for path. A nil clock uses real time.
func NewWAVSource(path string, clock clockwork.Clock) *WAVSource {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &WAVSource{path: path, clock: clock}
}

func (s *WAVSource) Name() string { return "wav:" + s.path }

func (s *WAVSource) Midpoint() float64 { return Midpoint }

func (s *WAVSource) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return faults.Wrap(ErrPermissionDenied, "audio", "open wav", s.path, err)
		}
		return faults.Wrap(ErrDeviceUnavailable, "audio", "open wav", s.path, err)
	}
	samples, rate, err := DecodeWAV(bytes.NewReader(data))
	if err != nil {
		return faults.Wrap(ErrDeviceUnavailable, "audio", "decode wav", s.path, err)
	}
	s.mu.Lock()
	s.samples = samples
	s.sampleRate = rate
	s.start = s.clock.Now()
	s.mu.Unlock()
	return nil
}

func (s *WAVSource) Latest(dst []byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := len(s.samples)
	if total == 0 || len(dst) == 0 {
		return 0
	}
	elapsed := s.clock.Since(s.start)
	pos := int(elapsed.Seconds()*float64(s.sampleRate)) % total
	n := min(len(dst), total)
	for i := range n {
		idx := (pos - n + i) % total
		if idx < 0 {
			idx += total
		}
		dst[i] = s.samples[idx]
	}
	return n
}

func (s *WAVSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = nil
	return nil
}

type wavFormat struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// DecodeWAV reads an 8- or 16-bit integer PCM WAV stream and returns mono
// unsigned 8-bit samples with the stream's sample rate.
func DecodeWAV(r io.Reader) ([]byte, int, error) {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, 0, fmt.Errorf("read riff header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, 0, errors.New("not a RIFF/WAVE stream")
	}

	var format *wavFormat
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			return nil, 0, fmt.Errorf("read chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])
		switch id {
		case "fmt ":
			body := make([]byte, size+size%2)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, 0, fmt.Errorf("read fmt chunk: %w", err)
			}
			var f wavFormat
			if err := binary.Read(bytes.NewReader(body), binary.LittleEndian, &f); err != nil {
				return nil, 0, fmt.Errorf("parse fmt chunk: %w", err)
			}
			format = &f
		case "data":
			if format == nil {
				return nil, 0, errors.New("data chunk before fmt chunk")
			}
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, 0, fmt.Errorf("read data chunk: %w", err)
			}
			samples, err := toMonoU8(body, *format)
			if err != nil {
				return nil, 0, err
			}
			return samples, int(format.SampleRate), nil
		default:
			if _, err := io.CopyN(io.Discard, r, int64(size+size%2)); err != nil {
				return nil, 0, fmt.Errorf("skip %q chunk: %w", id, err)
			}
		}
	}
}

func toMonoU8(data []byte, f wavFormat) ([]byte, error) {
	if f.AudioFormat != 1 {
		return nil, fmt.Errorf("unsupported wav encoding %d (integer PCM only)", f.AudioFormat)
	}
	if f.Channels == 0 || f.SampleRate == 0 {
		return nil, errors.New("wav stream has no channels or sample rate")
	}
	channels := int(f.Channels)
	switch f.BitsPerSample {
	case 8:
		frames := len(data) / channels
		out := make([]byte, frames)
		for i := range frames {
			sum := 0
			for c := range channels {
				sum += int(data[i*channels+c])
			}
			out[i] = byte(sum / channels)
		}
		return out, nil
	case 16:
		frameBytes := 2 * channels
		frames := len(data) / frameBytes
		out := make([]byte, frames)
		for i := range frames {
			sum := 0
			for c := range channels {
				off := i*frameBytes + 2*c
				sum += int(int16(binary.LittleEndian.Uint16(data[off : off+2])))
			}
			out[i] = byte((sum/channels)>>8 + 128)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported wav bit depth %d (use 8 or 16)", f.BitsPerSample)
	}
}

// EncodeWAV writes mono unsigned 8-bit samples as a PCM WAV stream.
func EncodeWAV(w io.Writer, samples []byte, sampleRate int) error {
	header := struct {
		Riff     [4]byte
		Size     uint32
		Wave     [4]byte
		FmtID    [4]byte
		FmtSize  uint32
		Format   wavFormat
		DataID   [4]byte
		DataSize uint32
	}{
		Riff:    [4]byte{'R', 'I', 'F', 'F'},
		Size:    uint32(36 + len(samples)),
		Wave:    [4]byte{'W', 'A', 'V', 'E'},
		FmtID:   [4]byte{'f', 'm', 't', ' '},
		FmtSize: 16,
		Format: wavFormat{
			AudioFormat:   1,
			Channels:      1,
			SampleRate:    uint32(sampleRate),
			ByteRate:      uint32(sampleRate),
			BlockAlign:    1,
			BitsPerSample: 8,
		},
		DataID:   [4]byte{'d', 'a', 't', 'a'},
		DataSize: uint32(len(samples)),
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}
	if _, err := w.Write(samples); err != nil {
		return fmt.Errorf("write wav samples: %w", err)
	}
	if len(samples)%2 == 1 {
		if _, err := w.Write([]byte{0}); err != nil {
			return fmt.Errorf("write wav padding: %w", err)
		}
	}
	return nil
}
