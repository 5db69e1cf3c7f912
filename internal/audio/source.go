package audio

import (
	"context"
	"sync"

	"soundpills/internal/faults"
)

var (
	// ErrPermissionDenied marks capture refused by the platform.
	ErrPermissionDenied = faults.ErrPermissionDenied
	// ErrDeviceUnavailable marks a missing or vanished capture device.
	ErrDeviceUnavailable = faults.ErrDeviceUnavailable
)

// Source is a capture stream exposing its most recent samples.
type Source interface {
	// Open acquires the stream. Errors wrap ErrPermissionDenied or
	// ErrDeviceUnavailable.
	Open(ctx context.Context) error
	// Latest copies up to len(dst) of the most recent samples into dst in
	// chronological order and returns the count copied.
	Latest(dst []byte) int
	// Midpoint is the zero-signal sample value.
	Midpoint() float64
	Close() error
	// Name identifies the backend in logs and the journal.
	Name() string
}

// BufferSource serves a fixed buffer. OpenErr, when set, is returned by Open.
type BufferSource struct {
	mu      sync.Mutex
	data    []byte
	OpenErr error
	closed  bool
}

// NewBufferSource returns a source that always yields data.
func NewBufferSource(data []byte) *BufferSource {
	return &BufferSource{data: append([]byte(nil), data...)}
}

// Constant returns n samples at value v.
func Constant(n int, v byte) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = v
	}
	return buf
}

func (s *BufferSource) Open(context.Context) error { return s.OpenErr }

// Set replaces the served buffer.
func (s *BufferSource) Set(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data[:0], data...)
}

func (s *BufferSource) Latest(dst []byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.data
	if len(src) > len(dst) {
		src = src[len(src)-len(dst):]
	}
	return copy(dst, src)
}

func (s *BufferSource) Midpoint() float64 { return Midpoint }

func (s *BufferSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *BufferSource) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *BufferSource) Name() string { return "buffer" }

// ring keeps the most recent samples written to it.
type ring struct {
	mu   sync.Mutex
	buf  []byte
	next int
	full bool
}

func newRing(size int) *ring {
	return &ring{buf: make([]byte, size)}
}

func (r *ring) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(p)
	if len(p) > len(r.buf) {
		p = p[len(p)-len(r.buf):]
	}
	for len(p) > 0 {
		c := copy(r.buf[r.next:], p)
		p = p[c:]
		r.next += c
		if r.next == len(r.buf) {
			r.next = 0
			r.full = true
		}
	}
	return n, nil
}

func (r *ring) Latest(dst []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	avail := r.next
	if r.full {
		avail = len(r.buf)
	}
	n := min(len(dst), avail)
	start := r.next - n
	if start < 0 {
		start += len(r.buf)
		c := copy(dst, r.buf[start:])
		copy(dst[c:n], r.buf[:r.next])
		return n
	}
	copy(dst, r.buf[start:r.next])
	return n
}
