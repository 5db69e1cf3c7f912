package audio

import (
	"errors"
	"math"
	"testing"
)

func TestRMS(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want float64
	}{
		{"empty", nil, 0},
		{"silence", Constant(512, 128), 0},
		{"square", []byte{118, 138, 118, 138}, 10},
		{"full scale", []byte{0, 0}, 128},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RMS(tt.buf, Midpoint); math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("RMS = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRingKeepsLatestSamples(t *testing.T) {
	r := newRing(4)
	dst := make([]byte, 4)
	if n := r.Latest(dst); n != 0 {
		t.Fatalf("empty ring returned %d samples", n)
	}
	_, _ = r.Write([]byte{1, 2, 3})
	if n := r.Latest(dst); n != 3 || string(dst[:n]) != string([]byte{1, 2, 3}) {
		t.Fatalf("unexpected partial window %v", dst[:n])
	}
	_, _ = r.Write([]byte{4, 5, 6})
	if n := r.Latest(dst); n != 4 || string(dst) != string([]byte{3, 4, 5, 6}) {
		t.Fatalf("unexpected wrapped window %v", dst)
	}
	_, _ = r.Write([]byte{7, 8, 9, 10, 11, 12})
	small := make([]byte, 2)
	if n := r.Latest(small); n != 2 || string(small) != string([]byte{11, 12}) {
		t.Fatalf("unexpected tail %v", small)
	}
}

func TestClassifyCaptureError(t *testing.T) {
	if err := classifyCaptureError(nil, "[pulse] Permission denied"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission marker, got %v", err)
	}
	if err := classifyCaptureError(nil, "hw:9,0: No such file or directory"); !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("expected device marker, got %v", err)
	}
	if err := classifyCaptureError(nil, ""); !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("expected device marker for silent exit, got %v", err)
	}
}
