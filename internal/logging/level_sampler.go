package logging

// LevelSampler suppresses repetitive loudness logs while preserving signal
// when the input crosses into a new loudness bucket or changes state.
type LevelSampler struct {
	bucketSize float64
	lastState  string
	lastBucket int
}

// NewLevelSampler constructs a sampler that emits when the RMS crosses a
// bucket boundary (default 5 units) or when the state label changes.
func NewLevelSampler(bucketSize float64) *LevelSampler {
	if bucketSize <= 0 {
		bucketSize = 5
	}
	return &LevelSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a loudness reading should be logged. Movement in
// either direction across a bucket boundary counts.
func (s *LevelSampler) ShouldLog(rms float64, state string) bool {
	if s == nil {
		return true
	}
	emit := false
	if state != "" && state != s.lastState {
		s.lastState = state
		emit = true
	}
	if rms < 0 {
		return emit
	}
	bucket := int(rms / s.bucketSize)
	if bucket != s.lastBucket {
		s.lastBucket = bucket
		emit = true
	}
	return emit
}

// Reset clears the sampler state (e.g. when a new session starts).
func (s *LevelSampler) Reset() {
	if s == nil {
		return
	}
	s.lastState = ""
	s.lastBucket = -1
}
