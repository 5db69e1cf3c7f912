// Package audio turns a capture stream into loudness samples.
//
// A Source exposes the most recent window of unsigned 8-bit time-domain
// samples (zero signal sits at 128). Live capture runs ffmpeg against a
// PulseAudio or ALSA device; WAV replay and a synthetic tone generator serve
// demos and tests. The Sampler owns one Source, computes RMS loudness once
// per animation frame, and stays inert until armed by the first user gesture.
//
// Acquisition failures are terminal for the session's sound features only:
// the sampler records the failure, logs its impact, and never retries.
package audio
