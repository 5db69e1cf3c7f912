// Package session owns one audio-reactive spawning run.
//
// A Session wires the amplitude sampler, the spawn scheduler, and the
// entity store together and drives them from two owned timers: a frame
// ticker that samples loudness and a scheduled prune task. It also holds the
// single-instance capture lock, records the run in the journal, and watches
// for capture device removal. Start and Stop bound every goroutine the
// session creates.
//
// No runtime failure ends a session. Audio denial disables sound spawning,
// a failed content load leaves glyph-only spawning, and journal errors only
// lose history.
package session
