// Package spawn decides when loudness turns into visual entities and keeps
// the set of live entities.
//
// The Scheduler applies the sensitivity gate and the throttle, then creates a
// burst of pills (content items, round-robin) and glyphs (palette emoji) at
// jittered positions on the current canvas. The Store holds live entities,
// expires them after a fixed lifetime, and tracks which pills are expanded.
//
// Randomness comes from an injected *rand.Rand so sessions can be replayed
// from a seed.
package spawn
