// Package faults defines the shared failure vocabulary and context helpers
// used by the sampler, content loader, journal, and session.
//
// Key responsibilities:
//   - Sentinel markers for the degradations a session can suffer (audio
//     permission denied, capture device unavailable, content load failure)
//     plus the Wrap helper that keeps the marker reachable via errors.Is.
//   - Impact descriptions so logs and the CLI explain which feature a
//     failure disabled.
//   - Context helpers that stamp session identifiers and components for
//     logging.
//
// No failure described here is fatal to a session; each one disables a
// single feature.
package faults
