// Package preflight provides readiness checks for the capture backend, the
// content source, and the directories soundpills writes to.
//
// These checks run in two contexts:
//   - "soundpills check" prints every result as a table.
//   - A session runs RunAll before starting and logs failures as warnings;
//     a failed check never blocks a session because every failure has a
//     degraded mode.
//
// Checks for backends that are not selected are skipped.
package preflight
