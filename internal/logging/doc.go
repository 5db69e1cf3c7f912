// Package logging assembles structured slog loggers and formatting helpers used
// across soundpills components.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so session code can tag log lines with
// session identifiers and audio sources. Interactive sessions route logs to the
// log file only so the terminal stays free for the canvas.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// records with the same shape as the rest of the system.
package logging
