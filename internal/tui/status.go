package tui

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"soundpills/internal/logging"
)

// StatusLine keeps the most recent warning logged during a session so the
// footer can show it. Its Handler is meant to be teed into the session logger.
type StatusLine struct {
	mu      sync.Mutex
	message string
	at      time.Time
}

// Handler returns a slog handler that records warnings and errors.
func (s *StatusLine) Handler() slog.Handler {
	return &statusHandler{line: s}
}

// Last returns the latest warning and when it was logged.
func (s *StatusLine) Last() (string, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message, s.at
}

func (s *StatusLine) set(message string, at time.Time) {
	s.mu.Lock()
	s.message = message
	s.at = at
	s.mu.Unlock()
}

type statusHandler struct {
	line  *StatusLine
	attrs []slog.Attr
}

func (h *statusHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelWarn
}

func (h *statusHandler) Handle(_ context.Context, record slog.Record) error {
	message := record.Message
	impact := ""
	find := func(a slog.Attr) bool {
		if a.Key == logging.FieldImpact {
			impact = a.Value.String()
			return false
		}
		return true
	}
	for _, a := range h.attrs {
		if !find(a) {
			break
		}
	}
	if impact == "" {
		record.Attrs(find)
	}
	if impact != "" && impact != "none" {
		message += " (" + impact + ")"
	}
	h.line.set(message, record.Time)
	return nil
}

func (h *statusHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next = append(next, h.attrs...)
	next = append(next, attrs...)
	return &statusHandler{line: h.line, attrs: next}
}

func (h *statusHandler) WithGroup(string) slog.Handler {
	return h
}
