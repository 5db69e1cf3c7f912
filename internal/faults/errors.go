package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPermissionDenied marks audio acquisition refused by the platform.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrDeviceUnavailable marks a missing or vanished capture device.
	ErrDeviceUnavailable = errors.New("device unavailable")
	// ErrContentLoadFailed marks a failed content snapshot fetch.
	ErrContentLoadFailed = errors.New("content load failed")
	ErrConfiguration     = errors.New("configuration error")
	ErrValidation        = errors.New("validation error")
	ErrTransient         = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Impact describes which feature a failure disables.
func Impact(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrDeviceUnavailable):
		return "sound-reactive spawning disabled for this session"
	case errors.Is(err, ErrContentLoadFailed):
		return "content pills disabled; glyph-only spawning"
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrValidation):
		return "session not started"
	default:
		return "operation completed with warnings"
	}
}

// Hint returns an operator-facing next step for a failure.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "grant microphone access to the user running soundpills, then restart the session"
	case errors.Is(err, ErrDeviceUnavailable):
		return "check audio.device and that the capture device is connected (soundpills check)"
	case errors.Is(err, ErrContentLoadFailed):
		return "verify content.path or content.url, then restart the session"
	case errors.Is(err, ErrConfiguration):
		return "run soundpills config show to inspect the resolved configuration"
	default:
		return "check logs for details"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "failure"
	}
	return strings.Join(parts, ": ")
}
