// Package config loads, normalizes, and validates soundpills configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SOUNDPILLS_CONTENT_URL. The Config type centralizes every knob the session
// and CLI need: spawn tuning, audio capture, canvas size, content source,
// journal location, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
