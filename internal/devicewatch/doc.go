// Package devicewatch listens for udev netlink events and reports when the
// capture sound card disappears so a session can stop sampling it.
//
// Connecting to netlink is best-effort: when the socket is unavailable the
// watcher logs a warning and the session carries on without it.
package devicewatch
