// Package tui hosts a session in the terminal. Pills and glyphs are drawn at
// their canvas positions scaled to character cells; clicking a pill with
// detail content expands it, and the first key press or click arms the
// microphone.
package tui
