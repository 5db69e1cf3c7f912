// Package content loads the read-only content snapshot that feeds pill
// payloads: a title, content items grouped by section, info cards, and news
// items.
//
// Snapshots come from a local YAML, JSON, or TOML file or from an HTTP
// endpoint. Every source goes through the same normalization (NFC text,
// protocol-relative URLs, class tokens, default ordering) so the spawner and
// renderers never see raw documents. A failed load yields an empty snapshot
// carrying the error; sessions keep running with glyph-only spawns.
package content
