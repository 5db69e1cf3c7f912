// Package journal persists session history and spawned entities in SQLite.
//
// Each session gets a row carrying its content title, audio source, final
// status, and failure text. Spawns and expiries are streamed in through an
// asynchronous Writer so the frame loop never waits on disk. The CLI history
// commands read the same database.
package journal
