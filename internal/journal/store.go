package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"soundpills/internal/spawn"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// Store manages journal persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure journal directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginSession records a running session.
func (s *Store) BeginSession(ctx context.Context, session Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, started_at, status, content_title, item_count, audio_source, seed, error_message)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		formatTime(session.StartedAt),
		StatusRunning,
		nullableString(session.ContentTitle),
		session.ItemCount,
		nullableString(session.AudioSource),
		int64(session.Seed),
		nullableString(session.ErrorMessage),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// EndSession records the final status of a session. Failure notes already
// stored are kept when message is empty.
func (s *Store) EndSession(ctx context.Context, id string, status Status, message string, endedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, ended_at = ?, error_message = COALESCE(?, error_message) WHERE id = ?`,
		status,
		formatTime(endedAt),
		nullableString(message),
		id,
	)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("end session %s: %w", id, ErrNotFound)
	}
	return nil
}

// NoteFailure appends a degradation note to a running session.
func (s *Store) NoteFailure(ctx context.Context, id, message string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET error_message = CASE
            WHEN error_message IS NULL OR error_message = '' THEN ?
            ELSE error_message || '; ' || ?
        END WHERE id = ?`,
		message, message, id,
	)
	if err != nil {
		return fmt.Errorf("note session failure: %w", err)
	}
	return nil
}

// MarkInterrupted closes sessions left running by a previous process.
func (s *Store) MarkInterrupted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ? WHERE status = ?`,
		StatusInterrupted, StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted sessions: %w", err)
	}
	return res.RowsAffected()
}

// RecordSpawns inserts entities for a session in one transaction. Entity IDs
// are unique per session only; recording the same ID twice in one session
// is an error.
func (s *Store) RecordSpawns(ctx context.Context, sessionID string, entities []spawn.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin spawn tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO spawns (id, session_id, kind, label, section, x, y, rms, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare spawn insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entities {
		var section string
		if e.Item != nil {
			section = e.Item.Section
		}
		if _, err := stmt.ExecContext(ctx,
			e.ID, sessionID, string(e.Kind), e.Label(), nullableString(section),
			e.Position.X, e.Position.Y, e.Loudness, formatTime(e.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert spawn %s: %w", e.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit spawns: %w", err)
	}
	return nil
}

// RecordExpiries stamps the expiry time on a session's spawned entities.
func (s *Store) RecordExpiries(ctx context.Context, sessionID string, ids []string, expiredAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin expiry tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stamp := formatTime(expiredAt)
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `UPDATE spawns SET expired_at = ? WHERE session_id = ? AND id = ?`, stamp, sessionID, id); err != nil {
			return fmt.Errorf("record expiry %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit expiries: %w", err)
	}
	return nil
}

const sessionColumns = `s.id, s.started_at, s.ended_at, s.status, s.content_title, s.item_count,
    s.audio_source, s.seed, s.error_message,
    (SELECT COUNT(1) FROM spawns p WHERE p.session_id = s.id)`

// ListSessions returns the most recent sessions first. A limit <= 0 returns all.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions s ORDER BY s.started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// GetSession fetches one session. A unique ID prefix is accepted.
func (s *Store) GetSession(ctx context.Context, id string) (Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions s WHERE s.id = ? OR s.id LIKE ? || '%' ORDER BY s.id = ? DESC LIMIT 2`,
		id, id, id,
	)
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	defer rows.Close()

	var found []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return Session{}, fmt.Errorf("scan session: %w", err)
		}
		found = append(found, session)
	}
	if err := rows.Err(); err != nil {
		return Session{}, err
	}
	switch {
	case len(found) == 0:
		return Session{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	case len(found) > 1 && found[0].ID != id:
		return Session{}, fmt.Errorf("session prefix %q is ambiguous", id)
	default:
		return found[0], nil
	}
}

// ListSpawns returns a session's spawns in creation order. A limit <= 0 returns all.
func (s *Store) ListSpawns(ctx context.Context, sessionID string, limit int) ([]Spawn, error) {
	query := `SELECT id, session_id, kind, label, section, x, y, rms, created_at, expired_at
        FROM spawns WHERE session_id = ? ORDER BY created_at, rowid`
	args := []any{sessionID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list spawns: %w", err)
	}
	defer rows.Close()

	var spawns []Spawn
	for rows.Next() {
		var (
			sp         Spawn
			section    sql.NullString
			createdRaw string
			expiredRaw sql.NullString
		)
		if err := rows.Scan(&sp.ID, &sp.SessionID, &sp.Kind, &sp.Label, &section, &sp.X, &sp.Y, &sp.RMS, &createdRaw, &expiredRaw); err != nil {
			return nil, fmt.Errorf("scan spawn: %w", err)
		}
		sp.Section = section.String
		sp.CreatedAt = parseTime(createdRaw)
		sp.ExpiredAt = parseTime(expiredRaw.String)
		spawns = append(spawns, sp)
	}
	return spawns, rows.Err()
}

// Summarize aggregates a session's spawns by kind.
func (s *Store) Summarize(ctx context.Context, sessionID string) (Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, COUNT(1), MAX(rms) FROM spawns WHERE session_id = ? GROUP BY kind`, sessionID)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize spawns: %w", err)
	}
	defer rows.Close()

	summary := Summary{ByKind: make(map[string]int)}
	for rows.Next() {
		var (
			kind  string
			count int
			peak  float64
		)
		if err := rows.Scan(&kind, &count, &peak); err != nil {
			return Summary{}, err
		}
		summary.ByKind[kind] = count
		summary.Total += count
		summary.PeakRMS = max(summary.PeakRMS, peak)
	}
	return summary, rows.Err()
}

func scanSession(scanner interface{ Scan(dest ...any) error }) (Session, error) {
	var (
		session      Session
		startedRaw   string
		endedRaw     sql.NullString
		status       string
		contentTitle sql.NullString
		audioSource  sql.NullString
		seed         int64
		errorMessage sql.NullString
	)
	if err := scanner.Scan(
		&session.ID,
		&startedRaw,
		&endedRaw,
		&status,
		&contentTitle,
		&session.ItemCount,
		&audioSource,
		&seed,
		&errorMessage,
		&session.SpawnCount,
	); err != nil {
		return Session{}, err
	}
	session.StartedAt = parseTime(startedRaw)
	session.EndedAt = parseTime(endedRaw.String)
	session.Status = Status(status)
	session.ContentTitle = contentTitle.String
	session.AudioSource = audioSource.String
	session.Seed = uint64(seed)
	session.ErrorMessage = errorMessage.String
	return session, nil
}

// timeLayout is fixed-width so stored timestamps sort chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
