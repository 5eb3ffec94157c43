package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"interviewcoach/internal/config"
	"interviewcoach/internal/pipeline"
)

// InterruptedStatus marks sessions whose process exited mid-pipeline.
const InterruptedStatus = "Error: session interrupted before completion"

// Store manages session history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the sessions database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.SessionsDBPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save inserts or updates the row for rec.ID. Empty artifact_dir and
// result_json values never overwrite stored ones.
func (s *Store) Save(ctx context.Context, rec Record) error {
	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("session id is required")
	}
	started := rec.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	updated := rec.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	return s.execWithoutResultRetry(ctx,
		`INSERT INTO sessions (
            id, origin, phase, status, failed_phase, error_message, error_kind,
            mime_type, recording_bytes, artifact_bytes, transcoded, source_path,
            artifact_dir, result_json, started_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            phase = excluded.phase,
            status = excluded.status,
            failed_phase = excluded.failed_phase,
            error_message = excluded.error_message,
            error_kind = excluded.error_kind,
            mime_type = excluded.mime_type,
            recording_bytes = excluded.recording_bytes,
            artifact_bytes = excluded.artifact_bytes,
            transcoded = excluded.transcoded,
            source_path = COALESCE(excluded.source_path, sessions.source_path),
            artifact_dir = COALESCE(excluded.artifact_dir, sessions.artifact_dir),
            result_json = COALESCE(excluded.result_json, sessions.result_json),
            updated_at = excluded.updated_at`,
		rec.ID,
		string(rec.Origin),
		string(rec.Phase),
		rec.Status,
		nullableString(string(rec.FailedPhase)),
		nullableString(rec.ErrorMessage),
		nullableString(rec.ErrorKind),
		nullableString(rec.MIMEType),
		rec.RecordingBytes,
		rec.ArtifactBytes,
		boolToInt(rec.Transcoded),
		nullableString(rec.SourcePath),
		nullableString(rec.ArtifactDir),
		nullableString(rec.ResultJSON),
		started.UTC().Format(time.RFC3339Nano),
		updated.UTC().Format(time.RFC3339Nano),
	)
}

// SetArtifactDir records where a session's files were written.
func (s *Store) SetArtifactDir(ctx context.Context, id, dir string) error {
	return s.execWithoutResultRetry(ctx,
		"UPDATE sessions SET artifact_dir = ?, updated_at = ? WHERE id = ?",
		dir, time.Now().UTC().Format(time.RFC3339Nano), id)
}

// Get returns the session with id, or nil when it does not exist. A unique
// id prefix of at least four characters is also accepted.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+recordColumns+" FROM sessions WHERE id = ?", id)
	rec, err := scanRecord(row)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if len(id) < 4 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+recordColumns+` FROM sessions WHERE id LIKE ? ESCAPE '\' ORDER BY started_at DESC LIMIT 2`, escapeLike(id)+"%")
	if err != nil {
		return nil, fmt.Errorf("get session by prefix: %w", err)
	}
	defer rows.Close()
	matches, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("session id prefix %q is ambiguous", id)
	}
}

// List returns sessions newest first. A positive limit caps the result; phases
// filter by phase when provided.
func (s *Store) List(ctx context.Context, limit int, phases ...pipeline.Phase) ([]*Record, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + recordColumns + " FROM sessions"
	args := make([]any, 0, len(phases)+1)
	if len(phases) > 0 {
		query += " WHERE phase IN (" + makePlaceholders(len(phases)) + ")"
		for _, phase := range phases {
			args = append(args, string(phase))
		}
	}
	query += " ORDER BY started_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Stats returns the number of sessions per phase.
func (s *Store) Stats(ctx context.Context) (map[pipeline.Phase]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), "SELECT phase, COUNT(1) FROM sessions GROUP BY phase")
	if err != nil {
		return nil, fmt.Errorf("session stats: %w", err)
	}
	defer rows.Close()
	stats := make(map[pipeline.Phase]int)
	for rows.Next() {
		var (
			phase string
			count int
		)
		if err := rows.Scan(&phase, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[pipeline.Phase(phase)] = count
	}
	return stats, rows.Err()
}

// FailInterrupted marks sessions left in a working phase by a previous
// process as failed. It returns the number of rows changed.
func (s *Store) FailInterrupted(ctx context.Context) (int64, error) {
	busy := []pipeline.Phase{pipeline.PhaseCapturing, pipeline.PhaseStopped, pipeline.PhaseConverting, pipeline.PhaseUploading}
	args := []any{string(pipeline.PhaseFailed), InterruptedStatus, time.Now().UTC().Format(time.RFC3339Nano)}
	for _, phase := range busy {
		args = append(args, string(phase))
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE sessions SET failed_phase = phase, phase = ?, status = ?, updated_at = ?
        WHERE phase IN (`+makePlaceholders(len(busy))+`)`,
		args...)
	if err != nil {
		return 0, fmt.Errorf("fail interrupted sessions: %w", err)
	}
	return res.RowsAffected()
}

// Remove deletes one session row.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("remove session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Clear deletes every session row.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM sessions")
	if err != nil {
		return 0, fmt.Errorf("clear sessions: %w", err)
	}
	return res.RowsAffected()
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) execWithoutResultRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
