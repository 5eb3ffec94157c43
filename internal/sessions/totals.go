package sessions

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"interviewcoach/internal/pipeline"
)

// FailureCount is the number of failed sessions for one failing phase and
// error kind.
type FailureCount struct {
	Phase pipeline.Phase
	Kind  string
	Count int
}

// Totals summarizes every session in the history.
type Totals struct {
	Done        int
	Failed      int
	Transcoded  int
	Failures    []FailureCount
	LastSuccess time.Time
}

// Totals aggregates outcome counts across all stored sessions.
func (s *Store) Totals(ctx context.Context) (Totals, error) {
	ctx = ensureContext(ctx)
	var (
		totals     Totals
		lastRaw    sql.NullString
		transcoded sql.NullInt64
	)
	row := s.db.QueryRowContext(ctx, `SELECT
            COALESCE(SUM(CASE WHEN phase = ? THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN phase = ? THEN 1 ELSE 0 END), 0),
            SUM(transcoded),
            MAX(CASE WHEN phase = ? THEN updated_at END)
        FROM sessions`,
		string(pipeline.PhaseDone), string(pipeline.PhaseFailed), string(pipeline.PhaseDone))
	if err := row.Scan(&totals.Done, &totals.Failed, &transcoded, &lastRaw); err != nil {
		return Totals{}, fmt.Errorf("session totals: %w", err)
	}
	totals.Transcoded = int(transcoded.Int64)
	if t, err := parseTimeString(lastRaw.String); err == nil {
		totals.LastSuccess = t
	}

	rows, err := s.db.QueryContext(ctx, `SELECT COALESCE(failed_phase, ''), COALESCE(error_kind, ''), COUNT(1)
        FROM sessions WHERE phase = ? GROUP BY 1, 2 ORDER BY 1, 2`, string(pipeline.PhaseFailed))
	if err != nil {
		return Totals{}, fmt.Errorf("failure totals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			phase string
			fc    FailureCount
		)
		if err := rows.Scan(&phase, &fc.Kind, &fc.Count); err != nil {
			return Totals{}, fmt.Errorf("scan failure totals: %w", err)
		}
		fc.Phase = pipeline.Phase(phase)
		totals.Failures = append(totals.Failures, fc)
	}
	if err := rows.Err(); err != nil {
		return Totals{}, fmt.Errorf("iterate failure totals: %w", err)
	}
	return totals, nil
}
