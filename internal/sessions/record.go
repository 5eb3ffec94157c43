package sessions

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"interviewcoach/internal/analysis"
	"interviewcoach/internal/pipeline"
	"interviewcoach/internal/services"
)

// Record is one persisted session.
type Record struct {
	ID             string
	Origin         pipeline.Origin
	Phase          pipeline.Phase
	Status         string
	FailedPhase    pipeline.Phase
	ErrorMessage   string
	ErrorKind      string
	MIMEType       string
	RecordingBytes int64
	ArtifactBytes  int64
	Transcoded     bool
	SourcePath     string
	ArtifactDir    string
	ResultJSON     string
	StartedAt      time.Time
	UpdatedAt      time.Time
}

// RecordFromState converts a controller snapshot into a row.
func RecordFromState(state pipeline.State) Record {
	rec := Record{
		ID:             state.SessionID,
		Origin:         state.Origin,
		Phase:          state.Phase,
		Status:         state.Status,
		FailedPhase:    state.FailedPhase,
		ErrorMessage:   state.ErrorMessage(),
		ErrorKind:      services.Kind(state.Err),
		MIMEType:       state.MIMEType,
		RecordingBytes: int64(state.RecordingBytes),
		ArtifactBytes:  int64(state.ArtifactBytes),
		Transcoded:     state.Transcoded,
		SourcePath:     state.SourcePath,
		StartedAt:      state.StartedAt,
		UpdatedAt:      state.UpdatedAt,
	}
	if state.Result != nil && len(state.Result.Raw) > 0 {
		rec.ResultJSON = string(state.Result.Raw)
	}
	return rec
}

// HasResult reports whether the session stored an analysis response.
func (r *Record) HasResult() bool {
	return r != nil && strings.TrimSpace(r.ResultJSON) != ""
}

// Result parses the stored analysis response.
func (r *Record) Result() (*analysis.Result, error) {
	if !r.HasResult() {
		return nil, errors.New("session has no analysis result")
	}
	return analysis.Parse([]byte(r.ResultJSON))
}

// ResultDocument returns the stored analysis response as generic JSON.
func (r *Record) ResultDocument() (any, error) {
	if !r.HasResult() {
		return nil, nil
	}
	var doc any
	if err := json.Unmarshal([]byte(r.ResultJSON), &doc); err != nil {
		return nil, fmt.Errorf("decode stored result: %w", err)
	}
	return doc, nil
}

// Duration is the time between the first and last recorded change.
func (r *Record) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.UpdatedAt.Before(r.StartedAt) {
		return 0
	}
	return r.UpdatedAt.Sub(r.StartedAt)
}

const recordColumns = "id, origin, phase, status, failed_phase, error_message, error_kind, mime_type, recording_bytes, artifact_bytes, transcoded, source_path, artifact_dir, result_json, started_at, updated_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id             string
		origin         string
		phase          string
		status         string
		failedPhase    sql.NullString
		errorMessage   sql.NullString
		errorKind      sql.NullString
		mimeType       sql.NullString
		recordingBytes int64
		artifactBytes  int64
		transcoded     int64
		sourcePath     sql.NullString
		artifactDir    sql.NullString
		resultJSON     sql.NullString
		startedRaw     string
		updatedRaw     string
	)
	if err := scanner.Scan(
		&id,
		&origin,
		&phase,
		&status,
		&failedPhase,
		&errorMessage,
		&errorKind,
		&mimeType,
		&recordingBytes,
		&artifactBytes,
		&transcoded,
		&sourcePath,
		&artifactDir,
		&resultJSON,
		&startedRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	rec := &Record{
		ID:             id,
		Origin:         pipeline.Origin(origin),
		Phase:          pipeline.Phase(phase),
		Status:         status,
		FailedPhase:    pipeline.Phase(failedPhase.String),
		ErrorMessage:   errorMessage.String,
		ErrorKind:      errorKind.String,
		MIMEType:       mimeType.String,
		RecordingBytes: recordingBytes,
		ArtifactBytes:  artifactBytes,
		Transcoded:     transcoded != 0,
		SourcePath:     sourcePath.String,
		ArtifactDir:    artifactDir.String,
		ResultJSON:     resultJSON.String,
	}
	if t, err := parseTimeString(startedRaw); err == nil {
		rec.StartedAt = t
	}
	if t, err := parseTimeString(updatedRaw); err == nil {
		rec.UpdatedAt = t
	}
	return rec, nil
}

func scanRecords(rows *sql.Rows) ([]*Record, error) {
	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
