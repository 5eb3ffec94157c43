package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"interviewcoach/internal/pipeline"
	"interviewcoach/internal/sessions"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// sessionJSON is the stable machine-readable view of a session.
type sessionJSON struct {
	ID             string         `json:"id"`
	Origin         string         `json:"origin"`
	Phase          pipeline.Phase `json:"phase"`
	Status         string         `json:"status"`
	FailedPhase    pipeline.Phase `json:"failed_phase,omitempty"`
	Error          string         `json:"error,omitempty"`
	ErrorKind      string         `json:"error_kind,omitempty"`
	MIMEType       string         `json:"mime_type,omitempty"`
	RecordingBytes int64          `json:"recording_bytes"`
	ArtifactBytes  int64          `json:"artifact_bytes"`
	Transcoded     bool           `json:"transcoded"`
	SourcePath     string         `json:"source_path,omitempty"`
	ArtifactDir    string         `json:"artifact_dir,omitempty"`
	StartedAt      time.Time      `json:"started_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Result         any            `json:"result,omitempty"`
}

func sessionJSONFromRecord(rec *sessions.Record, withResult bool) (sessionJSON, error) {
	out := sessionJSON{
		ID:             rec.ID,
		Origin:         string(rec.Origin),
		Phase:          rec.Phase,
		Status:         rec.Status,
		FailedPhase:    rec.FailedPhase,
		Error:          rec.ErrorMessage,
		ErrorKind:      rec.ErrorKind,
		MIMEType:       rec.MIMEType,
		RecordingBytes: rec.RecordingBytes,
		ArtifactBytes:  rec.ArtifactBytes,
		Transcoded:     rec.Transcoded,
		SourcePath:     rec.SourcePath,
		ArtifactDir:    rec.ArtifactDir,
		StartedAt:      rec.StartedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
	if withResult {
		doc, err := rec.ResultDocument()
		if err != nil {
			return out, err
		}
		out.Result = doc
	}
	return out, nil
}

func sessionJSONFromState(state pipeline.State) sessionJSON {
	rec := sessions.RecordFromState(state)
	out, _ := sessionJSONFromRecord(&rec, false)
	if state.Result != nil {
		out.Result = state.Result
	}
	return out
}
