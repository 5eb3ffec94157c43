// Package report presents completed interview analyses.
//
// The Presenter is handed the unmodified analysis result when a session
// reaches Done. It stores analysis.json plus the recording and uploaded file
// under the session directory, then renders percentages, the dominant
// emotion, speech metrics and coaching advice as terminal tables. Scores are
// coloured by grade at the 0.7 and 0.4 thresholds when writing
// to a terminal.
package report
