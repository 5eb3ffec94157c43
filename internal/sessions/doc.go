// Package sessions persists the history of interview sessions in SQLite.
//
// Every state change announced by the pipeline controller is written to a
// single row per session, so a crashed process leaves its last known phase
// behind and a finished session keeps the analysis response for later
// viewing. The schema is embedded and versioned; a version mismatch asks the
// user to clear the database rather than migrating in place.
package sessions
