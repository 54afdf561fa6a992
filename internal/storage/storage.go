package storage

import "time"

// Record is one completed quiz run as kept in the local audit log. The
// spreadsheet stays the system of record; this log only helps when the
// sheet append failed and the row has to be re-entered by hand.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	UserID    int64     `json:"user_id"`
	Identity  string    `json:"identity"`
	Answers   []string  `json:"answers"`
	Score     int       `json:"score"`
	Total     int       `json:"total"`
}

// Recorder abstracts persistence of completed-run records.
// Implementations can be file-based, database, etc.
// AppendResult should atomically append a new record.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendResult(rec Record) error
	LoadResults() ([]Record, error)
}
