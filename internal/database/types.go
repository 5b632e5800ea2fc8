package database

import "time"

// PlaylistRecord represents a row in the playlists table: a named ruleset and
// the outcome of its most recent evaluation.
type PlaylistRecord struct {
	ID          int64
	Name        string
	Ruleset     string
	ListPath    string
	Hash        string
	TrackCount  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	EvaluatedAt time.Time
}

// Evaluated reports whether the playlist was ever written out.
func (r PlaylistRecord) Evaluated() bool {
	return !r.EvaluatedAt.IsZero()
}

// Evaluation carries the result of writing a playlist's list file.
type Evaluation struct {
	ListPath    string
	Hash        string
	TrackCount  int
	EvaluatedAt time.Time
}
