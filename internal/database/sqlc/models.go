package sqldb

import "database/sql"

type Playlist struct {
	ID          int64
	Name        string
	Ruleset     string
	ListPath    sql.NullString
	Hash        sql.NullString
	TrackCount  int64
	CreatedAt   sql.NullTime
	UpdatedAt   sql.NullTime
	EvaluatedAt sql.NullTime
}
