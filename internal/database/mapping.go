package database

import (
	sqldb "github.com/mpdspl/mpdspl/internal/database/sqlc"
)

// PlaylistRecordFromRow converts a database playlist row to a PlaylistRecord.
func PlaylistRecordFromRow(row sqldb.Playlist) PlaylistRecord {
	return PlaylistRecord{
		ID:          row.ID,
		Name:        row.Name,
		Ruleset:     row.Ruleset,
		ListPath:    optionalString(row.ListPath),
		Hash:        optionalString(row.Hash),
		TrackCount:  row.TrackCount,
		CreatedAt:   optionalTime(row.CreatedAt),
		UpdatedAt:   optionalTime(row.UpdatedAt),
		EvaluatedAt: optionalTime(row.EvaluatedAt),
	}
}
