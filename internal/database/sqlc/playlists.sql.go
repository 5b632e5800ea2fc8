package sqldb

import (
	"context"
	"database/sql"
	"time"
)

const playlistColumns = `id, name, ruleset, list_path, hash, track_count, created_at, updated_at, evaluated_at`

func scanPlaylist(row interface{ Scan(dest ...any) error }) (Playlist, error) {
	var i Playlist
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Ruleset,
		&i.ListPath,
		&i.Hash,
		&i.TrackCount,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.EvaluatedAt,
	)
	return i, err
}

const insertPlaylist = `INSERT INTO playlists (name, ruleset, created_at, updated_at)
VALUES (?, ?, ?, ?)`

type InsertPlaylistParams struct {
	Name      string
	Ruleset   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q *Queries) InsertPlaylist(ctx context.Context, arg InsertPlaylistParams) (sql.Result, error) {
	return q.db.ExecContext(ctx, insertPlaylist, arg.Name, arg.Ruleset, arg.CreatedAt, arg.UpdatedAt)
}

const findPlaylistByName = `SELECT ` + playlistColumns + ` FROM playlists WHERE name = ?`

func (q *Queries) FindPlaylistByName(ctx context.Context, name string) (Playlist, error) {
	return scanPlaylist(q.db.QueryRowContext(ctx, findPlaylistByName, name))
}

const listPlaylists = `SELECT ` + playlistColumns + ` FROM playlists ORDER BY name`

func (q *Queries) ListPlaylists(ctx context.Context) ([]Playlist, error) {
	rows, err := q.db.QueryContext(ctx, listPlaylists)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Playlist
	for rows.Next() {
		i, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updatePlaylistEvaluation = `UPDATE playlists
SET list_path = ?, hash = ?, track_count = ?, evaluated_at = ?, updated_at = ?
WHERE id = ?`

type UpdatePlaylistEvaluationParams struct {
	ListPath    sql.NullString
	Hash        sql.NullString
	TrackCount  int64
	EvaluatedAt time.Time
	UpdatedAt   time.Time
	ID          int64
}

func (q *Queries) UpdatePlaylistEvaluation(ctx context.Context, arg UpdatePlaylistEvaluationParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updatePlaylistEvaluation,
		arg.ListPath,
		arg.Hash,
		arg.TrackCount,
		arg.EvaluatedAt,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updatePlaylistRuleset = `UPDATE playlists
SET ruleset = ?, updated_at = ?, evaluated_at = NULL, track_count = 0
WHERE id = ?`

type UpdatePlaylistRulesetParams struct {
	Ruleset   string
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) UpdatePlaylistRuleset(ctx context.Context, arg UpdatePlaylistRulesetParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updatePlaylistRuleset, arg.Ruleset, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deletePlaylistByID = `DELETE FROM playlists WHERE id = ?`

func (q *Queries) DeletePlaylistByID(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deletePlaylistByID, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
