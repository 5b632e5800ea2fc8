package sqldb

import "context"

const deleteAllPlaylists = `DELETE FROM playlists`

func (q *Queries) DeleteAllPlaylists(ctx context.Context) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteAllPlaylists)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
