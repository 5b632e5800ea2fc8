package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqldb "github.com/mpdspl/mpdspl/internal/database/sqlc"
)

type PlaylistRepository struct {
	ctx *Context
}

func NewPlaylistRepository(dbCtx *Context) *PlaylistRepository {
	return &PlaylistRepository{ctx: dbCtx}
}

// WithTx returns a repository whose statements run inside tx.
func (r *PlaylistRepository) WithTx(tx *sql.Tx) *PlaylistRepository {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return &PlaylistRepository{}
	}
	return &PlaylistRepository{ctx: &Context{DB: r.ctx.DB, Queries: queries.WithTx(tx)}}
}

// Create saves a new playlist and returns its id. Saving a name that is
// already taken fails with ErrPlaylistExists.
func (r *PlaylistRepository) Create(ctx context.Context, name, ruleset string, now time.Time) (int64, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return 0, fmt.Errorf("playlist repository: missing database context")
	}

	existing, err := r.FindByName(ctx, name)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, fmt.Errorf("%w: %s", ErrPlaylistExists, name)
	}

	result, err := queries.InsertPlaylist(ctx, sqldb.InsertPlaylistParams{
		Name:      name,
		Ruleset:   ruleset,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	})
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// FindByName returns the named playlist, or nil when there is none.
func (r *PlaylistRepository) FindByName(ctx context.Context, name string) (*PlaylistRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("playlist repository: missing database context")
	}

	row, err := queries.FindPlaylistByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	record := PlaylistRecordFromRow(row)
	return &record, nil
}

// List returns every saved playlist ordered by name.
func (r *PlaylistRepository) List(ctx context.Context) ([]PlaylistRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("playlist repository: missing database context")
	}

	rows, err := queries.ListPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]PlaylistRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, PlaylistRecordFromRow(row))
	}
	return result, nil
}

// UpdateEvaluation records where a playlist was written and what it held.
func (r *PlaylistRepository) UpdateEvaluation(ctx context.Context, id int64, ev Evaluation) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("playlist repository: missing database context")
	}

	affected, err := queries.UpdatePlaylistEvaluation(ctx, sqldb.UpdatePlaylistEvaluationParams{
		ListPath:    nullString(ev.ListPath),
		Hash:        nullString(ev.Hash),
		TrackCount:  int64(ev.TrackCount),
		EvaluatedAt: ev.EvaluatedAt.UTC(),
		UpdatedAt:   ev.EvaluatedAt.UTC(),
		ID:          id,
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: playlist %d", ErrNotFound, id)
	}
	return nil
}

// UpdateRuleset replaces the ruleset of a playlist and forgets its last evaluation.
func (r *PlaylistRepository) UpdateRuleset(ctx context.Context, id int64, ruleset string, now time.Time) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("playlist repository: missing database context")
	}

	affected, err := queries.UpdatePlaylistRuleset(ctx, sqldb.UpdatePlaylistRulesetParams{
		Ruleset:   ruleset,
		UpdatedAt: now.UTC(),
		ID:        id,
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: playlist %d", ErrNotFound, id)
	}
	return nil
}

func (r *PlaylistRepository) Delete(ctx context.Context, id int64) (bool, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return false, fmt.Errorf("playlist repository: missing database context")
	}

	affected, err := queries.DeletePlaylistByID(ctx, id)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Clear removes every playlist and returns how many were removed.
func (r *PlaylistRepository) Clear(ctx context.Context) (int64, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return 0, fmt.Errorf("playlist repository: missing database context")
	}
	return queries.DeleteAllPlaylists(ctx)
}
