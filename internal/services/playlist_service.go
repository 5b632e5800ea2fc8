// Package services holds the playlist registry operations that span more than
// a single query.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mpdspl/mpdspl/internal/database"
	"github.com/mpdspl/mpdspl/internal/filesystem"
	"github.com/mpdspl/mpdspl/internal/rule"
)

// PlaylistService validates and stores saved playlists.
type PlaylistService struct {
	ctx  *database.Context
	repo *database.PlaylistRepository
}

func NewPlaylistService(ctx *database.Context) *PlaylistService {
	return &PlaylistService{ctx: ctx, repo: database.NewPlaylistRepository(ctx)}
}

// Registration is a playlist to be saved.
type Registration struct {
	Name    string
	Ruleset string
}

// Register saves a single playlist; see RegisterAll.
func (s *PlaylistService) Register(ctx context.Context, name, rulesetText string, replace bool, now time.Time) (*database.PlaylistRecord, error) {
	records, err := s.RegisterAll(ctx, []Registration{{Name: name, Ruleset: rulesetText}}, replace, now)
	if err != nil {
		return nil, err
	}
	return &records[0], nil
}

// RegisterAll checks every playlist and then saves them together: either all
// are stored or none is. A saved playlist of the same name is only
// overwritten when replace is set.
func (s *PlaylistService) RegisterAll(ctx context.Context, items []Registration, replace bool, now time.Time) ([]database.PlaylistRecord, error) {
	checked := make([]Registration, len(items))
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return nil, errors.New("playlist name must not be empty")
		}
		if _, err := filesystem.ListName(name); err != nil {
			return nil, err
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("playlist %q given more than once", name)
		}
		seen[name] = struct{}{}

		rulesetText := strings.TrimSpace(item.Ruleset)
		if _, err := rule.ParseRulesetAt(rulesetText, now); err != nil {
			return nil, fmt.Errorf("playlist %q: %w", name, err)
		}
		checked[i] = Registration{Name: name, Ruleset: rulesetText}
	}

	err := s.withTx(ctx, func(ctx context.Context, repo *database.PlaylistRepository) error {
		for _, item := range checked {
			existing, err := repo.FindByName(ctx, item.Name)
			if err != nil {
				return err
			}
			if existing == nil {
				if _, err := repo.Create(ctx, item.Name, item.Ruleset, now); err != nil {
					return err
				}
				continue
			}
			if !replace {
				return fmt.Errorf("%w: cowardly refusing to overwrite %q", database.ErrPlaylistExists, item.Name)
			}
			if err := repo.UpdateRuleset(ctx, existing.ID, item.Ruleset, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	records := make([]database.PlaylistRecord, len(checked))
	for i, item := range checked {
		record, err := s.Get(ctx, item.Name)
		if err != nil {
			return nil, err
		}
		records[i] = *record
	}
	return records, nil
}

// Get returns the named playlist or database.ErrNotFound.
func (s *PlaylistService) Get(ctx context.Context, name string) (*database.PlaylistRecord, error) {
	record, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: playlist %q", database.ErrNotFound, name)
	}
	return record, nil
}

func (s *PlaylistService) List(ctx context.Context) ([]database.PlaylistRecord, error) {
	return s.repo.List(ctx)
}

// RecordEvaluation stores the outcome of writing a playlist's list file.
func (s *PlaylistService) RecordEvaluation(ctx context.Context, id int64, ev database.Evaluation) error {
	return s.repo.UpdateEvaluation(ctx, id, ev)
}

// Remove deletes the named playlist and returns the removed record.
func (s *PlaylistService) Remove(ctx context.Context, name string) (*database.PlaylistRecord, error) {
	record, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.Delete(ctx, record.ID); err != nil {
		return nil, err
	}
	return record, nil
}

// Clear removes every saved playlist and returns the removed records.
func (s *PlaylistService) Clear(ctx context.Context) ([]database.PlaylistRecord, error) {
	var removed []database.PlaylistRecord
	err := s.withTx(ctx, func(ctx context.Context, repo *database.PlaylistRepository) error {
		records, err := repo.List(ctx)
		if err != nil {
			return err
		}
		if _, err := repo.Clear(ctx); err != nil {
			return err
		}
		removed = records
		return nil
	})
	return removed, err
}

func (s *PlaylistService) withTx(ctx context.Context, fn func(context.Context, *database.PlaylistRepository) error) error {
	if s.ctx == nil || s.ctx.DB == nil {
		return errors.New("playlist service: database handle not initialised")
	}

	tx, err := s.ctx.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(ctx, s.repo.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return err
	}

	return nil
}
