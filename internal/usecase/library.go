package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mpdspl/mpdspl/internal/library"
)

// LoadInput names the library sources and the cache for one run.
type LoadInput struct {
	DumpPath  string
	CachePath string
	Ratings   library.RatingsSource
	Force     bool
	Now       time.Time
}

// LoadResult is the library snapshot and whether it was rebuilt from the dump.
type LoadResult struct {
	Database *library.Database
	Rebuilt  bool
}

type Library struct {
	logger zerolog.Logger
}

func NewLibrary(logger zerolog.Logger) *Library {
	return &Library{logger: logger}
}

// Load returns the library snapshot, reparsing the dump and rewriting the
// cache when forced, when the cache is older than a source, or when the
// cache was built from different sources.
func (u *Library) Load(ctx context.Context, input LoadInput) (*LoadResult, error) {
	if err := library.CheckSources(input.DumpPath, input.Ratings); err != nil {
		return nil, err
	}

	if !input.Force && !library.NeedsRefresh(input.CachePath, input.DumpPath, input.Ratings) {
		u.logger.Info().Str("cache", input.CachePath).Msg("loading database cache")
		db, err := library.Load(input.CachePath)
		if err != nil {
			return nil, err
		}
		if sameSources(db.Source(), input) {
			return &LoadResult{Database: db}, nil
		}
		u.logger.Info().Msg("database cache was built from other sources")
	}

	return u.rebuild(ctx, input)
}

func (u *Library) rebuild(ctx context.Context, input LoadInput) (*LoadResult, error) {
	u.logger.Info().Str("dump", input.DumpPath).Msg("updating database cache")

	db, err := library.Build(ctx, library.BuildOptions{
		DumpPath: input.DumpPath,
		Ratings:  input.Ratings,
		Now:      input.Now,
		Logger:   u.logger,
	})
	if err != nil {
		return nil, err
	}

	if input.CachePath != "" {
		if err := db.Save(input.CachePath); err != nil {
			return nil, fmt.Errorf("saving database cache: %w", err)
		}
	}

	u.logger.Debug().Int("tracks", db.Len()).Msg("database cache updated")
	return &LoadResult{Database: db, Rebuilt: true}, nil
}

func sameSources(src library.Source, input LoadInput) bool {
	return src.Dump == input.DumpPath &&
		src.Ratings == input.Ratings.Path &&
		src.RatingsKind == input.Ratings.Kind
}
