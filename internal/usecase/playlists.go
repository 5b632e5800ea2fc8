package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mpdspl/mpdspl/internal/database"
	"github.com/mpdspl/mpdspl/internal/filesystem"
	"github.com/mpdspl/mpdspl/internal/library"
	"github.com/mpdspl/mpdspl/internal/playlist"
	"github.com/mpdspl/mpdspl/internal/services"
)

type Playlists struct {
	service *services.PlaylistService
	logger  zerolog.Logger
}

func NewPlaylists(dbCtx *database.Context, logger zerolog.Logger) *Playlists {
	return &Playlists{
		service: services.NewPlaylistService(dbCtx),
		logger:  logger,
	}
}

// NewPlaylist is a playlist given on the command line.
type NewPlaylist struct {
	Name    string
	Ruleset string
}

type GenerateInput struct {
	New []NewPlaylist
	// OutputOnly evaluates only the new playlists and saves nothing.
	OutputOnly  bool
	Replace     bool
	PlaylistDir string
	Workers     int
	Now         time.Time
}

// Generated is the outcome for one playlist.
type Generated struct {
	Name   string
	Tracks int
	Path   string
	Hash   string
	Output string
}

type GenerateResult struct {
	Playlists []Generated
}

// Generate registers the new playlists, evaluates them together with every
// saved playlist and writes each one to its list file. With OutputOnly the
// new playlists are only evaluated and rendered.
func (u *Playlists) Generate(ctx context.Context, db *library.Database, input GenerateInput) (*GenerateResult, error) {
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}
	if err := checkUniqueNames(input.New); err != nil {
		return nil, err
	}

	if input.OutputOnly {
		return u.renderOnly(ctx, db, input, now)
	}

	if input.PlaylistDir == "" {
		return nil, errors.New("no playlist directory: set playlist_dir or playlist_directory in the MPD config")
	}
	regs := make([]services.Registration, len(input.New))
	for i, np := range input.New {
		regs[i] = services.Registration{Name: np.Name, Ruleset: np.Ruleset}
	}
	if _, err := u.service.RegisterAll(ctx, regs, input.Replace, now); err != nil {
		return nil, err
	}

	records, err := u.service.List(ctx)
	if err != nil {
		return nil, err
	}
	playlists := make([]*playlist.Playlist, len(records))
	for i, rec := range records {
		p, err := playlist.New(rec.Name, rec.Ruleset, now)
		if err != nil {
			return nil, fmt.Errorf("saved playlist %q: %w", rec.Name, err)
		}
		playlists[i] = p
	}

	if err := playlist.EvaluateAll(ctx, playlists, db, input.Workers); err != nil {
		return nil, err
	}

	result := &GenerateResult{Playlists: make([]Generated, 0, len(playlists))}
	for i, p := range playlists {
		path, hash, err := filesystem.WriteList(input.PlaylistDir, p.Name, p.M3U())
		if err != nil {
			return nil, fmt.Errorf("writing playlist %q: %w", p.Name, err)
		}
		u.logger.Info().Str("playlist", p.Name).Str("path", path).Int("tracks", len(p.Tracks())).Msg("saving playlist")

		if err := u.service.RecordEvaluation(ctx, records[i].ID, database.Evaluation{
			ListPath:    path,
			Hash:        hash,
			TrackCount:  len(p.Tracks()),
			EvaluatedAt: now,
		}); err != nil {
			return nil, err
		}
		result.Playlists = append(result.Playlists, Generated{
			Name:   p.Name,
			Tracks: len(p.Tracks()),
			Path:   path,
			Hash:   hash,
		})
	}
	return result, nil
}

func (u *Playlists) renderOnly(ctx context.Context, db *library.Database, input GenerateInput, now time.Time) (*GenerateResult, error) {
	playlists := make([]*playlist.Playlist, len(input.New))
	for i, np := range input.New {
		p, err := playlist.New(np.Name, np.Ruleset, now)
		if err != nil {
			return nil, fmt.Errorf("playlist %q: %w", np.Name, err)
		}
		playlists[i] = p
	}

	if err := playlist.EvaluateAll(ctx, playlists, db, input.Workers); err != nil {
		return nil, err
	}

	result := &GenerateResult{Playlists: make([]Generated, len(playlists))}
	for i, p := range playlists {
		result.Playlists[i] = Generated{Name: p.Name, Tracks: len(p.Tracks()), Output: p.M3U()}
	}
	return result, nil
}

func checkUniqueNames(items []NewPlaylist) error {
	seen := make(map[string]struct{}, len(items))
	for _, np := range items {
		if _, dup := seen[np.Name]; dup {
			return fmt.Errorf("playlist %q given more than once", np.Name)
		}
		seen[np.Name] = struct{}{}
	}
	return nil
}

func (u *Playlists) List(ctx context.Context) ([]database.PlaylistRecord, error) {
	return u.service.List(ctx)
}

type ShowResult struct {
	Record database.PlaylistRecord
	// Intact is false when the list file is missing or was changed since it was written.
	Intact  bool
	Entries []string
}

// Show returns a saved playlist, checking its list file against the recorded
// hash. Entries are read only when withEntries is set and the file is intact.
func (u *Playlists) Show(ctx context.Context, name string, withEntries bool) (*ShowResult, error) {
	record, err := u.service.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	result := &ShowResult{Record: *record}
	if record.ListPath == "" {
		return result, nil
	}

	ok, err := filesystem.VerifyList(record.ListPath, record.Hash)
	if err != nil {
		return nil, err
	}
	result.Intact = ok
	if ok && withEntries {
		entries, err := filesystem.ReadEntries(record.ListPath)
		if err != nil {
			return nil, err
		}
		result.Entries = entries
	}
	return result, nil
}

// Delete removes a saved playlist and, unless keepList is set, its list file.
func (u *Playlists) Delete(ctx context.Context, name string, keepList bool) (*database.PlaylistRecord, error) {
	record, err := u.service.Remove(ctx, name)
	if err != nil {
		return nil, err
	}
	if !keepList {
		if err := filesystem.DeleteList(record.ListPath); err != nil {
			return nil, fmt.Errorf("removing list file of %q: %w", name, err)
		}
	}
	return record, nil
}

// DeleteAll empties the registry and, unless keepList is set, removes every
// recorded list file.
func (u *Playlists) DeleteAll(ctx context.Context, keepList bool) ([]database.PlaylistRecord, error) {
	records, err := u.service.Clear(ctx)
	if err != nil {
		return nil, err
	}
	if keepList {
		return records, nil
	}
	for _, rec := range records {
		if err := filesystem.DeleteList(rec.ListPath); err != nil {
			return records, fmt.Errorf("removing list file of %q: %w", rec.Name, err)
		}
	}
	return records, nil
}
