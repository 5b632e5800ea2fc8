package library

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mpdspl/mpdspl/internal/keyword"

	// Import SQLite driver for database/sql
	_ "modernc.org/sqlite"
)

// RatingsKind names the schema of a ratings database.
type RatingsKind string

const (
	// RatingsSticker is MPD's own sticker database.
	RatingsSticker RatingsKind = "sticker"
	// RatingsStats is an mpdcron-style statistics database.
	RatingsStats RatingsKind = "stats"
)

const stickerQuery = `SELECT uri, value FROM sticker WHERE type = 'song' AND name = 'rating'`

const statsQuery = `
SELECT s.uri, s.rating, s.play_count, ar.rating, al.rating, g.rating
FROM song s
LEFT JOIN artist ar ON ar.name = s.artist
LEFT JOIN album al ON al.name = s.album AND al.artist = s.artist
LEFT JOIN genre g ON g.name = s.genre`

// RatingsSource is an optional SQLite database providing per-track ratings.
// The zero value means no ratings.
type RatingsSource struct {
	Kind RatingsKind
	Path string
}

// NewRatingsSource picks the ratings database from a sticker and a stats
// path, at most one of which may be set.
func NewRatingsSource(stickerPath, statsPath string) (RatingsSource, error) {
	switch {
	case stickerPath != "" && statsPath != "":
		return RatingsSource{}, ErrConflictingRatings
	case stickerPath != "":
		return RatingsSource{Kind: RatingsSticker, Path: stickerPath}, nil
	case statsPath != "":
		return RatingsSource{Kind: RatingsStats, Path: statsPath}, nil
	}
	return RatingsSource{}, nil
}

// Configured reports whether a ratings database is set.
func (s RatingsSource) Configured() bool {
	return s.Path != ""
}

// Read loads rating attributes keyed by track file.
func (s RatingsSource) Read(ctx context.Context) (map[string]map[string]string, error) {
	db, err := openReadOnly(s.Path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = db.Close()
	}()

	switch s.Kind {
	case RatingsSticker:
		return readSticker(ctx, db)
	case RatingsStats:
		return readStats(ctx, db)
	}
	return nil, fmt.Errorf("unknown ratings source kind %q", s.Kind)
}

func openReadOnly(path string) (*sql.DB, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve ratings path: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?mode=ro", filepath.ToSlash(absPath))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ratings database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open ratings database: %w", err)
	}
	return db, nil
}

func readSticker(ctx context.Context, db *sql.DB) (map[string]map[string]string, error) {
	rows, err := db.QueryContext(ctx, stickerQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query sticker database: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := make(map[string]map[string]string)
	for rows.Next() {
		var uri, value sql.NullString
		if err := rows.Scan(&uri, &value); err != nil {
			return nil, fmt.Errorf("failed to read sticker row: %w", err)
		}
		if !uri.Valid {
			continue
		}
		out[uri.String] = map[string]string{keyword.AttrRating: value.String}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sticker database: %w", err)
	}
	return out, nil
}

func readStats(ctx context.Context, db *sql.DB) (map[string]map[string]string, error) {
	rows, err := db.QueryContext(ctx, statsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats database: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := make(map[string]map[string]string)
	for rows.Next() {
		var uri, rating, playCount, artistRating, albumRating, genreRating sql.NullString
		if err := rows.Scan(&uri, &rating, &playCount, &artistRating, &albumRating, &genreRating); err != nil {
			return nil, fmt.Errorf("failed to read stats row: %w", err)
		}
		if !uri.Valid {
			continue
		}
		attrs := make(map[string]string, 5)
		setValid(attrs, keyword.AttrRating, rating)
		setValid(attrs, keyword.AttrPlayCount, playCount)
		setValid(attrs, keyword.AttrArtistRating, artistRating)
		setValid(attrs, keyword.AttrAlbumRating, albumRating)
		setValid(attrs, keyword.AttrGenreRating, genreRating)
		out[uri.String] = attrs
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stats database: %w", err)
	}
	return out, nil
}

func setValid(attrs map[string]string, name string, ns sql.NullString) {
	if ns.Valid {
		attrs[name] = ns.String
	}
}

// CheckSources verifies the dump and any configured ratings database exist.
func CheckSources(dumpPath string, ratings RatingsSource) error {
	if dumpPath == "" {
		return fmt.Errorf("%w: no MPD database file configured", ErrSourceMissing)
	}
	if !isFile(dumpPath) {
		return fmt.Errorf("%w: %s", ErrSourceMissing, dumpPath)
	}
	if ratings.Configured() && !isFile(ratings.Path) {
		return fmt.Errorf("%w: %s", ErrSourceMissing, ratings.Path)
	}
	return nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
