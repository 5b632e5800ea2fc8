package library

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"

	"github.com/mpdspl/mpdspl/internal/keyword"
)

const (
	regionBegin = "songList begin"
	regionEnd   = "songList end"
	recordKey   = "key"
)

var gzipMagic = []byte{0x1f, 0x8b}

// Source records what a Database was built from.
type Source struct {
	Dump        string      `json:"dump"`
	Ratings     string      `json:"ratings,omitempty"`
	RatingsKind RatingsKind `json:"ratings_kind,omitempty"`
	BuiltAt     time.Time   `json:"built_at"`
}

// Database is an ordered, read-only snapshot of the library keyed by file.
type Database struct {
	tracks []Track
	index  map[string]int
	source Source
}

func newDatabase() *Database {
	return &Database{index: make(map[string]int)}
}

// NewDatabase builds a Database from tracks in order. Later tracks with an
// already seen file replace the earlier values but keep the earlier position.
func NewDatabase(tracks []Track) *Database {
	db := newDatabase()
	for _, t := range tracks {
		db.put(t)
	}
	return db
}

func (db *Database) put(t Track) {
	if i, ok := db.index[t.File()]; ok {
		db.tracks[i] = t
		return
	}
	db.index[t.File()] = len(db.tracks)
	db.tracks = append(db.tracks, t)
}

// Len returns the number of tracks.
func (db *Database) Len() int { return len(db.tracks) }

// Tracks returns every track in database order. The slice must not be modified.
func (db *Database) Tracks() []Track { return db.tracks }

// Get returns the track stored under file.
func (db *Database) Get(file string) (Track, bool) {
	i, ok := db.index[file]
	if !ok {
		return Track{}, false
	}
	return db.tracks[i], true
}

// Source returns the inputs the database was built from.
func (db *Database) Source() Source { return db.source }

// BuildOptions names the inputs of Build.
type BuildOptions struct {
	DumpPath string
	Ratings  RatingsSource
	Now      time.Time
	Logger   zerolog.Logger
}

// Build parses the MPD database dump and overlays ratings when a ratings
// source is configured.
func Build(ctx context.Context, opts BuildOptions) (*Database, error) {
	if err := CheckSources(opts.DumpPath, opts.Ratings); err != nil {
		return nil, err
	}

	db, err := ReadDump(opts.DumpPath, opts.Logger)
	if err != nil {
		return nil, err
	}

	if opts.Ratings.Configured() {
		overlays, err := opts.Ratings.Read(ctx)
		if err != nil {
			return nil, err
		}
		matched := db.Overlay(overlays)
		opts.Logger.Debug().
			Str("kind", string(opts.Ratings.Kind)).
			Int("rows", len(overlays)).
			Int("matched", matched).
			Msg("applied ratings")
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	db.source = Source{
		Dump:        opts.DumpPath,
		Ratings:     opts.Ratings.Path,
		RatingsKind: opts.Ratings.Kind,
		BuiltAt:     now.UTC(),
	}
	return db, nil
}

// ReadDump opens and parses an MPD database dump, decompressing it first when
// it is gzip-compressed.
func ReadDump(path string, logger zerolog.Logger) (*Database, error) {
	//nolint:gosec // G304: path comes from configuration
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database dump: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if magic, err := br.Peek(len(gzipMagic)); err == nil && bytes.Equal(magic, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to read compressed database dump: %w", err)
		}
		defer func() {
			_ = zr.Close()
		}()
		r = zr
	}

	db, err := ParseDump(r, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return db, nil
}

// ParseDump reads the song records of an MPD database dump. Records live
// between "songList begin" and "songList end" lines; each starts with a
// "key:" line and holds "name: value" lines.
func ParseDump(r io.Reader, logger zerolog.Logger) (*Database, error) {
	db := newDatabase()

	var (
		current   *Track
		inRegion  bool
		lineNo    int
		discarded int
	)
	flush := func() {
		if current == nil {
			return
		}
		if current.File() == "" {
			discarded++
			logger.Warn().Int("line", lineNo).Str("key", current.Attr(keyword.AttrKey)).Msg("dropping song without file")
		} else {
			db.put(*current)
		}
		current = nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case regionBegin:
			inRegion = true
			continue
		case regionEnd:
			flush()
			inRegion = false
			continue
		}
		if !inRegion {
			continue
		}

		name, value, ok := strings.Cut(line, ": ")
		if !ok {
			name, ok = strings.CutSuffix(line, ":")
			if !ok {
				logger.Debug().Int("line", lineNo).Str("text", line).Msg("skipping malformed dump line")
				continue
			}
		}
		name = strings.ToLower(name)

		if name == recordKey {
			flush()
			t := newTrack()
			current = &t
		}
		if current == nil {
			logger.Debug().Int("line", lineNo).Msg("skipping attribute outside a song record")
			continue
		}
		current.set(name, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	logger.Debug().Int("songs", db.Len()).Int("discarded", discarded).Msg("parsed database dump")
	return db, nil
}

// Overlay sets rating attributes on tracks by file and returns the number of
// tracks that received values. Unknown files are ignored.
func (db *Database) Overlay(overlays map[string]map[string]string) int {
	matched := 0
	for file, attrs := range overlays {
		t, ok := db.Get(file)
		if !ok {
			continue
		}
		for name, value := range attrs {
			t.set(name, value)
		}
		matched++
	}
	return matched
}
