package library

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mpdspl/mpdspl/internal/keyword"
)

// cacheVersion changes whenever the cache layout does.
const cacheVersion = 1

type cacheDocument struct {
	Version int           `json:"version"`
	Source  Source        `json:"source"`
	Tracks  []cacheRecord `json:"tracks"`
}

type cacheRecord struct {
	File       string            `json:"file"`
	Attributes map[string]string `json:"attributes"`
}

// Save writes the database to path, replacing any previous cache atomically.
func (db *Database) Save(path string) error {
	doc := cacheDocument{
		Version: cacheVersion,
		Source:  db.source,
		Tracks:  make([]cacheRecord, len(db.tracks)),
	}
	for i, t := range db.tracks {
		doc.Tracks[i] = cacheRecord{File: t.File(), Attributes: t.attrs}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".mpddb-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	enc := json.NewEncoder(tmp)
	if err := enc.Encode(doc); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

// Load reads a cache written by Save. Any structural problem is reported as
// ErrStaleOrCorruptCache.
func Load(path string) (*Database, error) {
	//nolint:gosec // G304: path comes from configuration
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var doc cacheDocument
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStaleOrCorruptCache, err)
	}
	if doc.Version != cacheVersion {
		return nil, fmt.Errorf("%w: cache version %d, expected %d", ErrStaleOrCorruptCache, doc.Version, cacheVersion)
	}

	db := newDatabase()
	db.source = doc.Source
	for i, rec := range doc.Tracks {
		if rec.File == "" || rec.Attributes[keyword.AttrFile] != rec.File {
			return nil, fmt.Errorf("%w: record %d has an inconsistent file", ErrStaleOrCorruptCache, i)
		}
		if _, dup := db.index[rec.File]; dup {
			return nil, fmt.Errorf("%w: duplicate record for %s", ErrStaleOrCorruptCache, rec.File)
		}
		db.put(NewTrack(rec.Attributes))
	}
	return db, nil
}

// NeedsRefresh reports whether the cache must be rebuilt: it does not exist,
// or the dump or the ratings database was modified after it.
func NeedsRefresh(cachePath, dumpPath string, ratings RatingsSource) bool {
	cacheInfo, err := os.Stat(cachePath)
	if err != nil || cacheInfo.IsDir() {
		return true
	}
	if newerThan(dumpPath, cacheInfo) {
		return true
	}
	return ratings.Configured() && newerThan(ratings.Path, cacheInfo)
}

func newerThan(path string, ref os.FileInfo) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.ModTime().After(ref.ModTime())
}
