package library

import "errors"

var (
	// ErrSourceMissing indicates the dump or a configured ratings database does not exist.
	ErrSourceMissing = errors.New("library: source file missing")

	// ErrStaleOrCorruptCache indicates the cache file cannot be used and must be rebuilt.
	ErrStaleOrCorruptCache = errors.New("library: cache is stale or corrupt, rebuild with --force")

	// ErrConflictingRatings indicates both a sticker and a stats database were configured.
	ErrConflictingRatings = errors.New("library: sticker and stats databases are mutually exclusive")
)
