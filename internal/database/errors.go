package database

import "errors"

var (
	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("database: not found")

	// ErrPlaylistExists indicates a playlist with the same name is already saved.
	ErrPlaylistExists = errors.New("database: playlist already exists")
)
