// Package database stores the registry of saved playlists in SQLite.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/mpdspl/mpdspl/db/migrations"
	"github.com/mpdspl/mpdspl/internal/config"
	sqldb "github.com/mpdspl/mpdspl/internal/database/sqlc"

	// Import SQLite driver for database/sql
	_ "modernc.org/sqlite"
)

// MemoryPath keeps the registry in memory for the life of the connection.
const MemoryPath = ":memory:"

// A generate run and a running MCP server may open the registry at once.
const registryPragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Context holds the registry connection and its queries.
type Context struct {
	DB      *sql.DB
	Queries *sqldb.Queries
}

// CreateDatabase opens the playlist registry at dbPath and brings its schema
// up to date. An empty path selects playlists.db in the data directory.
func CreateDatabase(dbPath string) (*Context, error) {
	dsn, err := registryDSN(dbPath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open playlist registry: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open playlist registry: %w", err)
	}
	if err := migrateRegistry(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Context{DB: db, Queries: sqldb.New(db)}, nil
}

// CloseDatabase closes the registry connection.
func CloseDatabase(ctx *Context) error {
	if ctx == nil || ctx.DB == nil {
		return nil
	}
	return ctx.DB.Close()
}

func registryDSN(dbPath string) (string, error) {
	switch dbPath {
	case MemoryPath:
		return "file::memory:?cache=shared", nil
	case "":
		dbPath = config.GetDBPath()
	}

	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve registry path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o750); err != nil {
		return "", fmt.Errorf("failed to create registry directory: %w", err)
	}
	return "file:" + filepath.ToSlash(absPath) + "?" + registryPragmas, nil
}

// migrateRegistry applies the embedded schema migrations that are not yet
// recorded in schema_migrations.
func migrateRegistry(db *sql.DB) error {
	target, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("registry migrations: %w", err)
	}

	source, err := iofs.New(migrations.Files, ".")
	if err != nil {
		return fmt.Errorf("registry migrations: %w", err)
	}
	defer func() {
		_ = source.Close()
	}()

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", target)
	if err != nil {
		return fmt.Errorf("registry migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("registry migrations: %w", err)
	}
	return nil
}
