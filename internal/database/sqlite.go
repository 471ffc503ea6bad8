package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/deppfellow/gitminer/internal/config"
)

//go:embed sqlite/*.sql
var sqliteMigrations embed.FS

// MemoryPath opens a private in-memory SQLite database.
const MemoryPath = ":memory:"

// SQLite wraps a database/sql handle on the pure Go SQLite driver.
type SQLite struct {
	DB  *sql.DB
	log *zerolog.Logger
}

// OpenSQLite opens (or creates) the SQLite database at path and applies
// the embedded schema. Use MemoryPath for a throwaway database.
func OpenSQLite(ctx context.Context, path string, logger *zerolog.Logger) (*SQLite, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path != MemoryPath {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// SQLite serialises writers anyway, and every connection to ":memory:"
	// would otherwise see its own empty database.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite database: %w", err)
	}

	lite := &SQLite{DB: db, log: logger}
	if err := lite.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("running sqlite migrations: %w", err)
	}

	logger.Info().
		Str("driver", config.DriverSQLite).
		Str("path", path).
		Msg("connected to the database")

	return lite, nil
}

// migrate applies every embedded migration newer than PRAGMA user_version.
func (s *SQLite) migrate(ctx context.Context) error {
	var version int
	if err := s.DB.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading user_version: %w", err)
	}

	names, err := fs.Glob(sqliteMigrations, "sqlite/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for i, name := range names {
		target := i + 1
		if target <= version {
			continue
		}

		script, err := sqliteMigrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if err := s.apply(ctx, target, string(script)); err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
		s.log.Debug().Str("migration", name).Int("version", target).Msg("applied sqlite migration")
	}

	return nil
}

func (s *SQLite) apply(ctx context.Context, version int, script string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range strings.Split(script, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("setting user_version: %w", err)
	}

	return tx.Commit()
}

// Ping checks connectivity; used by the health endpoint.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Close closes the underlying database handle.
func (s *SQLite) Close() error {
	s.log.Info().Msg("closing sqlite database")
	return s.DB.Close()
}
