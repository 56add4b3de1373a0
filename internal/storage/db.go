// Package storage persists categories with their watermarks, destinations with their
// enabled categories and the last title delivered per destination and category.
//
// Every method issues a single self-contained statement, so concurrent poll-cycle tasks
// never interleave inside a transaction. SQLite databases are limited to one open
// connection, which serializes access the way the Postgres server does on its own.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

//go:embed migrations
var migrationFS embed.FS

const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite"
)

// ParseDSN splits a database DSN into the database/sql driver name and its data source.
// postgres:// and postgresql:// URLs are passed to lib/pq as is; sqlite://<path> opens
// a SQLite file with foreign keys enabled.
func ParseDSN(dsn string) (driver, source string, err error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return driverPostgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("empty sqlite path in dsn %q", dsn)
		}
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return driverSQLite, path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", nil
	default:
		return "", "", fmt.Errorf("unsupported database dsn %q", dsn)
	}
}

// Open connects to the database described by dsn and applies pending migrations.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	driver, source, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}

	if err := migrateUp(driver, source); err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, driver, source)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", driver, err)
	}

	if driver == driverSQLite {
		db.SetMaxOpenConns(1)
	}

	return db, nil
}

func migrateUp(driver, source string) error {
	conn, err := sql.Open(driver, source)
	if err != nil {
		return fmt.Errorf("open %s for migrations: %w", driver, err)
	}

	var instance database.Driver
	switch driver {
	case driverPostgres:
		instance, err = postgres.WithInstance(conn, &postgres.Config{})
	case driverSQLite:
		instance, err = sqlite.WithInstance(conn, &sqlite.Config{})
	}
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("create %s migration driver: %w", driver, err)
	}

	src, err := iofs.New(migrationFS, "migrations/"+driver)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, instance)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
