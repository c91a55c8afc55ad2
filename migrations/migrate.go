// Package migrations embeds and applies the goose schema migrations of the
// device local store (SQLite) and of the remote operation store (PostgreSQL).
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed client/*.sql server/*.sql
var embedMigrations embed.FS

const (
	clientDir = "client"
	serverDir = "server"
)

var errNilDB = errors.New("db is nil")

// MigrateServer applies the remote store schema to a PostgreSQL database
// opened with the pgx stdlib driver.
func MigrateServer(db *sql.DB) error {
	return migrate(db, "pgx", serverDir)
}

// MigrateClient applies the local store schema to a SQLite database.
func MigrateClient(db *sql.DB) error {
	return migrate(db, "sqlite3", clientDir)
}

func migrate(db *sql.DB, dialect, dir string) error {
	if db == nil {
		return fmt.Errorf("migration error: %w", errNilDB)
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}
