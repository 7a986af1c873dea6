package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/cesargomez89/songplays/internal/constants"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

type columnKind int

const (
	kindID columnKind = iota
	kindText
	kindInt
	kindBigInt
	kindFloat
	kindTimestamp
	kindSerial
)

// Dialect captures what differs between the supported engines.
type Dialect struct {
	Name         string
	driverName   string
	types        map[columnKind]string
	pragmas      []string
	tableExists  string
	hasDatabases bool
}

var (
	SQLite = Dialect{
		Name:       constants.DriverSQLite,
		driverName: "sqlite",
		types: map[columnKind]string{
			kindID:        "VARCHAR(64)",
			kindText:      "TEXT",
			kindInt:       "INTEGER",
			kindBigInt:    "BIGINT",
			kindFloat:     "REAL",
			kindTimestamp: "TIMESTAMP",
			kindSerial:    "INTEGER PRIMARY KEY AUTOINCREMENT",
		},
		pragmas: []string{
			"PRAGMA foreign_keys = ON",
			"PRAGMA busy_timeout = 30000",
		},
		tableExists: `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
	}

	Postgres = Dialect{
		Name:       constants.DriverPostgres,
		driverName: "pgx",
		types: map[columnKind]string{
			kindID:        "VARCHAR(64)",
			kindText:      "TEXT",
			kindInt:       "INTEGER",
			kindBigInt:    "BIGINT",
			kindFloat:     "DOUBLE PRECISION",
			kindTimestamp: "TIMESTAMP",
			kindSerial:    "SERIAL PRIMARY KEY",
		},
		tableExists: `SELECT COUNT(*) FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = ?`,
		hasDatabases: true,
	}
)

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	switch name {
	case constants.DriverSQLite:
		return SQLite, nil
	case constants.DriverPostgres:
		return Postgres, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", name)
	}
}

func (d Dialect) typeOf(k columnKind) string {
	return d.types[k]
}

// ResetDatabase drops and recreates the database name through a connection
// to an administrative database. Engines without separate databases, such
// as SQLite where the file is the database, are left untouched.
func ResetDatabase(ctx context.Context, d Dialect, adminDSN, name string) error {
	if !d.hasDatabases {
		return nil
	}

	admin, err := sqlx.Open(d.driverName, adminDSN)
	if err != nil {
		return fmt.Errorf("failed to open admin db: %w", err)
	}
	defer admin.Close() //nolint:errcheck // deferred cleanup

	if err := admin.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping admin db: %w", err)
	}

	ident := pgx.Identifier{name}.Sanitize()
	if _, err := admin.ExecContext(ctx, "DROP DATABASE IF EXISTS "+ident); err != nil {
		return fmt.Errorf("failed to drop database %s: %w", name, err)
	}
	if _, err := admin.ExecContext(ctx, "CREATE DATABASE "+ident+" WITH ENCODING 'utf8' TEMPLATE template0"); err != nil {
		return fmt.Errorf("failed to create database %s: %w", name, err)
	}
	return nil
}
