package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// dbOps is the query surface shared by *sqlx.DB and *sqlx.Tx.
type dbOps interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// DB is a session on the target database. Inside RunInTx the same methods
// run against the transaction.
type DB struct {
	dbOps
	root    *sqlx.DB
	dialect Dialect
	inTx    bool
}

// Options selects the engine and connection string.
type Options struct {
	Driver string
	DSN    string
}

// Open connects to the database and verifies the connection. The pool is
// capped at one connection so a run holds a single exclusive session.
func Open(ctx context.Context, opts Options) (*DB, error) {
	d, err := DialectFor(opts.Driver)
	if err != nil {
		return nil, err
	}

	root, err := sqlx.Open(d.driverName, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	root.SetMaxOpenConns(1)

	if err := root.PingContext(ctx); err != nil {
		root.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	for _, pragma := range d.pragmas {
		if _, err := root.ExecContext(ctx, pragma); err != nil {
			root.Close() //nolint:errcheck // already failing
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return &DB{dbOps: root, root: root, dialect: d}, nil
}

func (db *DB) Dialect() Dialect {
	return db.dialect
}

func (db *DB) Close() error {
	return db.root.Close()
}

// RunInTx runs fn inside a transaction, committing when fn returns nil.
// Calls made on a DB that is already inside a transaction join it.
func (db *DB) RunInTx(ctx context.Context, fn func(tx *DB) error) error {
	if db.inTx {
		return fn(db)
	}

	tx, err := db.root.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	txDB := &DB{
		dbOps:   tx,
		root:    db.root,
		dialect: db.dialect,
		inTx:    true,
	}

	if err := fn(txDB); err != nil {
		return err
	}
	return tx.Commit()
}
