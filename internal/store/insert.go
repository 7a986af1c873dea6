package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/cesargomez89/songplays/internal/domain"
)

// Strategy selects how an insert reacts to a primary-key conflict.
type Strategy int

const (
	// StrategyInsert is a plain insert with no uniqueness assumption.
	StrategyInsert Strategy = iota
	// StrategyIgnore keeps the existing row.
	StrategyIgnore
	// StrategyUpsert overwrites the Update columns of the existing row,
	// optionally only when Guard holds.
	StrategyUpsert
)

func (s Strategy) String() string {
	switch s {
	case StrategyInsert:
		return "insert"
	case StrategyIgnore:
		return "ignore"
	case StrategyUpsert:
		return "upsert"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Conflict is the conflict resolution of one table.
type Conflict struct {
	Strategy Strategy
	Update   []string
	Guard    string
}

// insertStatement renders a named-parameter insert for t. Serial columns are
// left to the database.
func (t table) insertStatement() string {
	cols := make([]string, 0, len(t.columns))
	params := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		if c.kind == kindSerial {
			continue
		}
		cols = append(cols, c.name)
		params = append(params, ":"+c.name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (%s)", t.name, strings.Join(cols, ", "), strings.Join(params, ", "))

	switch t.conflict.Strategy {
	case StrategyIgnore:
		fmt.Fprintf(&b, " ON CONFLICT (%s) DO NOTHING", strings.Join(t.key, ", "))
	case StrategyUpsert:
		sets := make([]string, len(t.conflict.Update))
		for i, c := range t.conflict.Update {
			sets[i] = c + " = excluded." + c
		}
		fmt.Fprintf(&b, " ON CONFLICT (%s) DO UPDATE SET %s", strings.Join(t.key, ", "), strings.Join(sets, ", "))
		if t.conflict.Guard != "" {
			b.WriteString(" WHERE " + t.conflict.Guard)
		}
	}
	return b.String()
}

// insertStatements is rendered once; table definitions never change at runtime.
var insertStatements = func() map[string]string {
	m := make(map[string]string, len(schemaTables))
	for _, t := range schemaTables {
		m[t.name] = t.insertStatement()
	}
	return m
}()

// insert writes row into t and reports whether a row was written or updated.
func (db *DB) insert(ctx context.Context, t table, row interface{}) (bool, error) {
	res, err := db.NamedExecContext(ctx, insertStatements[t.name], row)
	if err != nil {
		return false, fmt.Errorf("failed to insert into %s: %w", t.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (db *DB) InsertArtist(ctx context.Context, a *domain.Artist) (bool, error) {
	return db.insert(ctx, artistsTable, a)
}

func (db *DB) InsertSong(ctx context.Context, s *domain.Song) (bool, error) {
	return db.insert(ctx, songsTable, s)
}

func (db *DB) InsertTime(ctx context.Context, t *domain.TimeRow) (bool, error) {
	return db.insert(ctx, timeTable, t)
}

// UpsertUser inserts u or refreshes the stored user when u comes from an
// event at least as recent as the stored one.
func (db *DB) UpsertUser(ctx context.Context, u *domain.User) (bool, error) {
	return db.insert(ctx, usersTable, u)
}

func (db *DB) InsertSongPlay(ctx context.Context, p *domain.SongPlay) error {
	_, err := db.insert(ctx, songplaysTable, p)
	return err
}
