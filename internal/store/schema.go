package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cesargomez89/songplays/internal/constants"
)

// ErrSchemaMissing is returned by RequireSchema when any table is absent.
var ErrSchemaMissing = errors.New("schema not initialized")

type column struct {
	name       string
	kind       columnKind
	notNull    bool
	references string
}

type table struct {
	name     string
	columns  []column
	key      []string
	conflict Conflict
}

var (
	artistsTable = table{
		name: constants.TableArtists,
		columns: []column{
			{name: "artist_id", kind: kindID, notNull: true},
			{name: "name", kind: kindText, notNull: true},
			{name: "location", kind: kindText},
			{name: "latitude", kind: kindFloat},
			{name: "longitude", kind: kindFloat},
		},
		key:      []string{"artist_id"},
		conflict: Conflict{Strategy: StrategyIgnore},
	}

	songsTable = table{
		name: constants.TableSongs,
		columns: []column{
			{name: "song_id", kind: kindID, notNull: true},
			{name: "title", kind: kindText, notNull: true},
			{name: "artist_id", kind: kindID, references: "artists (artist_id)"},
			{name: "year", kind: kindInt},
			{name: "duration", kind: kindFloat},
		},
		key:      []string{"song_id"},
		conflict: Conflict{Strategy: StrategyIgnore},
	}

	usersTable = table{
		name: constants.TableUsers,
		columns: []column{
			{name: "user_id", kind: kindID, notNull: true},
			{name: "first_name", kind: kindText},
			{name: "last_name", kind: kindText},
			{name: "gender", kind: kindText},
			{name: "level", kind: kindText},
			{name: "last_seen_ms", kind: kindBigInt, notNull: true},
		},
		key: []string{"user_id"},
		conflict: Conflict{
			Strategy: StrategyUpsert,
			Update:   []string{"first_name", "last_name", "gender", "level", "last_seen_ms"},
			Guard:    "excluded.last_seen_ms >= users.last_seen_ms",
		},
	}

	timeTable = table{
		name: constants.TableTime,
		columns: []column{
			{name: "start_time", kind: kindTimestamp, notNull: true},
			{name: "hour", kind: kindInt, notNull: true},
			{name: "day", kind: kindInt, notNull: true},
			{name: "week", kind: kindInt, notNull: true},
			{name: "month", kind: kindInt, notNull: true},
			{name: "year", kind: kindInt, notNull: true},
			{name: "weekday", kind: kindInt, notNull: true},
			{name: "weekday_name", kind: kindText, notNull: true},
		},
		key:      []string{"start_time"},
		conflict: Conflict{Strategy: StrategyIgnore},
	}

	songplaysTable = table{
		name: constants.TableSongplays,
		columns: []column{
			{name: "songplay_id", kind: kindSerial},
			{name: "start_time", kind: kindTimestamp, notNull: true, references: "time (start_time)"},
			{name: "user_id", kind: kindID, notNull: true, references: "users (user_id)"},
			{name: "level", kind: kindText},
			{name: "song_id", kind: kindID, references: "songs (song_id)"},
			{name: "artist_id", kind: kindID, references: "artists (artist_id)"},
			{name: "session_id", kind: kindBigInt},
			{name: "location", kind: kindText},
			{name: "user_agent", kind: kindText},
		},
		conflict: Conflict{Strategy: StrategyInsert},
	}
)

// schemaTables lists the tables in creation order; a table only references
// tables before it.
var schemaTables = []table{artistsTable, songsTable, usersTable, timeTable, songplaysTable}

func (t table) createStatement(d Dialect) string {
	defs := make([]string, 0, len(t.columns)+1)
	for _, c := range t.columns {
		def := c.name + " " + d.typeOf(c.kind)
		if c.notNull {
			def += " NOT NULL"
		}
		if c.references != "" {
			def += " REFERENCES " + c.references
		}
		defs = append(defs, def)
	}
	if len(t.key) > 0 {
		defs = append(defs, "PRIMARY KEY ("+strings.Join(t.key, ", ")+")")
	}
	return "CREATE TABLE " + t.name + " (\n\t" + strings.Join(defs, ",\n\t") + "\n)"
}

func (t table) dropStatement() string {
	return "DROP TABLE IF EXISTS " + t.name
}

// ResetSchema drops every table and recreates them empty.
func (db *DB) ResetSchema(ctx context.Context) error {
	return db.RunInTx(ctx, func(tx *DB) error {
		for i := len(schemaTables) - 1; i >= 0; i-- {
			if _, err := tx.ExecContext(ctx, schemaTables[i].dropStatement()); err != nil {
				return fmt.Errorf("failed to drop table %s: %w", schemaTables[i].name, err)
			}
		}
		for _, t := range schemaTables {
			if _, err := tx.ExecContext(ctx, t.createStatement(db.dialect)); err != nil {
				return fmt.Errorf("failed to create table %s: %w", t.name, err)
			}
		}
		return nil
	})
}

// RequireSchema fails with ErrSchemaMissing unless all tables exist.
func (db *DB) RequireSchema(ctx context.Context) error {
	var missing []string
	for _, t := range schemaTables {
		var n int
		if err := db.GetContext(ctx, &n, db.Rebind(db.dialect.tableExists), t.name); err != nil {
			return fmt.Errorf("failed to check table %s: %w", t.name, err)
		}
		if n == 0 {
			missing = append(missing, t.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing tables %s (run init-schema first)", ErrSchemaMissing, strings.Join(missing, ", "))
	}
	return nil
}
