package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cesargomez89/songplays/internal/constants"
	"github.com/cesargomez89/songplays/internal/domain"
)

const songArtistQuery = `SELECT songs.song_id, artists.artist_id
	FROM songs
	JOIN artists ON songs.artist_id = artists.artist_id
	WHERE songs.title = ? AND artists.name = ? AND songs.duration = ?
	ORDER BY songs.song_id
	LIMIT 1`

// FindSongArtist finds the song with the exact title, artist name and
// duration. found is false when nothing matches.
func (db *DB) FindSongArtist(ctx context.Context, title, artist string, duration float64) (songID, artistID string, found bool, err error) {
	var row struct {
		SongID   string `db:"song_id"`
		ArtistID string `db:"artist_id"`
	}
	err = db.GetContext(ctx, &row, db.Rebind(songArtistQuery), title, artist, duration)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("failed to look up song: %w", err)
	}
	return row.SongID, row.ArtistID, true, nil
}

// GetUser returns the stored user or nil when absent.
func (db *DB) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := db.GetContext(ctx, &u, db.Rebind(`SELECT user_id, first_name, last_name, gender, level, last_seen_ms FROM users WHERE user_id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListSongPlays returns every fact row ordered by id.
func (db *DB) ListSongPlays(ctx context.Context) ([]domain.SongPlay, error) {
	var plays []domain.SongPlay
	err := db.SelectContext(ctx, &plays, `SELECT songplay_id, start_time, user_id, level, song_id, artist_id, session_id, location, user_agent
		FROM songplays ORDER BY songplay_id`)
	return plays, err
}

// Counts returns the number of rows in each table.
func (db *DB) Counts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(constants.Tables))
	for _, name := range constants.Tables {
		var n int64
		if err := db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+name); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", name, err)
		}
		counts[name] = n
	}
	return counts, nil
}
