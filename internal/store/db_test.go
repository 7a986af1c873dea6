package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cesargomez89/songplays/internal/constants"
	"github.com/cesargomez89/songplays/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Options{
		Driver: constants.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() {
		if cErr := db.Close(); cErr != nil {
			t.Logf("db.Close error: %v", cErr)
		}
	})
	return db
}

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db := openTestDB(t)
	if err := db.ResetSchema(context.Background()); err != nil {
		t.Fatalf("ResetSchema failed: %v", err)
	}
	return db
}

func strPtr(s string) *string { return &s }

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "oracle", DSN: "x"})
	if err == nil {
		t.Fatal("Expected error for unknown driver")
	}
}

func TestRequireSchema(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	err := db.RequireSchema(ctx)
	if !errors.Is(err, ErrSchemaMissing) {
		t.Fatalf("Expected ErrSchemaMissing before init, got %v", err)
	}
	if !strings.Contains(err.Error(), "songplays") {
		t.Errorf("Expected missing tables listed, got %v", err)
	}

	if err := db.ResetSchema(ctx); err != nil {
		t.Fatalf("ResetSchema failed: %v", err)
	}
	if err := db.RequireSchema(ctx); err != nil {
		t.Errorf("RequireSchema after init failed: %v", err)
	}

	if _, err := db.ExecContext(ctx, "DROP TABLE songplays"); err != nil {
		t.Fatalf("DROP TABLE failed: %v", err)
	}
	err = db.RequireSchema(ctx)
	if !errors.Is(err, ErrSchemaMissing) || !strings.Contains(err.Error(), "songplays") {
		t.Errorf("Expected songplays reported missing, got %v", err)
	}
}

func TestResetSchema_Destructive(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	artist := &domain.Artist{ID: "AR1", Name: "Elena"}
	if _, err := db.InsertArtist(ctx, artist); err != nil {
		t.Fatalf("InsertArtist failed: %v", err)
	}

	if err := db.ResetSchema(ctx); err != nil {
		t.Fatalf("second ResetSchema failed: %v", err)
	}

	counts, err := db.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	for _, name := range constants.Tables {
		if counts[name] != 0 {
			t.Errorf("Expected %s to be empty after reset, got %d", name, counts[name])
		}
	}
}

func TestInsertIgnoresDuplicates(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	artist := &domain.Artist{ID: "AR1", Name: "Elena", Latitude: domain.Float(1.5)}
	written, err := db.InsertArtist(ctx, artist)
	if err != nil || !written {
		t.Fatalf("InsertArtist = %v, %v; want true, nil", written, err)
	}

	dup := &domain.Artist{ID: "AR1", Name: "Someone Else"}
	written, err = db.InsertArtist(ctx, dup)
	if err != nil {
		t.Fatalf("duplicate InsertArtist failed: %v", err)
	}
	if written {
		t.Error("Expected duplicate artist to be ignored")
	}

	var name string
	if err := db.GetContext(ctx, &name, "SELECT name FROM artists WHERE artist_id = ?", "AR1"); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if name != "Elena" {
		t.Errorf("Expected first artist kept, got %s", name)
	}

	song := &domain.Song{ID: "SO1", Title: "Des Bois", ArtistID: "AR1", Year: domain.Int(0), Duration: domain.Float(218.0)}
	for i := 0; i < 2; i++ {
		if _, err := db.InsertSong(ctx, song); err != nil {
			t.Fatalf("InsertSong #%d failed: %v", i, err)
		}
	}

	var year int
	if err := db.GetContext(ctx, &year, "SELECT year FROM songs WHERE song_id = ?", "SO1"); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if year != 0 {
		t.Errorf("Expected year 0 stored as-is, got %d", year)
	}

	row := domain.NewTimeRow(domain.TimeFromMillis(1541990258796))
	for i := 0; i < 2; i++ {
		if _, err := db.InsertTime(ctx, &row); err != nil {
			t.Fatalf("InsertTime #%d failed: %v", i, err)
		}
	}

	counts, err := db.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if counts[constants.TableArtists] != 1 || counts[constants.TableSongs] != 1 || counts[constants.TableTime] != 1 {
		t.Errorf("Unexpected counts %v", counts)
	}
}

func TestNullCoordinates(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	if _, err := db.InsertArtist(ctx, &domain.Artist{ID: "AR2", Name: "Nowhere"}); err != nil {
		t.Fatalf("InsertArtist failed: %v", err)
	}

	var nulls int
	if err := db.GetContext(ctx, &nulls, "SELECT COUNT(*) FROM artists WHERE latitude IS NULL AND longitude IS NULL"); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if nulls != 1 {
		t.Errorf("Expected missing coordinates stored as NULL, got %d rows", nulls)
	}
}

func TestUpsertUser(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	tests := []struct {
		name      string
		user      domain.User
		wantLevel string
	}{
		{"insert", domain.User{ID: "26", FirstName: "Ryan", Level: "free", LastSeenMs: 1000}, "free"},
		{"newer overwrites", domain.User{ID: "26", FirstName: "Ryan", Level: "paid", LastSeenMs: 2000}, "paid"},
		{"older ignored", domain.User{ID: "26", FirstName: "Ryan", Level: "free", LastSeenMs: 1500}, "paid"},
		{"same time overwrites", domain.User{ID: "26", FirstName: "Ryan", Level: "free", LastSeenMs: 2000}, "free"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := db.UpsertUser(ctx, &tt.user); err != nil {
				t.Fatalf("UpsertUser failed: %v", err)
			}
			got, err := db.GetUser(ctx, "26")
			if err != nil {
				t.Fatalf("GetUser failed: %v", err)
			}
			if got == nil {
				t.Fatal("Expected user to exist")
			}
			if got.Level != tt.wantLevel {
				t.Errorf("Expected level %s, got %s", tt.wantLevel, got.Level)
			}
		})
	}

	missing, err := db.GetUser(ctx, "404")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for unknown user, got %+v", missing)
	}
}

func TestFindSongArtist(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	if _, err := db.InsertArtist(ctx, &domain.Artist{ID: "AR7SMBG1187B9B9066", Name: "Elena"}); err != nil {
		t.Fatalf("InsertArtist failed: %v", err)
	}
	if _, err := db.InsertSong(ctx, &domain.Song{ID: "SOGDBUF12A8C140FAA", Title: "Des Bois", ArtistID: "AR7SMBG1187B9B9066", Duration: domain.Float(218.0)}); err != nil {
		t.Fatalf("InsertSong failed: %v", err)
	}

	tests := []struct {
		name      string
		title     string
		artist    string
		duration  float64
		wantFound bool
	}{
		{"exact match", "Des Bois", "Elena", 218.0, true},
		{"different duration", "Des Bois", "Elena", 218.5, false},
		{"different artist", "Des Bois", "Elena Ferrante", 218.0, false},
		{"different title", "des bois", "Elena", 218.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			songID, artistID, found, err := db.FindSongArtist(ctx, tt.title, tt.artist, tt.duration)
			if err != nil {
				t.Fatalf("FindSongArtist failed: %v", err)
			}
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if found && (songID != "SOGDBUF12A8C140FAA" || artistID != "AR7SMBG1187B9B9066") {
				t.Errorf("Unexpected ids %s %s", songID, artistID)
			}
		})
	}
}

func TestNullSongFields(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	if _, err := db.InsertArtist(ctx, &domain.Artist{ID: "AR1", Name: "Elena"}); err != nil {
		t.Fatalf("InsertArtist failed: %v", err)
	}
	if _, err := db.InsertSong(ctx, &domain.Song{ID: "SO1", Title: "Des Bois", ArtistID: "AR1"}); err != nil {
		t.Fatalf("InsertSong failed: %v", err)
	}

	var nulls int
	if err := db.GetContext(ctx, &nulls, "SELECT COUNT(*) FROM songs WHERE year IS NULL AND duration IS NULL"); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if nulls != 1 {
		t.Errorf("Expected missing year and duration stored as NULL, got %d rows", nulls)
	}

	_, _, found, err := db.FindSongArtist(ctx, "Des Bois", "Elena", 0)
	if err != nil {
		t.Fatalf("FindSongArtist failed: %v", err)
	}
	if found {
		t.Error("Expected a song without duration not to match")
	}
}

func TestInsertSongPlay(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	ts := domain.TimeFromMillis(1541990258796)
	row := domain.NewTimeRow(ts)
	if _, err := db.InsertTime(ctx, &row); err != nil {
		t.Fatalf("InsertTime failed: %v", err)
	}
	if _, err := db.UpsertUser(ctx, &domain.User{ID: "26", Level: "free", LastSeenMs: 1541990258796}); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	if _, err := db.InsertArtist(ctx, &domain.Artist{ID: "AR1", Name: "Elena"}); err != nil {
		t.Fatalf("InsertArtist failed: %v", err)
	}
	if _, err := db.InsertSong(ctx, &domain.Song{ID: "SO1", Title: "Des Bois", ArtistID: "AR1", Duration: domain.Float(218)}); err != nil {
		t.Fatalf("InsertSong failed: %v", err)
	}

	plays := []domain.SongPlay{
		{StartTime: ts, UserID: "26", Level: "free", SongID: strPtr("SO1"), ArtistID: strPtr("AR1"), SessionID: 583},
		{StartTime: ts, UserID: "26", Level: "free", SessionID: 583},
	}
	for i := range plays {
		if err := db.InsertSongPlay(ctx, &plays[i]); err != nil {
			t.Fatalf("InsertSongPlay #%d failed: %v", i, err)
		}
	}

	stored, err := db.ListSongPlays(ctx)
	if err != nil {
		t.Fatalf("ListSongPlays failed: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("Expected 2 songplays, got %d", len(stored))
	}
	if stored[0].ID != 1 || stored[1].ID != 2 {
		t.Errorf("Expected serial ids 1 and 2, got %d and %d", stored[0].ID, stored[1].ID)
	}
	if stored[0].SongID == nil || *stored[0].SongID != "SO1" {
		t.Errorf("Expected linked song, got %v", stored[0].SongID)
	}
	if stored[1].SongID != nil || stored[1].ArtistID != nil {
		t.Error("Expected NULL song and artist on unmatched play")
	}
	if !stored[1].StartTime.Equal(ts) {
		t.Errorf("Expected start time %v, got %v", ts, stored[1].StartTime)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	play := &domain.SongPlay{StartTime: domain.TimeFromMillis(1), UserID: "nobody"}
	if err := db.InsertSongPlay(ctx, play); err == nil {
		t.Error("Expected songplay without user and time rows to be rejected")
	}
}

func TestRunInTx_Rollback(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	boom := errors.New("boom")
	err := db.RunInTx(ctx, func(tx *DB) error {
		if _, err := tx.InsertArtist(ctx, &domain.Artist{ID: "AR1", Name: "Elena"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}

	counts, err := db.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if counts[constants.TableArtists] != 0 {
		t.Errorf("Expected rollback to discard the artist, got %d rows", counts[constants.TableArtists])
	}
}

func TestRunInTx_Nested(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	err := db.RunInTx(ctx, func(tx *DB) error {
		return tx.RunInTx(ctx, func(inner *DB) error {
			_, err := inner.InsertArtist(ctx, &domain.Artist{ID: "AR1", Name: "Elena"})
			return err
		})
	})
	if err != nil {
		t.Fatalf("nested RunInTx failed: %v", err)
	}

	counts, err := db.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if counts[constants.TableArtists] != 1 {
		t.Errorf("Expected 1 artist, got %d", counts[constants.TableArtists])
	}
}

func TestInsertStatements(t *testing.T) {
	tests := []struct {
		table table
		want  string
	}{
		{
			artistsTable,
			"INSERT INTO artists (artist_id, name, location, latitude, longitude) VALUES (:artist_id, :name, :location, :latitude, :longitude) ON CONFLICT (artist_id) DO NOTHING",
		},
		{
			usersTable,
			"INSERT INTO users (user_id, first_name, last_name, gender, level, last_seen_ms) VALUES (:user_id, :first_name, :last_name, :gender, :level, :last_seen_ms) ON CONFLICT (user_id) DO UPDATE SET first_name = excluded.first_name, last_name = excluded.last_name, gender = excluded.gender, level = excluded.level, last_seen_ms = excluded.last_seen_ms WHERE excluded.last_seen_ms >= users.last_seen_ms",
		},
		{
			songplaysTable,
			"INSERT INTO songplays (start_time, user_id, level, song_id, artist_id, session_id, location, user_agent) VALUES (:start_time, :user_id, :level, :song_id, :artist_id, :session_id, :location, :user_agent)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.table.name, func(t *testing.T) {
			if got := tt.table.insertStatement(); got != tt.want {
				t.Errorf("insertStatement() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestCreateStatements(t *testing.T) {
	sqlite := songplaysTable.createStatement(SQLite)
	if !strings.Contains(sqlite, "songplay_id INTEGER PRIMARY KEY AUTOINCREMENT") {
		t.Errorf("Unexpected sqlite DDL:\n%s", sqlite)
	}
	pg := songplaysTable.createStatement(Postgres)
	if !strings.Contains(pg, "songplay_id SERIAL PRIMARY KEY") {
		t.Errorf("Unexpected postgres DDL:\n%s", pg)
	}
	if !strings.Contains(pg, "user_id VARCHAR(64) NOT NULL REFERENCES users (user_id)") {
		t.Errorf("Expected user foreign key in DDL:\n%s", pg)
	}

	artists := artistsTable.createStatement(Postgres)
	if !strings.Contains(artists, "latitude DOUBLE PRECISION,") || !strings.Contains(artists, "PRIMARY KEY (artist_id)") {
		t.Errorf("Unexpected artists DDL:\n%s", artists)
	}
}

func TestDialectFor(t *testing.T) {
	for _, name := range []string{constants.DriverSQLite, constants.DriverPostgres} {
		d, err := DialectFor(name)
		if err != nil {
			t.Errorf("DialectFor(%s) failed: %v", name, err)
		}
		if d.Name != name {
			t.Errorf("Expected dialect %s, got %s", name, d.Name)
		}
	}
	if _, err := DialectFor("mysql"); err == nil {
		t.Error("Expected error for unsupported driver")
	}
}

func TestResetDatabase_SQLiteNoop(t *testing.T) {
	if err := ResetDatabase(context.Background(), SQLite, "", "ignored"); err != nil {
		t.Errorf("Expected no-op for sqlite, got %v", err)
	}
}
