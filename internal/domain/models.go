package domain

import (
	"time"
)

// SongRecord is one entry of a song metadata file.
type SongRecord struct {
	SongID          string      `json:"song_id" validate:"required"`
	Title           string      `json:"title" validate:"required"`
	ArtistID        string      `json:"artist_id" validate:"required"`
	ArtistName      string      `json:"artist_name" validate:"required"`
	ArtistLocation  string      `json:"artist_location"`
	ArtistLatitude  NullFloat64 `json:"artist_latitude"`
	ArtistLongitude NullFloat64 `json:"artist_longitude"`
	Year            NullInt64   `json:"year" validate:"omitempty,gte=0"`
	Duration        NullFloat64 `json:"duration" validate:"omitempty,gte=0"`
	NumSongs        int         `json:"num_songs"`
}

// Song returns the songs dimension row carried by the record.
func (r *SongRecord) Song() Song {
	return Song{
		ID:       r.SongID,
		Title:    r.Title,
		ArtistID: r.ArtistID,
		Year:     r.Year,
		Duration: r.Duration,
	}
}

// Artist returns the artists dimension row carried by the record.
func (r *SongRecord) Artist() Artist {
	return Artist{
		ID:        r.ArtistID,
		Name:      r.ArtistName,
		Location:  r.ArtistLocation,
		Latitude:  r.ArtistLatitude,
		Longitude: r.ArtistLongitude,
	}
}

// LogEvent is a single user action from an activity log file.
type LogEvent struct {
	Artist        string      `json:"artist"`
	Auth          string      `json:"auth"`
	FirstName     string      `json:"firstName"`
	Gender        string      `json:"gender"`
	ItemInSession int         `json:"itemInSession"`
	LastName      string      `json:"lastName"`
	Length        NullFloat64 `json:"length"`
	Level         string      `json:"level"`
	Location      string      `json:"location"`
	Method        string      `json:"method"`
	Page          string      `json:"page"`
	Registration  NullFloat64 `json:"registration"`
	SessionID     int64       `json:"sessionId"`
	Song          string      `json:"song"`
	Status        int         `json:"status"`
	Ts            int64       `json:"ts" validate:"required,gt=0"`
	UserAgent     string      `json:"userAgent"`
	UserID        FlexString  `json:"userId" validate:"required"`
}

// StartTime is the event timestamp as a UTC time.
func (e *LogEvent) StartTime() time.Time {
	return TimeFromMillis(e.Ts)
}

// User returns the users dimension row for the event's user.
func (e *LogEvent) User() User {
	return User{
		ID:         e.UserID.String(),
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		Gender:     e.Gender,
		Level:      e.Level,
		LastSeenMs: e.Ts,
	}
}

// SongPlay returns the fact row for the event, linked to the given song and
// artist ids. Either may be nil when no matching dimension row exists.
func (e *LogEvent) SongPlay(songID, artistID *string) SongPlay {
	return SongPlay{
		StartTime: e.StartTime(),
		UserID:    e.UserID.String(),
		Level:     e.Level,
		SongID:    songID,
		ArtistID:  artistID,
		SessionID: e.SessionID,
		Location:  e.Location,
		UserAgent: e.UserAgent,
	}
}

// Song is a row of the songs dimension table. A NULL duration never
// matches a played song.
type Song struct {
	ID       string      `json:"song_id" db:"song_id"`
	Title    string      `json:"title" db:"title"`
	ArtistID string      `json:"artist_id" db:"artist_id"`
	Year     NullInt64   `json:"year" db:"year"`
	Duration NullFloat64 `json:"duration" db:"duration"`
}

// Artist is a row of the artists dimension table.
type Artist struct {
	ID        string      `json:"artist_id" db:"artist_id"`
	Name      string      `json:"name" db:"name"`
	Location  string      `json:"location" db:"location"`
	Latitude  NullFloat64 `json:"latitude" db:"latitude"`
	Longitude NullFloat64 `json:"longitude" db:"longitude"`
}

// User is a row of the users dimension table. LastSeenMs is the epoch
// millisecond timestamp of the event the row was built from.
type User struct {
	ID         string `json:"user_id" db:"user_id"`
	FirstName  string `json:"first_name" db:"first_name"`
	LastName   string `json:"last_name" db:"last_name"`
	Gender     string `json:"gender" db:"gender"`
	Level      string `json:"level" db:"level"`
	LastSeenMs int64  `json:"last_seen_ms" db:"last_seen_ms"`
}

// SongPlay is a row of the songplays fact table.
type SongPlay struct {
	ID        int64     `json:"songplay_id" db:"songplay_id"`
	StartTime time.Time `json:"start_time" db:"start_time"`
	UserID    string    `json:"user_id" db:"user_id"`
	Level     string    `json:"level" db:"level"`
	SongID    *string   `json:"song_id,omitempty" db:"song_id"`
	ArtistID  *string   `json:"artist_id,omitempty" db:"artist_id"`
	SessionID int64     `json:"session_id" db:"session_id"`
	Location  string    `json:"location" db:"location"`
	UserAgent string    `json:"user_agent" db:"user_agent"`
}
