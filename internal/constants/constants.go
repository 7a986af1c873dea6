// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

// Application defaults
const (
	DefaultDBDriver    = DriverSQLite
	DefaultDBPath      = "sparkify.db"
	DefaultDBHost      = "127.0.0.1"
	DefaultDBPort      = "5432"
	DefaultDBUser      = "student"
	DefaultDBName      = "sparkifydb"
	DefaultDBAdminName = "postgres"
	DefaultDBSSLMode   = "disable"
	DefaultSongDataDir = "data/song_data"
	DefaultLogDataDir  = "data/log_data"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
)

// Database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Table names
const (
	TableSongplays = "songplays"
	TableUsers     = "users"
	TableSongs     = "songs"
	TableArtists   = "artists"
	TableTime      = "time"
)

// Tables lists every table in dependency order: dimensions first, fact last.
var Tables = []string{TableArtists, TableSongs, TableUsers, TableTime, TableSongplays}

// PageNextSong is the log event page that marks a song play.
const PageNextSong = "NextSong"

// File discovery
const (
	DataFileExt     = ".json"
	FilePermissions = 0644
	DirPermissions  = 0755
)
