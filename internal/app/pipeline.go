package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cesargomez89/songplays/internal/config"
	"github.com/cesargomez89/songplays/internal/constants"
	"github.com/cesargomez89/songplays/internal/extract"
	"github.com/cesargomez89/songplays/internal/logger"
	"github.com/cesargomez89/songplays/internal/storage"
	"github.com/cesargomez89/songplays/internal/store"
)

// FileStats counts the files of one input kind.
type FileStats struct {
	Found     int
	Processed int
	Skipped   int
}

// Summary aggregates one ETL run.
type Summary struct {
	RunID          string
	SongFiles      FileStats
	LogFiles       FileStats
	RecordsSkipped int
	EventsFiltered int
	LookupMisses   int
	Rows           map[string]int64
	Duration       time.Duration
}

// StoreOptions maps the configuration onto connection options for the
// target database.
func StoreOptions(cfg *config.Config) store.Options {
	if cfg.DBDriver == constants.DriverPostgres {
		return store.Options{Driver: cfg.DBDriver, DSN: cfg.PostgresDSN(cfg.DBName)}
	}
	return store.Options{Driver: cfg.DBDriver, DSN: cfg.DBPath}
}

// InitSchema drops and recreates the target database and its tables.
func InitSchema(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	log = log.WithComponent("schema")

	dialect, err := store.DialectFor(cfg.DBDriver)
	if err != nil {
		return err
	}
	if err := store.ResetDatabase(ctx, dialect, cfg.PostgresDSN(cfg.DBAdminName), cfg.DBName); err != nil {
		return err
	}

	db, err := store.Open(ctx, StoreOptions(cfg))
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // deferred cleanup

	if err := db.ResetSchema(ctx); err != nil {
		return err
	}

	log.Info("Schema initialized", "driver", cfg.DBDriver, "tables", len(constants.Tables))
	return nil
}

// Run loads every song file, then every log file, into an initialized
// schema. Unparseable files and invalid records are skipped and counted;
// database errors abort the run.
func Run(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: uuid.New().String()}
	log = log.WithComponent("etl").WithRun(summary.RunID)

	db, err := store.Open(ctx, StoreOptions(cfg))
	if err != nil {
		return nil, err
	}
	defer db.Close() //nolint:errcheck // deferred cleanup

	if err := db.RequireSchema(ctx); err != nil {
		return nil, err
	}

	loader := NewLoader(db)

	summary.SongFiles, err = processData(ctx, log, cfg.SongDataDir, summary, loader.LoadSongFile)
	if err != nil {
		return nil, err
	}
	summary.LogFiles, err = processData(ctx, log, cfg.LogDataDir, summary, loader.LoadLogFile)
	if err != nil {
		return nil, err
	}

	summary.Rows, err = db.Counts(ctx)
	if err != nil {
		return nil, err
	}
	summary.Duration = time.Since(start)

	log.Info("ETL completed",
		"song_files", summary.SongFiles.Processed,
		"log_files", summary.LogFiles.Processed,
		"files_skipped", summary.SongFiles.Skipped+summary.LogFiles.Skipped,
		"records_skipped", summary.RecordsSkipped,
		"lookup_misses", summary.LookupMisses,
		"duration", summary.Duration,
	)
	return summary, nil
}

type loadFunc func(ctx context.Context, data []byte, log *logger.Logger) (FileResult, error)

func processData(ctx context.Context, log *logger.Logger, dir string, summary *Summary, load loadFunc) (FileStats, error) {
	files, err := storage.FindDataFiles(dir)
	if err != nil {
		return FileStats{}, err
	}

	stats := FileStats{Found: len(files)}
	log.Info(fmt.Sprintf("%d files found in %s", len(files), dir))

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		fileLog := log.WithFile(path)

		data, err := storage.ReadFile(path)
		if err != nil {
			fileLog.Warn("File skipped", "error", err)
			stats.Skipped++
			continue
		}

		result, err := load(ctx, data, fileLog)
		if errors.Is(err, extract.ErrMalformedFile) {
			fileLog.Warn("File skipped", "error", err)
			stats.Skipped++
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("failed to load %s: %w", path, err)
		}

		stats.Processed++
		summary.RecordsSkipped += result.Skipped
		summary.EventsFiltered += result.Filtered
		summary.LookupMisses += result.LookupMisses
		log.Info(fmt.Sprintf("%d/%d files processed.", i+1, len(files)))
	}

	return stats, nil
}
