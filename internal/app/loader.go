package app

import (
	"context"

	"github.com/cesargomez89/songplays/internal/extract"
	"github.com/cesargomez89/songplays/internal/logger"
	"github.com/cesargomez89/songplays/internal/store"
)

// FileResult reports what one data file contributed.
type FileResult struct {
	Skipped      int
	Filtered     int
	LookupMisses int
}

// Loader writes the rows of one data file in a single transaction,
// dimension rows before the fact rows that reference them.
type Loader struct {
	Repo *store.DB
}

func NewLoader(repo *store.DB) *Loader {
	return &Loader{Repo: repo}
}

// LoadSongFile loads the artists and songs of a song metadata file.
// A file that is not valid JSON is returned wrapped in
// extract.ErrMalformedFile and nothing is written.
func (l *Loader) LoadSongFile(ctx context.Context, data []byte, log *logger.Logger) (FileResult, error) {
	records, err := extract.ParseSongFile(data)
	if err != nil {
		return FileResult{}, err
	}

	batch := extract.Songs(records)
	logSkipped(log, batch.Skipped)

	err = l.Repo.RunInTx(ctx, func(tx *store.DB) error {
		for i := range batch.Artists {
			if _, err := tx.InsertArtist(ctx, &batch.Artists[i]); err != nil {
				return err
			}
		}
		for i := range batch.Songs {
			if _, err := tx.InsertSong(ctx, &batch.Songs[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return FileResult{}, err
	}

	return FileResult{Skipped: len(batch.Skipped)}, nil
}

// LoadLogFile loads the time, users and songplays rows of an activity log
// file. Song and artist ids are looked up inside the same transaction, so
// they see every song file loaded before.
func (l *Loader) LoadLogFile(ctx context.Context, data []byte, log *logger.Logger) (FileResult, error) {
	events, err := extract.ParseLogFile(data)
	if err != nil {
		return FileResult{}, err
	}

	var result FileResult
	err = l.Repo.RunInTx(ctx, func(tx *store.DB) error {
		batch, err := extract.Events(ctx, events, tx)
		if err != nil {
			return err
		}
		logSkipped(log, batch.Skipped)

		for i := range batch.Times {
			if _, err := tx.InsertTime(ctx, &batch.Times[i]); err != nil {
				return err
			}
		}
		for i := range batch.Users {
			if _, err := tx.UpsertUser(ctx, &batch.Users[i]); err != nil {
				return err
			}
		}
		for i := range batch.Plays {
			if err := tx.InsertSongPlay(ctx, &batch.Plays[i]); err != nil {
				return err
			}
		}

		result = FileResult{
			Skipped:      len(batch.Skipped),
			Filtered:     batch.Filtered,
			LookupMisses: batch.LookupMisses,
		}
		return nil
	})
	if err != nil {
		return FileResult{}, err
	}

	return result, nil
}

func logSkipped(log *logger.Logger, skipped []extract.SkippedRecord) {
	for _, s := range skipped {
		log.Debug("Record skipped", "index", s.Index, "kind", s.Err.Kind(), "error", s.Err.Error())
	}
}
