package extract

import (
	"context"
	"fmt"
	"sort"

	"github.com/cesargomez89/songplays/internal/constants"
	"github.com/cesargomez89/songplays/internal/domain"
	"github.com/cesargomez89/songplays/internal/validation"
)

// SkippedRecord identifies a record dropped at decode or validation time.
// Index is the zero-based position of the record within its file.
type SkippedRecord struct {
	Index int
	Err   *validation.RecordError
}

func (s SkippedRecord) Error() string {
	return fmt.Sprintf("record %d: %s: %v", s.Index, s.Err.Kind(), s.Err)
}

// SongBatch holds the rows extracted from one song file.
type SongBatch struct {
	Artists []domain.Artist
	Songs   []domain.Song
	Skipped []SkippedRecord
}

// Songs validates each record and splits it into an artist row and a song row.
func Songs(d Decoded[domain.SongRecord]) SongBatch {
	batch := SongBatch{Skipped: append([]SkippedRecord(nil), d.Skipped...)}
	for i := range d.Records {
		rec := &d.Records[i]
		if verr := validation.ValidateStruct(rec); verr != nil {
			batch.Skipped = append(batch.Skipped, SkippedRecord{Index: d.position(i), Err: verr})
			continue
		}
		batch.Artists = append(batch.Artists, rec.Artist())
		batch.Songs = append(batch.Songs, rec.Song())
	}
	sortSkipped(batch.Skipped)
	return batch
}

func sortSkipped(skipped []SkippedRecord) {
	sort.SliceStable(skipped, func(i, j int) bool { return skipped[i].Index < skipped[j].Index })
}

// SongLookup resolves the song and artist ids for a played song.
type SongLookup interface {
	FindSongArtist(ctx context.Context, title, artist string, duration float64) (songID, artistID string, found bool, err error)
}

// EventBatch holds the rows extracted from one log file.
type EventBatch struct {
	Times        []domain.TimeRow
	Users        []domain.User
	Plays        []domain.SongPlay
	Filtered     int
	LookupMisses int
	Skipped      []SkippedRecord
}

// Events keeps song-play events, validates them, and derives the time, user
// and songplay rows. Song and artist ids come from lookup; a miss leaves
// both ids nil and the play is still recorded.
//
// Time rows are unique per timestamp. Users are collapsed to the latest
// event per user id within the batch.
//
// Records that failed to decode are carried over as skipped; their page is
// unknown, so they are not counted as filtered.
func Events(ctx context.Context, d Decoded[domain.LogEvent], lookup SongLookup) (EventBatch, error) {
	batch := EventBatch{Skipped: append([]SkippedRecord(nil), d.Skipped...)}

	seenTimes := make(map[int64]bool)
	userIdx := make(map[string]int)

	for i := range d.Records {
		ev := &d.Records[i]
		if ev.Page != constants.PageNextSong {
			batch.Filtered++
			continue
		}
		if verr := validation.ValidateStruct(ev); verr != nil {
			batch.Skipped = append(batch.Skipped, SkippedRecord{Index: d.position(i), Err: verr})
			continue
		}

		if !seenTimes[ev.Ts] {
			seenTimes[ev.Ts] = true
			batch.Times = append(batch.Times, domain.NewTimeRow(ev.StartTime()))
		}

		user := ev.User()
		if idx, ok := userIdx[user.ID]; ok {
			if user.LastSeenMs >= batch.Users[idx].LastSeenMs {
				batch.Users[idx] = user
			}
		} else {
			userIdx[user.ID] = len(batch.Users)
			batch.Users = append(batch.Users, user)
		}

		songID, artistID, err := resolve(ctx, lookup, ev)
		if err != nil {
			return EventBatch{}, fmt.Errorf("failed to look up song %q by %q: %w", ev.Song, ev.Artist, err)
		}
		if songID == nil {
			batch.LookupMisses++
		}
		batch.Plays = append(batch.Plays, ev.SongPlay(songID, artistID))
	}

	sortSkipped(batch.Skipped)
	return batch, nil
}

func resolve(ctx context.Context, lookup SongLookup, ev *domain.LogEvent) (*string, *string, error) {
	if lookup == nil || ev.Song == "" || ev.Artist == "" || !ev.Length.Valid {
		return nil, nil, nil
	}

	songID, artistID, found, err := lookup.FindSongArtist(ctx, ev.Song, ev.Artist, ev.Length.Float64)
	if err != nil || !found {
		return nil, nil, err
	}
	return &songID, &artistID, nil
}
