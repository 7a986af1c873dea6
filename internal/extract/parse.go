// Package extract turns raw song and log data files into dimension and fact rows.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/cesargomez89/songplays/internal/domain"
	"github.com/cesargomez89/songplays/internal/validation"
)

// ErrMalformedFile is returned when a data file is not valid JSON.
var ErrMalformedFile = errors.New("malformed data file")

// Decoded holds the records of one data file. Positions[i] is the zero-based
// index within the file of Records[i]; records that could not be decoded
// into T are listed in Skipped instead.
type Decoded[T any] struct {
	Records   []T
	Positions []int
	Skipped   []SkippedRecord
}

func (d *Decoded[T]) position(i int) int {
	if i < len(d.Positions) {
		return d.Positions[i]
	}
	return i
}

// ParseSongFile decodes a song metadata file. The file normally holds a
// single object; newline-delimited objects are accepted as well.
func ParseSongFile(data []byte) (Decoded[domain.SongRecord], error) {
	return decodeRecords[domain.SongRecord](data)
}

// ParseLogFile decodes an activity log file, either a JSON array of events
// or one event object per line.
func ParseLogFile(data []byte) (Decoded[domain.LogEvent], error) {
	return decodeRecords[domain.LogEvent](data)
}

// decodeRecords splits data into raw records, failing the whole file only on
// JSON syntax errors, then decodes each record on its own.
func decodeRecords[T any](data []byte) (Decoded[T], error) {
	var out Decoded[T]

	raws, err := splitRecords(data)
	if err != nil {
		return out, err
	}

	for i, raw := range raws {
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			out.Skipped = append(out.Skipped, SkippedRecord{Index: i, Err: validation.DecodeError(rec, err)})
			continue
		}
		out.Records = append(out.Records, rec)
		out.Positions = append(out.Positions, i)
	}
	return out, nil
}

func splitRecords(data []byte) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrMalformedFile)
	}

	var raws []json.RawMessage
	if data[0] == '[' {
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
		}
	} else {
		dec := json.NewDecoder(bytes.NewReader(data))
		for {
			var raw json.RawMessage
			err := dec.Decode(&raw)
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("%w: record %d: %v", ErrMalformedFile, len(raws)+1, err)
			}
			raws = append(raws, raw)
		}
	}

	if len(raws) == 0 {
		return nil, fmt.Errorf("%w: no records", ErrMalformedFile)
	}
	return raws, nil
}
