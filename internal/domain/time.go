package domain

import "time"

// TimeRow is a row of the time dimension table. All fields are derived
// from StartTime in UTC.
//
// Weekday follows ISO-8601 numbering (Monday=1 ... Sunday=7) and
// WeekdayName is the English day name; Week is the ISO-8601 week number.
type TimeRow struct {
	StartTime   time.Time `json:"start_time" db:"start_time"`
	Hour        int       `json:"hour" db:"hour"`
	Day         int       `json:"day" db:"day"`
	Week        int       `json:"week" db:"week"`
	Month       int       `json:"month" db:"month"`
	Year        int       `json:"year" db:"year"`
	Weekday     int       `json:"weekday" db:"weekday"`
	WeekdayName string    `json:"weekday_name" db:"weekday_name"`
}

// TimeFromMillis converts a millisecond epoch into a UTC time.
func TimeFromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// NewTimeRow decomposes ts into the time dimension columns.
func NewTimeRow(ts time.Time) TimeRow {
	ts = ts.UTC()
	_, week := ts.ISOWeek()
	return TimeRow{
		StartTime:   ts,
		Hour:        ts.Hour(),
		Day:         ts.Day(),
		Week:        week,
		Month:       int(ts.Month()),
		Year:        ts.Year(),
		Weekday:     ISOWeekday(ts.Weekday()),
		WeekdayName: ts.Weekday().String(),
	}
}

// ISOWeekday maps time.Weekday (Sunday=0) onto ISO numbering (Sunday=7).
func ISOWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}
