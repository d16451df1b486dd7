// Package archive provides the broadcast-hour addressing primitives: the
// playback selection type, the 14-digit deep-link timestamp codec, and the
// canonical object key format for one hour of recorded broadcast.
package archive

import "time"

// Selection identifies a broadcast hour and a position within its recording.
// Minute and Second are the playback offset inside the hour, not part of the
// hour's identity; the canonical media key always zeroes them.
type Selection struct {
	Year   int        `json:"year"`
	Month  time.Month `json:"month"`
	Day    int        `json:"day"`
	Hour   int        `json:"hour"`
	Minute int        `json:"minute"`
	Second int        `json:"second"`
}

// SelectionFromTime builds a Selection from the calendar fields of t in its
// own location.
func SelectionFromTime(t time.Time) Selection {
	return Selection{
		Year:   t.Year(),
		Month:  t.Month(),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// HourStart returns the instant at which this selection's broadcast hour
// begins in the given location.
func (s Selection) HourStart(loc *time.Location) time.Time {
	return time.Date(s.Year, s.Month, s.Day, s.Hour, 0, 0, 0, loc)
}

// Instant returns the exact instant encoded by the selection, including the
// minute/second offset, in the given location.
func (s Selection) Instant(loc *time.Location) time.Time {
	return time.Date(s.Year, s.Month, s.Day, s.Hour, s.Minute, s.Second, 0, loc)
}

// OffsetSeconds returns the position within the hour's recording implied by
// the minute/second fields.
func (s Selection) OffsetSeconds() int {
	return s.Minute*60 + s.Second
}

// WithOffset returns a copy of the selection with the minute/second position
// replaced. Seconds beyond the hour are clamped to 59:59 rather than rolled
// into the next hour.
func (s Selection) WithOffset(seconds int) Selection {
	if seconds < 0 {
		seconds = 0
	}
	if seconds > 3599 {
		seconds = 3599
	}
	s.Minute = seconds / 60
	s.Second = seconds % 60
	return s
}

// SameHour reports whether two selections address the same broadcast hour,
// ignoring the minute/second position.
func (s Selection) SameHour(other Selection) bool {
	return s.Year == other.Year &&
		s.Month == other.Month &&
		s.Day == other.Day &&
		s.Hour == other.Hour
}
