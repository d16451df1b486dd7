// Package navigator provides hour-to-hour movement through the archive with
// day rollover, bounded by the caller's access window. These are pure
// functions with no I/O; all required data arrives as parameters.
package navigator

import (
	"time"

	"github.com/stationkit/aircheck/internal/archive"
	"github.com/stationkit/aircheck/internal/policy"
)

// Step moves the selection by delta hours (normally ±1), rolling the
// calendar date when crossing midnight. When the resulting hour falls
// outside the window the original selection is returned unchanged: taps at
// the edge of the window are deliberate no-ops, not errors.
//
// The minute/second position is reset to zero on a successful step since it
// addresses a different hour's recording.
func Step(current archive.Selection, delta int, window policy.Window, loc *time.Location) archive.Selection {
	next := shift(current, delta, loc)
	if !window.Contains(next.HourStart(loc)) {
		return current
	}
	return next
}

// EndOfTrackAdvance computes the next hour for automatic end-of-recording
// continuation. Unlike Step, a rejected advance is reported explicitly so
// the caller can halt playback instead of leaving it silently stalled at the
// window's high edge.
func EndOfTrackAdvance(current archive.Selection, window policy.Window, loc *time.Location) (archive.Selection, bool) {
	next := shift(current, 1, loc)
	if !window.Contains(next.HourStart(loc)) {
		return current, false
	}
	return next, true
}

// shift applies the hour delta and lets time.Date normalize day, month, and
// year rollover in one pass.
func shift(s archive.Selection, delta int, loc *time.Location) archive.Selection {
	t := time.Date(s.Year, s.Month, s.Day, s.Hour+delta, 0, 0, 0, loc)
	return archive.Selection{
		Year:  t.Year(),
		Month: t.Month(),
		Day:   t.Day(),
		Hour:  t.Hour(),
	}
}
