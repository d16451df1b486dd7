package archive

import (
	"fmt"
	"time"
)

// TimestampLength is the fixed width of a deep-link timestamp: YYYYMMDDHHMMSS.
const TimestampLength = 14

// EncodeTimestamp encodes a selection as a zero-padded 14-digit deep-link
// timestamp using its local calendar fields.
func EncodeTimestamp(s Selection) string {
	return fmt.Sprintf("%04d%02d%02d%02d%02d%02d",
		s.Year, int(s.Month), s.Day, s.Hour, s.Minute, s.Second)
}

// DecodeTimestamp parses a 14-digit deep-link timestamp. The boolean result
// is false when the input is malformed: wrong length, non-digit characters,
// an impossible calendar date, or out-of-range hour/minute/second fields.
// Out-of-range time components are rejected outright instead of rolling into
// an adjacent day.
func DecodeTimestamp(ts string) (Selection, bool) {
	if len(ts) != TimestampLength {
		return Selection{}, false
	}
	for _, r := range ts {
		if r < '0' || r > '9' {
			return Selection{}, false
		}
	}

	s := Selection{
		Year:   atoi(ts[0:4]),
		Month:  time.Month(atoi(ts[4:6])),
		Day:    atoi(ts[6:8]),
		Hour:   atoi(ts[8:10]),
		Minute: atoi(ts[10:12]),
		Second: atoi(ts[12:14]),
	}

	if s.Hour > 23 || s.Minute > 59 || s.Second > 59 {
		return Selection{}, false
	}
	if s.Month < time.January || s.Month > time.December {
		return Selection{}, false
	}

	// Reject impossible calendar dates (e.g. Feb 30) by checking that Date
	// did not normalize the fields into a neighboring month.
	check := time.Date(s.Year, s.Month, s.Day, 0, 0, 0, 0, time.UTC)
	if check.Year() != s.Year || check.Month() != s.Month || check.Day() != s.Day {
		return Selection{}, false
	}

	return s, true
}

// atoi parses a digits-only substring; inputs are pre-validated.
func atoi(digits string) int {
	n := 0
	for i := 0; i < len(digits); i++ {
		n = n*10 + int(digits[i]-'0')
	}
	return n
}
