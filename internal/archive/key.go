package archive

import (
	"fmt"
	"time"
)

// MediaKey builds the canonical object key for a broadcast hour:
// YYYY/MM/DD/YYYYMMDDHH00.<ext>. One object exists per hour, so the
// minute/second position never appears in the key.
func MediaKey(s Selection, extension string) string {
	return fmt.Sprintf("%04d/%02d/%02d/%04d%02d%02d%02d00.%s",
		s.Year, int(s.Month), s.Day,
		s.Year, int(s.Month), s.Day, s.Hour, extension)
}

// ParseMediaKey recovers the broadcast hour addressed by a canonical media
// key. The boolean result is false when the key does not match the canonical
// format. Used by the signing collaborator to re-validate the requested hour
// independently of any client-side check.
func ParseMediaKey(key string) (Selection, bool) {
	// YYYY/MM/DD/YYYYMMDDHH00.ext
	const datedPrefixLen = len("YYYY/MM/DD/")
	const stampLen = len("YYYYMMDDHH00")

	if len(key) < datedPrefixLen+stampLen+2 {
		return Selection{}, false
	}
	if key[4] != '/' || key[7] != '/' || key[10] != '/' {
		return Selection{}, false
	}

	stamp := key[datedPrefixLen : datedPrefixLen+stampLen]
	for _, r := range stamp {
		if r < '0' || r > '9' {
			return Selection{}, false
		}
	}
	if key[datedPrefixLen+stampLen] != '.' {
		return Selection{}, false
	}

	s := Selection{
		Year:  atoi(stamp[0:4]),
		Month: time.Month(atoi(stamp[4:6])),
		Day:   atoi(stamp[6:8]),
		Hour:  atoi(stamp[8:10]),
	}
	if s.Hour > 23 || s.Month < time.January || s.Month > time.December {
		return Selection{}, false
	}
	if stamp[10] != '0' || stamp[11] != '0' {
		return Selection{}, false
	}

	// The dated prefix must agree with the stamp.
	prefix := fmt.Sprintf("%04d/%02d/%02d/", s.Year, int(s.Month), s.Day)
	if key[:datedPrefixLen] != prefix {
		return Selection{}, false
	}

	check := time.Date(s.Year, s.Month, s.Day, 0, 0, 0, 0, time.UTC)
	if check.Year() != s.Year || check.Month() != s.Month || check.Day() != s.Day {
		return Selection{}, false
	}

	return s, true
}
