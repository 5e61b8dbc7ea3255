package timetable

import (
	"fmt"
	"strings"
)

// Clock is a time of day in canonical 24-hour form.
type Clock struct {
	Hour   uint8
	Minute uint8
}

// ParseClock accepts "HH:MM" (strict: hours <= 23, minutes <= 59) or the
// twelve-hour form "H[:MM]am|pm". The twelve-hour path adds 12 hours for pm
// and does not bound the result, so "12pm" yields hour 24.
func ParseClock(s string) (Clock, error) {
	if c, ok := parseTwentyFourHour(s); ok {
		return c, nil
	}
	if c, ok := parseTwelveHour(s); ok {
		return c, nil
	}
	return Clock{}, &ParseError{Field: "time", Value: s}
}

func parseTwentyFourHour(s string) (Clock, bool) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) < 1 || len(hh) > 2 || len(mm) != 2 {
		return Clock{}, false
	}
	h, ok := digits(hh)
	if !ok || h > 23 {
		return Clock{}, false
	}
	m, ok := digits(mm)
	if !ok || m > 59 {
		return Clock{}, false
	}
	return Clock{Hour: uint8(h), Minute: uint8(m)}, true
}

func parseTwelveHour(s string) (Clock, bool) {
	if len(s) < 3 {
		return Clock{}, false
	}
	body, suffix := s[:len(s)-2], s[len(s)-2:]
	var pm bool
	switch suffix {
	case "am", "AM":
	case "pm", "PM":
		pm = true
	default:
		return Clock{}, false
	}

	hh, mm, hasMinutes := strings.Cut(body, ":")
	// Hours are a single digit or 10-12; no leading zero.
	if len(hh) == 0 || len(hh) > 2 || (len(hh) == 2 && hh[0] != '1') {
		return Clock{}, false
	}
	h, ok := digits(hh)
	if !ok || h > 12 {
		return Clock{}, false
	}
	var m int
	if hasMinutes {
		if len(mm) != 2 {
			return Clock{}, false
		}
		if m, ok = digits(mm); !ok || m > 59 {
			return Clock{}, false
		}
	}
	if pm {
		h += 12
	}
	return Clock{Hour: uint8(h), Minute: uint8(m)}, true
}

func digits(s string) (int, bool) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, len(s) > 0
}

// Minutes returns minutes since midnight.
func (c Clock) Minutes() int { return int(c.Hour)*60 + int(c.Minute) }

func (c Clock) Before(other Clock) bool { return c.Minutes() < other.Minutes() }

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }
