package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	clockRe = regexp.MustCompile(`^(\d{1,2})[:.h](\d{2})(?::\d{2})?$`)
	dateRe  = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})`)
	spaceRe = regexp.MustCompile(`[\s,;|/]+`)
)

// MinutesPerDay is the number of minutes in a calendar day.
const MinutesPerDay = 24 * 60

// ParseClock converts an "HH:MM" (or "HH:MM:SS") string into minutes since midnight.
// "24:00" is accepted as the last minute of the day.
func ParseClock(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid time of day: %q", raw)
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour == 24 && minute == 0 {
		return MinutesPerDay - 1, nil
	}
	if hour > 23 || minute > 59 {
		return 0, fmt.Errorf("time of day out of range: %q", raw)
	}
	return hour*60 + minute, nil
}

// ParseDate extracts a calendar date from "YYYY-MM-DD". Anything after the date part
// (e.g. a "T00:00:00Z" suffix) is ignored.
func ParseDate(raw string) (year int, month time.Month, day int, err error) {
	s := strings.TrimSpace(raw)
	m := dateRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, 0, fmt.Errorf("invalid date: %q", raw)
	}

	year, _ = strconv.Atoi(m[1])
	mon, _ := strconv.Atoi(m[2])
	day, _ = strconv.Atoi(m[3])
	if mon < 1 || mon > 12 {
		return 0, 0, 0, fmt.Errorf("month out of range: %q", raw)
	}
	// Reject dates that time.Date would silently normalise (e.g. 2024-02-31).
	t := time.Date(year, time.Month(mon), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return 0, 0, 0, fmt.Errorf("day out of range: %q", raw)
	}
	return year, time.Month(mon), day, nil
}
