package parse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekdays reads a list of weekdays such as "mon,tue" or "Monday Friday".
// Numeric tokens follow time.Weekday (0=Sunday); 7 is also accepted as Sunday.
// Duplicates are collapsed and the result keeps first-seen order.
func ParseWeekdays(raw string) ([]time.Weekday, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}

	var (
		days []time.Weekday
		seen [7]bool
	)
	for _, tok := range spaceRe.Split(s, -1) {
		if tok == "" {
			continue
		}
		d, err := parseWeekday(tok)
		if err != nil {
			return nil, err
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	return days, nil
}

func parseWeekday(tok string) (time.Weekday, error) {
	if n, err := strconv.Atoi(tok); err == nil {
		if n == 7 {
			return time.Sunday, nil
		}
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("weekday out of range: %q", tok)
		}
		return time.Weekday(n), nil
	}
	if d, ok := weekdayNames[strings.ToLower(strings.TrimSuffix(tok, "."))]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("unknown weekday: %q", tok)
}
