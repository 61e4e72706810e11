package schedule

import (
	"fmt"
	"strings"

	"menu-availability-backend/internal/model"
	"menu-availability-backend/internal/parse"
)

// FromCategory turns a category's loosely typed schedule columns into a Config.
// It never fails: malformed or unrecognised data yields an Invalid config.
// An empty schedule type means no schedule has been configured, which is Always.
func FromCategory(c model.Category) Config {
	kind := normalizeKind(c.ScheduleType)
	switch kind {
	case "", KindAlways:
		return Always{}

	case KindDaily:
		w, err := windowOf(c.StartTime, c.EndTime)
		if err != nil {
			return invalidf(c.ScheduleType, "malformed daily schedule: %v", err)
		}
		return Daily{Window: w}

	case KindWeekly:
		w, err := windowOf(c.StartTime, c.EndTime)
		if err != nil {
			return invalidf(c.ScheduleType, "malformed weekly schedule: %v", err)
		}
		days, err := parse.ParseWeekdays(c.DaysOfWeek)
		if err != nil {
			return invalidf(c.ScheduleType, "malformed weekly schedule: %v", err)
		}
		return Weekly{Days: NewWeekdaySet(days...), Window: w}

	case KindDateRange:
		if c.StartDate == nil || c.EndDate == nil {
			return invalidf(c.ScheduleType, "date range requires start and end date")
		}
		start, err := dateOf(*c.StartDate)
		if err != nil {
			return invalidf(c.ScheduleType, "malformed date range: %v", err)
		}
		end, err := dateOf(*c.EndDate)
		if err != nil {
			return invalidf(c.ScheduleType, "malformed date range: %v", err)
		}
		dr := DateRange{Start: start, End: end}
		if c.StartTime != nil || c.EndTime != nil {
			w, err := windowOf(c.StartTime, c.EndTime)
			if err != nil {
				return invalidf(c.ScheduleType, "malformed date range: %v", err)
			}
			dr.Window = &w
		}
		return dr

	case KindEvent:
		return Event{Active: c.EventActive, Name: c.EventName, Priority: c.EventPriority}

	case KindSeasonal:
		s := Seasonal{StartDay: 1, EndDay: 31}
		if c.StartMonth != nil {
			s.StartMonth = *c.StartMonth
		}
		if c.EndMonth != nil {
			s.EndMonth = *c.EndMonth
		}
		if c.StartDay != nil {
			s.StartDay = *c.StartDay
		}
		if c.EndDay != nil {
			s.EndDay = *c.EndDay
		}
		if s.StartMonth < 0 || s.StartMonth > 12 || s.EndMonth < 0 || s.EndMonth > 12 {
			return invalidf(c.ScheduleType, "seasonal month out of range")
		}
		if s.StartDay < 1 || s.StartDay > 31 || s.EndDay < 1 || s.EndDay > 31 {
			return invalidf(c.ScheduleType, "seasonal day out of range")
		}
		return s

	default:
		return Invalid{Type: c.ScheduleType, Reason: ReasonUnknownType}
	}
}

func normalizeKind(raw string) Kind {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
	switch s {
	case "":
		return ""
	case "always":
		return KindAlways
	case "daily":
		return KindDaily
	case "weekly":
		return KindWeekly
	case "daterange":
		return KindDateRange
	case "event":
		return KindEvent
	case "seasonal":
		return KindSeasonal
	}
	return Kind(s)
}

// windowOf parses optional bounds; a missing bound defaults to the start or end of the day.
func windowOf(start, end *string) (Window, error) {
	w := FullDay
	if start != nil && strings.TrimSpace(*start) != "" {
		m, err := parse.ParseClock(*start)
		if err != nil {
			return Window{}, err
		}
		w.Start = m
	}
	if end != nil && strings.TrimSpace(*end) != "" {
		m, err := parse.ParseClock(*end)
		if err != nil {
			return Window{}, err
		}
		w.End = m
	}
	return w, nil
}

func dateOf(raw string) (Date, error) {
	y, m, d, err := parse.ParseDate(raw)
	if err != nil {
		return Date{}, err
	}
	return Date{Year: y, Month: m, Day: d}, nil
}

func invalidf(kind, format string, args ...any) Invalid {
	return Invalid{Type: kind, Reason: fmt.Sprintf(format, args...)}
}
