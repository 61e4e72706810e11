package schedule

import (
	"fmt"
	"time"
)

// ReasonUnknownType is reported for schedules of an unrecognised type.
const ReasonUnknownType = "unknown schedule type"

// Result is the outcome of evaluating a schedule at one instant.
type Result struct {
	Active bool   `json:"active"`
	Reason string `json:"reason,omitempty"`
}

func active(format string, args ...any) Result {
	return Result{Active: true, Reason: fmt.Sprintf(format, args...)}
}

func inactive(format string, args ...any) Result {
	return Result{Active: false, Reason: fmt.Sprintf(format, args...)}
}

// minuteOfDay returns the wall-clock minute of t in t's own location.
func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// Evaluate decides whether cfg is active at now. It never panics and has no side effects;
// anything it cannot interpret is inactive.
func Evaluate(cfg Config, now time.Time) Result {
	switch c := cfg.(type) {
	case Always:
		return active("always visible")

	case Daily:
		if !c.Window.Contains(minuteOfDay(now)) {
			return inactive("outside daily window %s", c.Window)
		}
		return active("inside daily window %s", c.Window)

	case Weekly:
		if !c.Days.Has(now.Weekday()) {
			return inactive("not scheduled on %s", now.Weekday())
		}
		if !c.Window.Contains(minuteOfDay(now)) {
			return inactive("outside %s window %s", now.Weekday(), c.Window)
		}
		return active("inside %s window %s", now.Weekday(), c.Window)

	case DateRange:
		today := DateOf(now).key()
		if today < c.Start.key() {
			return inactive("date range starts %s", c.Start)
		}
		if today > c.End.key() {
			return inactive("date range ended %s", c.End)
		}
		if c.Window != nil && !c.Window.Contains(minuteOfDay(now)) {
			return inactive("outside window %s", *c.Window)
		}
		return active("within %s..%s", c.Start, c.End)

	case Event:
		if !c.Active {
			return inactive("event %q is off", c.Name)
		}
		return active("event %q is on", c.Name)

	case Seasonal:
		if c.StartMonth == 0 || c.EndMonth == 0 {
			return inactive("seasonal bounds missing")
		}
		start := c.StartMonth*100 + c.StartDay
		end := c.EndMonth*100 + c.EndDay
		key := int(now.Month())*100 + now.Day()
		in := start <= key && key <= end
		if end < start {
			in = key >= start || key <= end
		}
		if !in {
			return inactive("out of season %02d/%02d-%02d/%02d", c.StartMonth, c.StartDay, c.EndMonth, c.EndDay)
		}
		return active("in season %02d/%02d-%02d/%02d", c.StartMonth, c.StartDay, c.EndMonth, c.EndDay)

	case Invalid:
		if c.Reason == "" {
			return inactive(ReasonUnknownType)
		}
		return inactive("%s", c.Reason)

	default:
		return inactive(ReasonUnknownType)
	}
}
