package schedule

import (
	"time"
)

// Status is the guest-facing state of a schedule at an instant.
type Status string

const (
	StatusActive       Status = "active"
	StatusEndingSoon   Status = "ending-soon"
	StatusStartingSoon Status = "starting-soon"
	StatusUpcoming     Status = "upcoming"
	StatusClosed       Status = "closed"
)

// lookaheadDays bounds the search for the next activation.
const lookaheadDays = 7

// Projection extends a Result with countdown information for previews.
type Projection struct {
	Active                 bool       `json:"active"`
	Reason                 string     `json:"reason,omitempty"`
	Status                 Status     `json:"status"`
	MinutesRemaining       *int       `json:"minutesRemaining,omitempty"`
	NextChange             *time.Time `json:"nextChange,omitempty"`
	MinutesUntilNextChange *int       `json:"minutesUntilNextChange,omitempty"`
}

// Projector derives Status values. The zero value treats nothing as "soon".
type Projector struct {
	PreOpenMinutes  int
	PreCloseMinutes int
}

// NewProjector returns a Projector with the given thresholds.
func NewProjector(preOpenMinutes, preCloseMinutes int) Projector {
	return Projector{PreOpenMinutes: preOpenMinutes, PreCloseMinutes: preCloseMinutes}
}

// Project evaluates cfg at now and derives its status. Identical inputs give identical output.
func (p Projector) Project(cfg Config, now time.Time) Projection {
	res := Evaluate(cfg, now)
	out := Projection{Active: res.Active, Reason: res.Reason}
	at := truncateMinute(now)

	if res.Active {
		out.Status = StatusActive
		if end, ok := coverageEnd(cfg, at); ok {
			remaining := minutesBetween(at, end)
			change := end.Add(time.Minute)
			until := remaining + 1
			out.MinutesRemaining = &remaining
			out.NextChange = &change
			out.MinutesUntilNextChange = &until
			if remaining <= p.PreCloseMinutes {
				out.Status = StatusEndingSoon
			}
		}
		return out
	}

	next, ok := nextActivation(cfg, at)
	if !ok {
		out.Status = StatusClosed
		return out
	}
	until := minutesBetween(at, next)
	out.NextChange = &next
	out.MinutesUntilNextChange = &until
	if until > 0 && until <= p.PreOpenMinutes {
		out.Status = StatusStartingSoon
	} else {
		out.Status = StatusUpcoming
	}
	return out
}

// coverageEnd returns the last active minute of the unbroken run of activity containing at.
// Windows that hand over to the next day's window without a gap are followed through. It
// reports false when coverage does not break within lookaheadDays.
func coverageEnd(cfg Config, at time.Time) (time.Time, bool) {
	end, ok := windowEnd(cfg, at)
	if !ok {
		return time.Time{}, false
	}
	horizon := dayAt(at, lookaheadDays+1, 0)
	for {
		next := end.Add(time.Minute)
		if !Evaluate(cfg, next).Active {
			return end, true
		}
		if !next.Before(horizon) {
			return time.Time{}, false
		}
		if end, ok = windowEnd(cfg, next); !ok || end.Before(next) {
			return time.Time{}, false
		}
	}
}

// windowEnd returns the inclusive end boundary of the time window containing at.
func windowEnd(cfg Config, at time.Time) (time.Time, bool) {
	var (
		w          Window
		continues  = func(time.Time) bool { return true }
		isWindowed bool
	)
	switch c := cfg.(type) {
	case Daily:
		w, isWindowed = c.Window, true
	case Weekly:
		w, isWindowed = c.Window, true
		continues = func(day time.Time) bool { return c.Days.Has(day.Weekday()) }
	case DateRange:
		if c.Window != nil {
			w, isWindowed = *c.Window, true
			continues = func(day time.Time) bool { return DateOf(day).key() <= c.End.key() }
		}
	}
	if !isWindowed {
		return time.Time{}, false
	}

	m := minuteOfDay(at)
	if w.Wraps() && m >= w.Start {
		tomorrow := dayAt(at, 1, 0)
		if continues(tomorrow) {
			return dayAt(at, 1, w.End), true
		}
		return dayAt(at, 0, FullDay.End), true
	}
	return dayAt(at, 0, w.End), true
}

// nextActivation scans forward for the first instant after at where cfg becomes active.
// A schedule can only switch on at midnight or at its window start, so only those instants
// are checked, for today and the following lookaheadDays days.
func nextActivation(cfg Config, at time.Time) (time.Time, bool) {
	starts := []int{0}
	switch c := cfg.(type) {
	case Daily:
		starts = append(starts, c.Window.Start)
	case Weekly:
		starts = append(starts, c.Window.Start)
	case DateRange:
		if c.Window != nil {
			starts = append(starts, c.Window.Start)
		}
	case Always, Event, Invalid:
		// Never switches on by itself.
		return time.Time{}, false
	}

	for offset := 0; offset <= lookaheadDays; offset++ {
		for _, minute := range starts {
			candidate := dayAt(at, offset, minute)
			if !candidate.After(at) {
				continue
			}
			if Evaluate(cfg, candidate).Active {
				return candidate, true
			}
		}
	}
	return time.Time{}, false
}

func truncateMinute(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}

// dayAt returns minute-of-day m on the date offset days after t, in t's location.
func dayAt(t time.Time, offset, m int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+offset, m/60, m%60, 0, 0, t.Location())
}

func minutesBetween(from, to time.Time) int {
	return int(to.Sub(from) / time.Minute)
}
