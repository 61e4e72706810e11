package schedule

import (
	"fmt"
	"time"

	"menu-availability-backend/internal/parse"
)

// Kind names a schedule strategy.
type Kind string

const (
	KindAlways    Kind = "always"
	KindDaily     Kind = "daily"
	KindWeekly    Kind = "weekly"
	KindDateRange Kind = "date_range"
	KindEvent     Kind = "event"
	KindSeasonal  Kind = "seasonal"
	KindInvalid   Kind = "invalid"
)

// Config is the schedule attached to one menu category. The set of implementations is
// closed: Always, Daily, Weekly, DateRange, Event, Seasonal and Invalid.
type Config interface {
	Kind() Kind
	isConfig()
}

// Window is an inclusive time-of-day range in minutes since midnight.
// End < Start means the window wraps past midnight.
type Window struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// FullDay covers every minute of a day.
var FullDay = Window{Start: 0, End: parse.MinutesPerDay - 1}

// Wraps reports whether the window spans midnight.
func (w Window) Wraps() bool { return w.End < w.Start }

// Contains reports whether minute m (0..1439) lies inside the window.
func (w Window) Contains(m int) bool {
	if w.Wraps() {
		return m >= w.Start || m <= w.End
	}
	return w.Start <= m && m <= w.End
}

func (w Window) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", w.Start/60, w.Start%60, w.End/60, w.End%60)
}

// WeekdaySet is a bitset of time.Weekday values.
type WeekdaySet uint8

// NewWeekdaySet builds a set from the given days.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << uint(d)
	}
	return s
}

// Has reports whether d is in the set.
func (s WeekdaySet) Has(d time.Weekday) bool { return s&(1<<uint(d)) != 0 }

// Days lists the members in Sunday-first order.
func (s WeekdaySet) Days() []time.Weekday {
	var out []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

// Date is a calendar date without a time of day or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) key() int { return d.Year*10000 + int(d.Month)*100 + d.Day }

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string { return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day) }

// Always is visible at every instant.
type Always struct{}

// Daily is visible inside Window every day.
type Daily struct {
	Window Window
}

// Weekly is visible inside Window on the listed weekdays.
type Weekly struct {
	Days   WeekdaySet
	Window Window
}

// DateRange is visible on every date from Start to End inclusive, optionally only inside Window.
type DateRange struct {
	Start  Date
	End    Date
	Window *Window
}

// Event is toggled by hand. Priority only orders presentation.
type Event struct {
	Active   bool
	Name     string
	Priority int
}

// Seasonal is visible between two month/day points, possibly across the new year.
// A zero StartMonth or EndMonth means the bounds are missing.
type Seasonal struct {
	StartMonth int
	StartDay   int
	EndMonth   int
	EndDay     int
}

// Invalid stands for a schedule that could not be decoded. It is never active.
type Invalid struct {
	Type   string
	Reason string
}

func (Always) Kind() Kind    { return KindAlways }
func (Daily) Kind() Kind     { return KindDaily }
func (Weekly) Kind() Kind    { return KindWeekly }
func (DateRange) Kind() Kind { return KindDateRange }
func (Event) Kind() Kind     { return KindEvent }
func (Seasonal) Kind() Kind  { return KindSeasonal }
func (Invalid) Kind() Kind   { return KindInvalid }

func (Always) isConfig()    {}
func (Daily) isConfig()     {}
func (Weekly) isConfig()    {}
func (DateRange) isConfig() {}
func (Event) isConfig()     {}
func (Seasonal) isConfig()  {}
func (Invalid) isConfig()   {}
