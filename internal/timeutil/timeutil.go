package timeutil

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// DefaultTimezone is the zone every slot is expressed in unless configured otherwise.
const DefaultTimezone = "Asia/Kolkata"

// slotLayout renders a slot start with a 12-hour clock and weekday name.
const slotLayout = "03:04 PM on Monday"

// LoadLocation loads the named zone. An empty name means DefaultTimezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return loc, nil
}

// AtClock returns t's calendar date at hour:minute:00.000 in t's location.
func AtClock(t time.Time, hour, minute int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, t.Location())
}

// FormatSlot renders a slot start as e.g. "04:00 PM on Tuesday".
func FormatSlot(t time.Time) string {
	return t.Format(slotLayout)
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share any instant.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
