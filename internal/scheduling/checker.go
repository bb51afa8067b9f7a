package scheduling

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/omriShneor/calendar_assistant/internal/gcal"
	"github.com/omriShneor/calendar_assistant/internal/logging"
	"github.com/omriShneor/calendar_assistant/internal/timeutil"
)

// DefaultSlotLength is the length of every checked or booked slot.
const DefaultSlotLength = 30 * time.Minute

// Calendar is the subset of the Google Calendar client the assistant needs.
type Calendar interface {
	ListEventsInRange(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]gcal.EventDetails, error)
	CreateEvent(ctx context.Context, calendarID string, input gcal.EventInput) (*gcal.CreatedEvent, error)
}

// Options are shared by Checker and Booker.
type Options struct {
	CalendarID string
	Location   *time.Location
	SlotLength time.Duration
	// MaxEventSpan ignores existing events longer than this when non-zero.
	MaxEventSpan time.Duration
	Logger       *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.CalendarID == "" {
		o.CalendarID = "primary"
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.SlotLength <= 0 {
		o.SlotLength = DefaultSlotLength
	}
	o.Logger = logging.OrNop(o.Logger)
	return o
}

// SlotCheck is the result of checking one slot.
type SlotCheck struct {
	Start     time.Time
	End       time.Time
	Free      bool
	Conflicts []gcal.EventDetails
	Reply     string
}

// Checker answers whether a slot is free on the calendar.
type Checker struct {
	calendar Calendar
	opts     Options
}

func NewChecker(calendar Calendar, opts Options) *Checker {
	return &Checker{calendar: calendar, opts: opts.withDefaults()}
}

// CheckSlot reads the calendar around [start, start+slot) and reports the
// first timed event overlapping it. It writes nothing.
func (c *Checker) CheckSlot(ctx context.Context, start time.Time) (*SlotCheck, error) {
	start = start.In(c.opts.Location)
	end := start.Add(c.opts.SlotLength)

	events, err := c.calendar.ListEventsInRange(ctx, c.opts.CalendarID, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar: %w", err)
	}

	check := &SlotCheck{Start: start, End: end, Free: true}
	for _, ev := range events {
		if !c.conflicts(ev, start, end) {
			continue
		}
		check.Free = false
		check.Conflicts = append(check.Conflicts, ev)
		break
	}

	if check.Free {
		check.Reply = fmt.Sprintf("✅ You're free at %s!", timeutil.FormatSlot(start))
	} else {
		check.Reply = fmt.Sprintf("❌ You're busy at %s.", timeutil.FormatSlot(start))
	}

	c.opts.Logger.Info("checked slot",
		zap.Time("start", start),
		zap.Int("events", len(events)),
		zap.Bool("free", check.Free),
	)
	return check, nil
}

func (c *Checker) conflicts(ev gcal.EventDetails, start, end time.Time) bool {
	if ev.AllDay || ev.EndTime == nil {
		return false
	}
	if c.opts.MaxEventSpan > 0 && ev.EndTime.Sub(ev.StartTime) > c.opts.MaxEventSpan {
		return false
	}
	return timeutil.Overlaps(ev.StartTime, *ev.EndTime, start, end)
}
