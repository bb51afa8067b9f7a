package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/omriShneor/calendar_assistant/internal/gcal"
)

// DefaultSummary is the title of events created by the assistant.
const DefaultSummary = "Booked via AI"

var errNoEvent = errors.New("calendar returned no event")

// Booker creates events on the calendar.
type Booker struct {
	calendar Calendar
	summary  string
	opts     Options
}

func NewBooker(calendar Calendar, summary string, opts Options) *Booker {
	if summary == "" {
		summary = DefaultSummary
	}
	return &Booker{calendar: calendar, summary: summary, opts: opts.withDefaults()}
}

// Book inserts a slot-length event at start. The event exists once Book
// succeeds; its HTML link may still be empty. It does not re-check
// availability.
func (b *Booker) Book(ctx context.Context, start time.Time) (*gcal.CreatedEvent, error) {
	start = start.In(b.opts.Location)

	created, err := b.calendar.CreateEvent(ctx, b.opts.CalendarID, gcal.EventInput{
		Summary:   b.summary,
		StartTime: start,
		EndTime:   start.Add(b.opts.SlotLength),
		TimeZone:  b.opts.Location.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	if created == nil {
		return nil, errNoEvent
	}
	if created.HTMLLink == "" {
		b.opts.Logger.Warn("booked event has no link", zap.String("event_id", created.ID))
	}

	b.opts.Logger.Info("booked slot",
		zap.String("event_id", created.ID),
		zap.Time("start", start),
	)
	return created, nil
}

// Summary returns the title given to booked events.
func (b *Booker) Summary() string {
	return b.summary
}
