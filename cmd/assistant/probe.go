package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/omriShneor/calendar_assistant/internal/config"
	"github.com/omriShneor/calendar_assistant/internal/gcal"
	"github.com/omriShneor/calendar_assistant/internal/logging"
	"github.com/omriShneor/calendar_assistant/internal/onboarding"
	"github.com/omriShneor/calendar_assistant/internal/timeutil"
)

const probeSummary = "Calendar assistant probe"

type probeCalendar interface {
	ListEventsInRange(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]gcal.EventDetails, error)
	CreateEvent(ctx context.Context, calendarID string, input gcal.EventInput) (*gcal.CreatedEvent, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

type probeOptions struct {
	CalendarID string
	Location   *time.Location
	SlotLength time.Duration
	Book       bool
	Cleanup    bool
}

func newProbeCmd(verbose *bool) *cobra.Command {
	var opts probeOptions

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check the calendar for the next hour and optionally book a test event",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadFromEnv()
			logger, err := logging.New(*verbose)
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer logger.Sync()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			clients, err := onboarding.Initialize(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer clients.Close()

			if onboarding.NeedsSetup(clients) {
				return fmt.Errorf("google calendar is not connected: %w", gcal.ErrNotAuthenticated)
			}

			opts.CalendarID = cfg.CalendarID
			opts.Location = clients.Location
			opts.SlotLength = cfg.SlotLength()
			return runProbe(ctx, cmd.OutOrStdout(), clients.GCalClient, opts, time.Now())
		},
	}

	cmd.Flags().BoolVar(&opts.Book, "book", false, "Book a test event when the next hour is free")
	cmd.Flags().BoolVar(&opts.Cleanup, "cleanup", false, "Delete the test event after booking it")
	return cmd
}

func runProbe(ctx context.Context, w io.Writer, cal probeCalendar, opts probeOptions, now time.Time) error {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	now = now.In(opts.Location)

	fmt.Fprintln(w, "✅ Checking availability for the next hour...")
	events, err := cal.ListEventsInRange(ctx, opts.CalendarID, now.UTC(), now.Add(time.Hour).UTC())
	if err != nil {
		return fmt.Errorf("failed to read calendar: %w", err)
	}

	if len(events) > 0 {
		fmt.Fprintln(w, "❌ Calendar is busy. Found events:")
		for _, ev := range events {
			printEvent(w, ev, opts.Location)
		}
		return nil
	}

	if !opts.Book {
		fmt.Fprintln(w, "✅ Calendar is free!")
		return nil
	}

	start := now.Add(5 * time.Minute).Truncate(time.Minute)
	fmt.Fprintln(w, "✅ Calendar is free! Booking test event...")
	created, err := cal.CreateEvent(ctx, opts.CalendarID, gcal.EventInput{
		Summary:   probeSummary,
		StartTime: start,
		EndTime:   start.Add(opts.SlotLength),
		TimeZone:  opts.Location.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to book test event: %w", err)
	}
	fmt.Fprintf(w, "📅 Event booked successfully: %s\n", created.HTMLLink)

	if opts.Cleanup {
		err := cal.DeleteEvent(ctx, opts.CalendarID, created.ID)
		if err != nil && !gcal.IsEventNotFound(err) {
			return fmt.Errorf("failed to delete test event %s: %w", created.ID, err)
		}
		fmt.Fprintln(w, "🧹 Test event deleted")
	}
	return nil
}

func printEvent(w io.Writer, ev gcal.EventDetails, loc *time.Location) {
	title := ev.Summary
	if title == "" {
		title = "[No Title]"
	}
	fmt.Fprintf(w, "🔸 %s\n", title)
	if ev.AllDay {
		fmt.Fprintln(w, "   ⏰ All day")
		return
	}
	fmt.Fprintf(w, "   ⏰ Start: %s\n", timeutil.FormatSlot(ev.StartTime.In(loc)))
	if ev.EndTime != nil {
		fmt.Fprintf(w, "   🛑 End  : %s\n", timeutil.FormatSlot(ev.EndTime.In(loc)))
	} else {
		fmt.Fprintln(w, "   🛑 End  : [No End]")
	}
}
