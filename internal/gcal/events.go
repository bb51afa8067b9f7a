package gcal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

const primaryCalendarID = "primary"

var ErrEventNotFound = errors.New("google calendar event not found")

// IsEventNotFound returns true when a Google Calendar event no longer exists.
func IsEventNotFound(err error) bool {
	return errors.Is(err, ErrEventNotFound)
}

// EventInput represents the input for creating a calendar event
type EventInput struct {
	Summary     string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	// TimeZone is the IANA zone name sent alongside the zoned start/end.
	TimeZone string
}

// CreatedEvent identifies an event after insertion.
type CreatedEvent struct {
	ID       string
	HTMLLink string
}

// EventDetails represents a single Google Calendar event.
type EventDetails struct {
	ID        string
	Summary   string
	StartTime time.Time
	EndTime   *time.Time
	AllDay    bool
	HTMLLink  string
}

func parseGoogleEventTimes(item *calendar.Event, loc *time.Location) (time.Time, time.Time, bool, error) {
	if item == nil || item.Start == nil || item.End == nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("event is missing start or end")
	}

	// All-day events use Date instead of DateTime.
	if item.Start.Date != "" {
		startDate, err := time.ParseInLocation("2006-01-02", item.Start.Date, loc)
		if err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("failed to parse all-day start date: %w", err)
		}
		endDate, err := time.ParseInLocation("2006-01-02", item.End.Date, loc)
		if err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("failed to parse all-day end date: %w", err)
		}
		return startDate, endDate, true, nil
	}

	if item.Start.DateTime == "" || item.End.DateTime == "" {
		return time.Time{}, time.Time{}, false, fmt.Errorf("event datetime is missing")
	}

	startTime, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("failed to parse start datetime: %w", err)
	}
	endTime, err := time.Parse(time.RFC3339, item.End.DateTime)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("failed to parse end datetime: %w", err)
	}

	return startTime, endTime, false, nil
}

// CreateEvent creates a new event in Google Calendar and returns its ID and link
func (c *Client) CreateEvent(ctx context.Context, calendarID string, input EventInput) (*CreatedEvent, error) {
	service, err := c.calendarService()
	if err != nil {
		return nil, err
	}

	if calendarID == "" {
		calendarID = primaryCalendarID
	}

	// RFC3339 carries the offset; TimeZone names the zone for display.
	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Start: &calendar.EventDateTime{
			DateTime: input.StartTime.Format(time.RFC3339),
			TimeZone: input.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: input.EndTime.Format(time.RFC3339),
			TimeZone: input.TimeZone,
		},
		Reminders: &calendar.EventReminders{
			UseDefault: true,
		},
	}

	created, err := service.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return &CreatedEvent{ID: created.Id, HTMLLink: created.HtmlLink}, nil
}

// DeleteEvent deletes an event from Google Calendar
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	service, err := c.calendarService()
	if err != nil {
		return err
	}

	if calendarID == "" {
		calendarID = primaryCalendarID
	}

	err = service.Events.Delete(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		var gErr *googleapi.Error
		if errors.As(err, &gErr) && (gErr.Code == http.StatusNotFound || gErr.Code == http.StatusGone) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to delete event: %w", err)
	}

	return nil
}

// ListEventsInRange returns events in a time window from Google Calendar.
// The window is sent to the API in UTC.
func (c *Client) ListEventsInRange(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]EventDetails, error) {
	service, err := c.calendarService()
	if err != nil {
		return nil, err
	}
	if timeMax.Before(timeMin) {
		return nil, fmt.Errorf("invalid range: time_max is before time_min")
	}
	if calendarID == "" {
		calendarID = primaryCalendarID
	}

	var result []EventDetails
	pageToken := ""

	for {
		call := service.Events.List(calendarID).
			TimeMin(timeMin.UTC().Format(time.RFC3339)).
			TimeMax(timeMax.UTC().Format(time.RFC3339)).
			SingleEvents(true).
			ShowDeleted(false).
			OrderBy("startTime").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		events, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list events in range: %w", err)
		}

		for _, item := range events.Items {
			if item == nil || item.Status == "cancelled" {
				continue
			}

			startTime, endTime, allDay, parseErr := parseGoogleEventTimes(item, c.location)
			if parseErr != nil {
				c.logger.Debug("skipping calendar event with unreadable times")
				continue
			}

			endCopy := endTime
			result = append(result, EventDetails{
				ID:        item.Id,
				Summary:   item.Summary,
				StartTime: startTime,
				EndTime:   &endCopy,
				AllDay:    allDay,
				HTMLLink:  item.HtmlLink,
			})
		}

		if events.NextPageToken == "" {
			break
		}
		pageToken = events.NextPageToken
	}

	return result, nil
}
