package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/omriShneor/calendar_assistant/internal/gcal"
	"github.com/omriShneor/calendar_assistant/internal/notify"
	"github.com/omriShneor/calendar_assistant/internal/timeextract"
	"github.com/omriShneor/calendar_assistant/internal/timeutil"
)

// MockGCalClient simulates the Google Calendar client for testing. It keeps
// events in memory and answers range queries with the same overlap rule
// the real API uses.
type MockGCalClient struct {
	mu     sync.Mutex
	events []gcal.EventDetails
	nextID int

	// ListErr and CreateErr make the matching call fail when set.
	ListErr   error
	CreateErr error
	// OmitLinks creates events without an HTML link.
	OmitLinks bool

	ListCalls   int
	CreateCalls int
}

// NewMockGCalClient creates an empty mock calendar
func NewMockGCalClient() *MockGCalClient {
	return &MockGCalClient{}
}

// AddEvent adds a timed event to the mock
func (m *MockGCalClient) AddEvent(summary string, start time.Time, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	end := start.Add(d)
	m.nextID++
	m.events = append(m.events, gcal.EventDetails{
		ID:        fmt.Sprintf("seed-%d", m.nextID),
		Summary:   summary,
		StartTime: start,
		EndTime:   &end,
	})
}

// GetEvents returns all events in the mock
func (m *MockGCalClient) GetEvents() []gcal.EventDetails {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]gcal.EventDetails{}, m.events...)
}

func (m *MockGCalClient) ListEventsInRange(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]gcal.EventDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++

	if m.ListErr != nil {
		return nil, m.ListErr
	}

	var out []gcal.EventDetails
	for _, ev := range m.events {
		if ev.EndTime == nil || timeutil.Overlaps(ev.StartTime, *ev.EndTime, timeMin, timeMax) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *MockGCalClient) CreateEvent(ctx context.Context, calendarID string, input gcal.EventInput) (*gcal.CreatedEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++

	if m.CreateErr != nil {
		return nil, m.CreateErr
	}

	m.nextID++
	id := fmt.Sprintf("evt-%d", m.nextID)
	link := "https://calendar.google.com/event?eid=" + id
	if m.OmitLinks {
		link = ""
	}
	end := input.EndTime
	m.events = append(m.events, gcal.EventDetails{
		ID:        id,
		Summary:   input.Summary,
		StartTime: input.StartTime,
		EndTime:   &end,
		HTMLLink:  link,
	})
	return &gcal.CreatedEvent{ID: id, HTMLLink: link}, nil
}

// FixedParser is a timeextract.DateParser returning canned results.
type FixedParser struct {
	Matches []timeextract.Match
	Err     error
}

func (p *FixedParser) Search(text string, base time.Time) ([]timeextract.Match, error) {
	return p.Matches, p.Err
}

// RecordingNotifier captures booking notices.
type RecordingNotifier struct {
	mu       sync.Mutex
	bookings []notify.Booking
}

func (n *RecordingNotifier) NotifyBooking(ctx context.Context, booking notify.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bookings = append(n.bookings, booking)
}

// Bookings returns the notices received so far
func (n *RecordingNotifier) Bookings() []notify.Booking {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Booking{}, n.bookings...)
}
