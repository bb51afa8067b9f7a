package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/omriShneor/calendar_assistant/internal/gcal"
)

// MockCalendar is a mock implementation of scheduling.Calendar
type MockCalendar struct {
	mock.Mock
}

func (m *MockCalendar) ListEventsInRange(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]gcal.EventDetails, error) {
	args := m.Called(ctx, calendarID, timeMin, timeMax)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gcal.EventDetails), args.Error(1)
}

func (m *MockCalendar) CreateEvent(ctx context.Context, calendarID string, input gcal.EventInput) (*gcal.CreatedEvent, error) {
	args := m.Called(ctx, calendarID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gcal.CreatedEvent), args.Error(1)
}
