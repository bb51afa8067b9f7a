package notify

import (
	"context"
	"time"
)

// Booking describes an event the assistant just created.
type Booking struct {
	Summary string
	Start   time.Time
	End     time.Time
	Link    string
	// Query is the message that asked for the booking.
	Query string
}

// Notifier sends booking confirmations to a specific recipient
type Notifier interface {
	// Send sends a confirmation for a booking to the specified recipient
	Send(ctx context.Context, booking Booking, recipient string) error
	// Name returns the notifier type name (for logging)
	Name() string
	// IsConfigured returns true if the notifier has server-side config
	IsConfigured() bool
}
