package pipeline

import (
	"time"

	"github.com/omriShneor/calendar_assistant/internal/gcal"
	"github.com/omriShneor/calendar_assistant/internal/intent"
)

// Outcome names how a turn ended.
type Outcome string

const (
	OutcomeQuotaError          Outcome = "quota_error"
	OutcomeUnresolved          Outcome = "unresolved"
	OutcomeTimeParseFailed     Outcome = "time_parse_failed"
	OutcomeCalendarUnavailable Outcome = "calendar_unavailable"
	OutcomeChecked             Outcome = "checked"
	OutcomeSlotBusy            Outcome = "slot_busy"
	OutcomeBooked              Outcome = "booked"
	OutcomeBookingFailed       Outcome = "booking_failed"
	OutcomeNoReply             Outcome = "no_reply"
)

// State is the per-request record passed between steps. Steps receive it
// by value and return an updated copy.
type State struct {
	TurnID    string
	UserInput string
	Intent    intent.Intent

	// ReferenceTime is "now" for time extraction, fixed at turn start.
	ReferenceTime time.Time
	ScheduledTime time.Time
	HasTime       bool
	SlotEnd       time.Time

	// SlotFree is nil until the slot has been checked.
	SlotFree  *bool
	Conflicts []gcal.EventDetails

	BookingLink string
	Reply       string
	Outcome     Outcome

	// halted marks a failure that ends the turn early.
	halted bool
}

// Halted reports whether a step ended the turn early.
func (s State) Halted() bool {
	return s.halted
}

func (s State) withReply(text string) State {
	s.Reply += text
	return s
}

func (s State) halt(reply string, outcome Outcome) State {
	s.Reply += reply
	s.Outcome = outcome
	s.halted = true
	return s
}
