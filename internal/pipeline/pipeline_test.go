package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/omriShneor/calendar_assistant/internal/intent"
	"github.com/omriShneor/calendar_assistant/internal/pipeline"
	"github.com/omriShneor/calendar_assistant/internal/testutil"
	"github.com/omriShneor/calendar_assistant/internal/timeextract"
)

func TestRun_BookFreeSlot(t *testing.T) {
	h := testutil.NewHarness(t)
	h.ModelReplies("book")
	h.ParseAs("tomorrow at 4pm", h.At(5, 16, 0))

	state, err := h.Pipeline.Run(context.Background(), "Book a meeting tomorrow at 4pm")
	require.NoError(t, err)

	assert.Equal(t, intent.Book, state.Intent)
	assert.Contains(t, state.Reply, "✅ You're free at 04:00 PM on Tuesday!")
	assert.Contains(t, state.Reply, " 📅 Event booked! 👉 https://calendar.google.com/event?eid=")
	assert.NotEmpty(t, state.BookingLink)
	assert.Equal(t, pipeline.OutcomeBooked, state.Outcome)

	events := h.Calendar.GetEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "Booked via AI", events[0].Summary)
	assert.True(t, h.At(5, 16, 0).Equal(events[0].StartTime))
	assert.Equal(t, 30*time.Minute, events[0].EndTime.Sub(events[0].StartTime))

	notices := h.Notifier.Bookings()
	require.Len(t, notices, 1)
	assert.Equal(t, state.BookingLink, notices[0].Link)
	assert.True(t, h.At(5, 16, 30).Equal(notices[0].End))
}

func TestRun_CheckBusySlot(t *testing.T) {
	h := testutil.NewHarness(t)
	h.ModelReplies("check")
	h.ParseAs("tomorrow at 3pm", h.At(5, 15, 0))
	h.Calendar.AddEvent("Design review", h.At(5, 14, 30), time.Hour)

	reply := h.Pipeline.Reply(context.Background(), "Am I free tomorrow at 3pm?")

	assert.Equal(t, "❌ You're busy at 03:00 PM on Tuesday.", reply)
	assert.NotContains(t, reply, "📅")
	assert.Equal(t, 0, h.Calendar.CreateCalls)
}

func TestRun_BookBusySlotSkipsBooking(t *testing.T) {
	h := testutil.NewHarness(t)
	h.ModelReplies("book")
	h.ParseAs("tomorrow at 3pm", h.At(5, 15, 0))
	h.Calendar.AddEvent("Design review", h.At(5, 15, 15), time.Hour)

	state, err := h.Pipeline.Run(context.Background(), "Book a call tomorrow at 3pm")
	require.NoError(t, err)

	assert.Equal(t, "❌ You're busy at 03:00 PM on Tuesday.", state.Reply)
	assert.Equal(t, pipeline.OutcomeSlotBusy, state.Outcome)
	assert.Equal(t, 0, h.Calendar.CreateCalls)
	assert.Empty(t, h.Notifier.Bookings())
	require.Len(t, state.Conflicts, 1)
	assert.Equal(t, "Design review", state.Conflicts[0].Summary)
}

func TestRun_Greeting(t *testing.T) {
	h := testutil.NewHarness(t)

	reply := h.Pipeline.Reply(context.Background(), "hello")

	assert.Equal(t, pipeline.UnknownReply, reply)
	h.Model.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	assert.Equal(t, 0, h.Calendar.ListCalls)
}

func TestRun_ModelUnknown(t *testing.T) {
	h := testutil.NewHarness(t)
	h.ModelReplies("I cannot book this")

	state, err := h.Pipeline.Run(context.Background(), "could you maybe sort out my schedule thing")
	require.NoError(t, err)

	assert.Equal(t, intent.Unknown, state.Intent)
	assert.Equal(t, pipeline.UnknownReply, state.Reply)
	assert.Equal(t, pipeline.OutcomeUnresolved, state.Outcome)
}

func TestRun_QuotaError(t *testing.T) {
	h := testutil.NewHarness(t)
	h.ModelFails(errors.New("googleapi: Error 429: Resource has been exhausted"))

	state, err := h.Pipeline.Run(context.Background(), "Book a meeting for Monday at 4 PM")
	require.NoError(t, err)

	assert.Equal(t, intent.QuotaError, state.Intent)
	assert.Equal(t, intent.QuotaReply, state.Reply)
	assert.False(t, state.HasTime)
	assert.Equal(t, 0, h.Calendar.ListCalls)
}

func TestRun_TimeParseFailure(t *testing.T) {
	h := testutil.NewHarness(t)
	h.ModelReplies("book")
	h.Parser.Err = errors.New("parser exploded")

	state, err := h.Pipeline.Run(context.Background(), "Book a meeting at some point")
	require.NoError(t, err)

	assert.Equal(t, intent.Unknown, state.Intent)
	assert.Equal(t, timeextract.ParseFailureReply, state.Reply)
	assert.True(t, state.Halted())
	assert.Equal(t, 0, h.Calendar.ListCalls)
}

func TestRun_NoTimeDefaultsToTomorrowAfternoon(t *testing.T) {
	h := testutil.NewHarness(t)
	h.ModelReplies("check")

	state, err := h.Pipeline.Run(context.Background(), "am I available for a meeting")
	require.NoError(t, err)

	assert.True(t, h.At(5, 15, 0).Equal(state.ScheduledTime))
	assert.Equal(t, "✅ You're free at 03:00 PM on Tuesday!", state.Reply)
}

func TestRun_CalendarReadFailure(t *testing.T) {
	h := testutil.NewHarness(t)
	h.ModelReplies("book")
	h.ParseAs("tomorrow at 4pm", h.At(5, 16, 0))
	h.Calendar.ListErr = errors.New("connection refused")

	state, err := h.Pipeline.Run(context.Background(), "Book a meeting tomorrow at 4pm")
	require.NoError(t, err)

	assert.Equal(t, pipeline.CalendarFailureReply, state.Reply)
	assert.Equal(t, pipeline.OutcomeCalendarUnavailable, state.Outcome)
	assert.Nil(t, state.SlotFree)
	assert.Equal(t, 0, h.Calendar.CreateCalls)
}

func TestRun_BookingFailureKeepsAvailabilityText(t *testing.T) {
	h := testutil.NewHarness(t)
	h.ModelReplies("book")
	h.ParseAs("tomorrow at 4pm", h.At(5, 16, 0))
	h.Calendar.CreateErr = errors.New("insufficient permissions")

	state, err := h.Pipeline.Run(context.Background(), "Book a meeting tomorrow at 4pm")
	require.NoError(t, err)

	assert.True(t, len(state.Reply) > 0)
	assert.Contains(t, state.Reply, "✅ You're free at 04:00 PM on Tuesday!")
	assert.Contains(t, state.Reply, " 🚫 Booking failed: ")
	assert.Contains(t, state.Reply, "insufficient permissions")
	assert.Empty(t, state.BookingLink)
	assert.Empty(t, h.Notifier.Bookings())
}

func TestRun_BookedEventWithoutLink(t *testing.T) {
	h := testutil.NewHarness(t)
	h.ModelReplies("book")
	h.ParseAs("tomorrow at 4pm", h.At(5, 16, 0))
	h.Calendar.OmitLinks = true

	state, err := h.Pipeline.Run(context.Background(), "Book a meeting tomorrow at 4pm")
	require.NoError(t, err)

	assert.Equal(t, "✅ You're free at 04:00 PM on Tuesday! 📅 Event booked!", state.Reply)
	assert.NotContains(t, state.Reply, "Booking failed")
	assert.Equal(t, pipeline.OutcomeBooked, state.Outcome)
	assert.Len(t, h.Calendar.GetEvents(), 1)
	assert.Len(t, h.Notifier.Bookings(), 1)
}

func TestRun_RecordsTrace(t *testing.T) {
	h := testutil.NewHarness(t)
	h.ModelReplies("check")
	h.ParseAs("tomorrow at 3pm", h.At(5, 15, 0))
	h.Calendar.AddEvent("Standup", h.At(5, 15, 0), 15*time.Minute)

	state, err := h.Pipeline.Run(context.Background(), "Am I free tomorrow at 3pm?")
	require.NoError(t, err)

	trace, err := h.DB.GetTurnTrace(state.TurnID)
	require.NoError(t, err)
	assert.Equal(t, "Am I free tomorrow at 3pm?", trace.Query)
	assert.Equal(t, "check", trace.Intent)
	assert.Equal(t, "checked", trace.Outcome)
	assert.Equal(t, state.Reply, trace.Reply)
	assert.Equal(t, "Standup", trace.ConflictSummary)
	require.NotNil(t, trace.SlotFree)
	assert.False(t, *trace.SlotFree)
	require.NotNil(t, trace.SlotStart)
	assert.True(t, h.At(5, 15, 0).Equal(*trace.SlotStart))
}

func TestRun_FreshStatePerTurn(t *testing.T) {
	h := testutil.NewHarness(t)
	h.ModelReplies("check")
	h.ParseAs("tomorrow at 3pm", h.At(5, 15, 0))

	first, err := h.Pipeline.Run(context.Background(), "Am I free tomorrow at 3pm?")
	require.NoError(t, err)
	second, err := h.Pipeline.Run(context.Background(), "Am I free tomorrow at 3pm?")
	require.NoError(t, err)

	assert.NotEqual(t, first.TurnID, second.TurnID)
	assert.Equal(t, first.Reply, second.Reply)
}

func TestRun_CancelledContext(t *testing.T) {
	h := testutil.NewHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state, err := h.Pipeline.Run(ctx, "Book a meeting tomorrow at 4pm")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, pipeline.NoReplyFallback, state.Reply)
	assert.Equal(t, pipeline.NoReplyFallback, h.Pipeline.Reply(ctx, "Book a meeting tomorrow at 4pm"))
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := pipeline.New(pipeline.Config{})
	assert.Error(t, err)
}
