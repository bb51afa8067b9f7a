package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/omriShneor/calendar_assistant/internal/database"
	"github.com/omriShneor/calendar_assistant/internal/gcal"
	"github.com/omriShneor/calendar_assistant/internal/intent"
	"github.com/omriShneor/calendar_assistant/internal/logging"
	"github.com/omriShneor/calendar_assistant/internal/notify"
	"github.com/omriShneor/calendar_assistant/internal/scheduling"
	"github.com/omriShneor/calendar_assistant/internal/timeextract"
)

const (
	UnknownReply          = "❓ Sorry, I didn't understand. Try asking to *book* or *check* availability."
	NoReplyFallback       = "⚠️ No response generated. Please try again."
	CalendarFailureReply  = "⚠️ I couldn't reach your calendar. Please try again later."
	bookedReplyFormat     = " 📅 Event booked! 👉 %s"
	bookedNoLinkReply     = " 📅 Event booked!"
	bookingFailedFormat   = " 🚫 Booking failed: %v"
	conflictSummaryMaxLen = 200
)

type Classifier interface {
	Classify(ctx context.Context, text string) intent.Result
}

type Extractor interface {
	Extract(text string, reference time.Time) (time.Time, error)
}

type Checker interface {
	CheckSlot(ctx context.Context, start time.Time) (*scheduling.SlotCheck, error)
}

type Booker interface {
	Book(ctx context.Context, start time.Time) (*gcal.CreatedEvent, error)
	Summary() string
}

// Recorder persists the trace of a finished turn.
type Recorder interface {
	CreateTurnTrace(trace *database.TurnTrace) error
}

// Notifier is told about every successful booking.
type Notifier interface {
	NotifyBooking(ctx context.Context, booking notify.Booking)
}

// Config wires the pipeline's collaborators. Recorder and Notifier are
// optional.
type Config struct {
	Classifier Classifier
	Extractor  Extractor
	Checker    Checker
	Booker     Booker
	Recorder   Recorder
	Notifier   Notifier
	Logger     *zap.Logger
	// Now returns the reference time of a new turn. Defaults to time.Now.
	Now func() time.Time
}

// Pipeline runs one user message through classify, extract, check and book.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	classifier Classifier
	extractor  Extractor
	checker    Checker
	booker     Booker
	recorder   Recorder
	notifier   Notifier
	logger     *zap.Logger
	now        func() time.Time
}

func New(cfg Config) (*Pipeline, error) {
	if cfg.Classifier == nil || cfg.Extractor == nil || cfg.Checker == nil || cfg.Booker == nil {
		return nil, fmt.Errorf("pipeline requires a classifier, extractor, checker and booker")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Pipeline{
		classifier: cfg.Classifier,
		extractor:  cfg.Extractor,
		checker:    cfg.Checker,
		booker:     cfg.Booker,
		recorder:   cfg.Recorder,
		notifier:   cfg.Notifier,
		logger:     logging.OrNop(cfg.Logger),
		now:        cfg.Now,
	}, nil
}

// Reply runs a turn and returns only the reply text.
func (p *Pipeline) Reply(ctx context.Context, input string) string {
	state, err := p.Run(ctx, input)
	if err != nil {
		p.logger.Error("turn failed", zap.String("turn_id", state.TurnID), zap.Error(err))
	}
	return state.Reply
}

// Run drives a fresh state from Start to Terminal and returns it. The only
// error is a context that was already done before the turn started.
func (p *Pipeline) Run(ctx context.Context, input string) (State, error) {
	started := time.Now()
	state := State{
		TurnID:        uuid.NewString(),
		UserInput:     input,
		ReferenceTime: p.now(),
	}

	if err := ctx.Err(); err != nil {
		return p.finish(state, started), fmt.Errorf("turn aborted: %w", err)
	}

	for step := Start; step != Terminal; {
		state = p.apply(ctx, step, state)
		next := Next(step, state)
		p.logger.Debug("step",
			zap.String("turn_id", state.TurnID),
			zap.Stringer("from", step),
			zap.Stringer("to", next),
		)
		step = next
	}

	return p.finish(state, started), nil
}

func (p *Pipeline) apply(ctx context.Context, step Step, s State) State {
	switch step {
	case ClassifyIntent:
		return p.classify(ctx, s)
	case ExtractTime:
		return p.extract(s)
	case CheckSlot:
		return p.check(ctx, s)
	case BookSlot:
		return p.book(ctx, s)
	case Unresolved:
		return unresolved(s)
	}
	return s
}

func (p *Pipeline) classify(ctx context.Context, s State) State {
	res := p.classifier.Classify(ctx, s.UserInput)
	s.Intent = res.Intent
	if res.Intent == intent.QuotaError {
		s.Outcome = OutcomeQuotaError
		return s.withReply(res.Reply)
	}
	return s
}

func (p *Pipeline) extract(s State) State {
	t, err := p.extractor.Extract(s.UserInput, s.ReferenceTime)
	if err != nil {
		s.Intent = intent.Unknown
		return s.halt(timeextract.ParseFailureReply, OutcomeTimeParseFailed)
	}
	s.ScheduledTime = t
	s.HasTime = true
	return s
}

func (p *Pipeline) check(ctx context.Context, s State) State {
	check, err := p.checker.CheckSlot(ctx, s.ScheduledTime)
	if err != nil {
		p.logger.Warn("calendar read failed", zap.String("turn_id", s.TurnID), zap.Error(err))
		return s.halt(CalendarFailureReply, OutcomeCalendarUnavailable)
	}

	free := check.Free
	s.SlotFree = &free
	s.SlotEnd = check.End
	s.Conflicts = check.Conflicts
	s.Outcome = OutcomeChecked
	return s.withReply(check.Reply)
}

// book is a no-op unless the checked slot is free.
func (p *Pipeline) book(ctx context.Context, s State) State {
	if s.SlotFree == nil || !*s.SlotFree {
		s.Outcome = OutcomeSlotBusy
		return s
	}

	created, err := p.booker.Book(ctx, s.ScheduledTime)
	if err != nil {
		p.logger.Warn("booking failed", zap.String("turn_id", s.TurnID), zap.Error(err))
		s.Outcome = OutcomeBookingFailed
		return s.withReply(fmt.Sprintf(bookingFailedFormat, err))
	}

	s.BookingLink = created.HTMLLink
	s.Outcome = OutcomeBooked

	if p.notifier != nil {
		p.notifier.NotifyBooking(ctx, notify.Booking{
			Summary: p.booker.Summary(),
			Start:   s.ScheduledTime,
			End:     s.SlotEnd,
			Link:    created.HTMLLink,
			Query:   s.UserInput,
		})
	}
	if created.HTMLLink == "" {
		return s.withReply(bookedNoLinkReply)
	}
	return s.withReply(fmt.Sprintf(bookedReplyFormat, created.HTMLLink))
}

func unresolved(s State) State {
	s.Outcome = OutcomeUnresolved
	if s.Reply == "" {
		s.Reply = UnknownReply
	}
	return s
}

func (p *Pipeline) finish(s State, started time.Time) State {
	if s.Reply == "" {
		p.logger.Warn("turn produced no reply", zap.String("turn_id", s.TurnID), zap.String("intent", s.Intent.String()))
		s.Reply = NoReplyFallback
		s.Outcome = OutcomeNoReply
	}

	p.logger.Info("turn complete",
		zap.String("turn_id", s.TurnID),
		zap.String("intent", s.Intent.String()),
		zap.String("outcome", string(s.Outcome)),
		zap.Duration("took", time.Since(started)),
	)

	if p.recorder != nil {
		if err := p.recorder.CreateTurnTrace(trace(s, time.Since(started))); err != nil {
			p.logger.Warn("failed to record turn", zap.String("turn_id", s.TurnID), zap.Error(err))
		}
	}
	return s
}

func trace(s State, took time.Duration) *database.TurnTrace {
	t := &database.TurnTrace{
		ID:          s.TurnID,
		Query:       s.UserInput,
		Intent:      s.Intent.String(),
		SlotFree:    s.SlotFree,
		Outcome:     string(s.Outcome),
		Reply:       s.Reply,
		BookingLink: s.BookingLink,
		Duration:    took,
	}
	if s.HasTime {
		start := s.ScheduledTime
		t.SlotStart = &start
	}
	if len(s.Conflicts) > 0 {
		names := make([]string, 0, len(s.Conflicts))
		for _, c := range s.Conflicts {
			names = append(names, c.Summary)
		}
		t.ConflictSummary = logging.Truncate(strings.Join(names, ", "), conflictSummaryMaxLen)
	}
	return t
}
