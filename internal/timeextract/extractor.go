package timeextract

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/omriShneor/calendar_assistant/internal/logging"
	"github.com/omriShneor/calendar_assistant/internal/timeutil"
)

// ErrTimeParse is returned when the date parser itself fails.
var ErrTimeParse = errors.New("could not understand the time")

// ParseFailureReply is shown when ErrTimeParse ends a turn.
const ParseFailureReply = "😕 Sorry, I couldn't understand the time in your message."

// Hours used for the default slot and the part-of-day adjustments.
const (
	defaultHour     = 15
	afternoonHour   = 15
	eveningHour     = 18
	morningHour     = 10
	noonCutoff      = 12
	eveningCutoff   = 17
	earlyMorningEnd = 8
)

// Extractor turns a message into a concrete slot start in a fixed zone.
type Extractor struct {
	parser   DateParser
	location *time.Location
	logger   *zap.Logger
}

func NewExtractor(parser DateParser, location *time.Location, logger *zap.Logger) *Extractor {
	if location == nil {
		location = time.UTC
	}
	return &Extractor{parser: parser, location: location, logger: logging.OrNop(logger)}
}

// Location returns the fixed zone results are expressed in.
func (e *Extractor) Location() *time.Location {
	return e.location
}

// Extract resolves the first time expression in text against reference.
// With no expression at all it returns the day after reference at 15:00.
func (e *Extractor) Extract(text string, reference time.Time) (time.Time, error) {
	reference = reference.In(e.location)

	matches, err := e.parser.Search(text, reference)
	if err != nil {
		e.logger.Warn("time parsing failed", zap.Error(err))
		return time.Time{}, fmt.Errorf("%w: %v", ErrTimeParse, err)
	}

	if len(matches) == 0 {
		fallback := timeutil.AtClock(reference.AddDate(0, 0, 1), defaultHour, 0)
		e.logger.Debug("no time in message, using default slot", zap.Time("slot", fallback))
		return fallback, nil
	}

	first := matches[0]
	resolved := adjustForDayPart(strings.ToLower(first.Text), first.Time.In(e.location))
	e.logger.Info("extracted time",
		zap.String("matched", first.Text),
		zap.Time("slot", resolved),
	)
	return resolved, nil
}

// adjustForDayPart moves a vague part-of-day reference to a sensible hour.
// Only the first applicable rule fires.
func adjustForDayPart(matched string, t time.Time) time.Time {
	switch {
	case strings.Contains(matched, "afternoon") && t.Hour() < noonCutoff:
		return timeutil.AtClock(t, afternoonHour, 0)
	case strings.Contains(matched, "evening") && t.Hour() < eveningCutoff:
		return timeutil.AtClock(t, eveningHour, 0)
	case strings.Contains(matched, "morning") && t.Hour() < earlyMorningEnd:
		return timeutil.AtClock(t, morningHour, 0)
	}
	return t
}
