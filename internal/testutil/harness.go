package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/omriShneor/calendar_assistant/internal/database"
	"github.com/omriShneor/calendar_assistant/internal/intent"
	"github.com/omriShneor/calendar_assistant/internal/mocks"
	"github.com/omriShneor/calendar_assistant/internal/pipeline"
	"github.com/omriShneor/calendar_assistant/internal/scheduling"
	"github.com/omriShneor/calendar_assistant/internal/timeextract"
)

// Harness wires a real pipeline to in-memory collaborators: a mock model,
// a canned date parser, an in-memory calendar and a test database.
type Harness struct {
	Calendar *MockGCalClient
	Parser   *FixedParser
	Model    *mocks.MockCompleter
	Notifier *RecordingNotifier
	DB       *database.DB
	Location *time.Location
	// Now is the reference time of every turn: Monday 2024-03-04 09:00.
	Now      time.Time
	Pipeline *pipeline.Pipeline
}

// NewHarness builds a harness in Asia/Kolkata.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	h := &Harness{
		Calendar: NewMockGCalClient(),
		Parser:   &FixedParser{},
		Model:    new(mocks.MockCompleter),
		Notifier: &RecordingNotifier{},
		DB:       database.NewTestDB(t),
		Location: loc,
		Now:      time.Date(2024, 3, 4, 9, 0, 0, 0, loc),
	}

	opts := scheduling.Options{Location: loc}
	h.Pipeline, err = pipeline.New(pipeline.Config{
		Classifier: intent.NewClassifier(h.Model, nil),
		Extractor:  timeextract.NewExtractor(h.Parser, loc, nil),
		Checker:    scheduling.NewChecker(h.Calendar, opts),
		Booker:     scheduling.NewBooker(h.Calendar, "", opts),
		Recorder:   h.DB,
		Notifier:   h.Notifier,
		Now:        func() time.Time { return h.Now },
	})
	require.NoError(t, err)

	return h
}

// ModelReplies makes every model call return raw.
func (h *Harness) ModelReplies(raw string) {
	h.Model.On("Complete", mock.Anything, mock.Anything).Return(raw, nil)
}

// ModelFails makes every model call return err.
func (h *Harness) ModelFails(err error) {
	h.Model.On("Complete", mock.Anything, mock.Anything).Return("", err)
}

// ParseAs makes the date parser find text resolving to at.
func (h *Harness) ParseAs(text string, at time.Time) {
	h.Parser.Matches = []timeextract.Match{{Text: text, Time: at}}
}

// At returns a time on the harness date in its location.
func (h *Harness) At(day, hour, minute int) time.Time {
	return time.Date(2024, 3, day, hour, minute, 0, 0, h.Location)
}
