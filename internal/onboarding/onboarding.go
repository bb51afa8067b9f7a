package onboarding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/omriShneor/calendar_assistant/internal/config"
	"github.com/omriShneor/calendar_assistant/internal/database"
	"github.com/omriShneor/calendar_assistant/internal/gcal"
	"github.com/omriShneor/calendar_assistant/internal/intent"
	"github.com/omriShneor/calendar_assistant/internal/llm"
	"github.com/omriShneor/calendar_assistant/internal/notify"
	"github.com/omriShneor/calendar_assistant/internal/pipeline"
	"github.com/omriShneor/calendar_assistant/internal/scheduling"
	"github.com/omriShneor/calendar_assistant/internal/timeextract"
	"github.com/omriShneor/calendar_assistant/internal/timeutil"
)

// Initialize resolves the fixed zone and creates the calendar and language
// model clients. A missing calendar credential or model key is reported but
// not fatal: the assistant still answers, with the matching failure reply.
func Initialize(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Clients, error) {
	loc, err := timeutil.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	model, err := llm.New(ctx, llm.Config{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.LLMAPIKey(),
		Model:    modelName(cfg),
		BaseURL:  cfg.OpenAIBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create language model client: %w", err)
	}
	if llm.IsConfigured(model) {
		fmt.Printf("Language model configured (%s)\n", model.Name())
	} else {
		fmt.Println("Warning: no language model API key set, every actionable message will get the quota reply")
	}

	gcalClient, err := gcal.NewClient(gcal.ClientConfig{
		CredentialsFile: cfg.GoogleCredentialsFile,
		TokenFile:       cfg.GoogleTokenFile,
		RedirectURL:     gcal.CallbackURL(cfg.BaseURL, cfg.HTTPPort),
		Location:        loc,
		Logger:          logger,
	})
	if err != nil {
		logger.Warn("Google Calendar client unavailable", zap.Error(err))
		gcalClient = nil
	}

	clients := &Clients{GCalClient: gcalClient, Model: model, Location: loc}
	if NeedsSetup(clients) {
		fmt.Printf("\n=== Setup Required ===\n")
		fmt.Printf("Visit %s to connect Google Calendar\n\n", setupURL(cfg))
	}
	return clients, nil
}

// NeedsSetup reports whether the calendar still has to be authorized.
func NeedsSetup(c *Clients) bool {
	return c.GCalClient == nil || !c.GCalClient.IsAuthenticated()
}

// Calendar returns the calendar the pipeline should use. Before
// authorization every call fails with gcal.ErrNotAuthenticated.
func (c *Clients) Calendar() scheduling.Calendar {
	if c.GCalClient == nil {
		return unauthorizedCalendar{}
	}
	return c.GCalClient
}

// BuildPipeline wires the conversation pipeline from configuration.
// recorder and notifier may be nil.
func BuildPipeline(cfg *config.Config, clients *Clients, recorder *database.DB, notifier *notify.Service, logger *zap.Logger) (*pipeline.Pipeline, error) {
	opts := scheduling.Options{
		CalendarID:   cfg.CalendarID,
		Location:     clients.Location,
		SlotLength:   cfg.SlotLength(),
		MaxEventSpan: cfg.MaxEventSpan,
		Logger:       logger,
	}

	pcfg := pipeline.Config{
		Classifier: intent.NewClassifier(clients.Model, logger),
		Extractor:  timeextract.NewExtractor(timeextract.NewWhenParser(), clients.Location, logger),
		Checker:    scheduling.NewChecker(clients.Calendar(), opts),
		Booker:     scheduling.NewBooker(clients.Calendar(), cfg.BookingSummary, opts),
		Logger:     logger,
	}
	if recorder != nil {
		pcfg.Recorder = recorder
	}
	if notifier != nil {
		pcfg.Notifier = notifier
	}
	return pipeline.New(pcfg)
}

func modelName(cfg *config.Config) string {
	if cfg.LLMProvider == "openai" {
		return cfg.OpenAIModel
	}
	return cfg.GeminiModel
}

func setupURL(cfg *config.Config) string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL + "/"
	}
	return fmt.Sprintf("http://localhost:%d/", cfg.HTTPPort)
}

type unauthorizedCalendar struct{}

var errNoCredentials = errors.Join(gcal.ErrNotAuthenticated, errors.New("no OAuth credentials loaded"))

func (unauthorizedCalendar) ListEventsInRange(context.Context, string, time.Time, time.Time) ([]gcal.EventDetails, error) {
	return nil, errNoCredentials
}

func (unauthorizedCalendar) CreateEvent(context.Context, string, gcal.EventInput) (*gcal.CreatedEvent, error) {
	return nil, errNoCredentials
}
