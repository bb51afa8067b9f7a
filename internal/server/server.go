package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/omriShneor/calendar_assistant/internal/database"
	"github.com/omriShneor/calendar_assistant/internal/gcal"
	"github.com/omriShneor/calendar_assistant/internal/logging"
)

// Assistant answers one free-text message.
type Assistant interface {
	Reply(ctx context.Context, input string) string
}

// CalendarAuth is the OAuth surface of the calendar client.
type CalendarAuth interface {
	IsAuthenticated() bool
	GetAuthURL() string
	ExchangeCode(ctx context.Context, code string) error
	ListCalendars(ctx context.Context) ([]gcal.CalendarInfo, error)
}

type Server struct {
	db         *database.DB
	assistant  Assistant
	gcalClient CalendarAuth
	calendarID string
	llmName    string
	llmReady   bool
	limiter    *RateLimiter
	httpSrv    *http.Server
	port       int
	baseURL    string
	devMode    bool
	logger     *zap.Logger
}

// ServerConfig holds everything the HTTP layer needs
type ServerConfig struct {
	DB         *database.DB
	Assistant  Assistant
	GCalClient CalendarAuth
	// CalendarID is the calendar the assistant books on.
	CalendarID string
	// LLMName and LLMReady are reported by /health.
	LLMName  string
	LLMReady bool
	Port     int
	BaseURL  string
	DevMode  bool
	// RatePerMinute caps /ask requests per client IP; 0 disables the limit.
	RatePerMinute int
	Logger        *zap.Logger
}

func New(cfg ServerConfig) *Server {
	s := &Server{
		db:         cfg.DB,
		assistant:  cfg.Assistant,
		gcalClient: cfg.GCalClient,
		calendarID: cfg.CalendarID,
		llmName:    cfg.LLMName,
		llmReady:   cfg.LLMReady,
		port:       cfg.Port,
		baseURL:    cfg.BaseURL,
		devMode:    cfg.DevMode,
		logger:     logging.OrNop(cfg.Logger),
	}
	if cfg.RatePerMinute > 0 {
		s.limiter = NewRateLimiter(cfg.RatePerMinute)
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.corsMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Browser form
	mux.HandleFunc("GET /{$}", s.handleIndex)

	// Assistant API
	mux.Handle("POST /ask", s.rateLimitMiddleware(http.HandlerFunc(s.handleAsk)))
	mux.HandleFunc("GET /api/turns", s.handleListTurns)

	// Health check
	mux.HandleFunc("GET /health", s.handleHealthCheck)

	// Google Calendar API
	mux.HandleFunc("GET /api/gcal/status", s.handleGCalStatus)
	mux.HandleFunc("GET /api/gcal/calendars", s.handleGCalListCalendars)
	mux.HandleFunc("POST /api/gcal/connect", s.handleGCalConnect)
	mux.HandleFunc("GET /api/gcal/connect/qr", s.handleGCalConnectQR)
	mux.HandleFunc("GET /oauth/callback", s.handleOAuthCallback)
}

func (s *Server) Start() error {
	fmt.Printf("Starting HTTP server on http://localhost:%d\n", s.port)
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Handler returns the server's HTTP handler for testing purposes
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}
