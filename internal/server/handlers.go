package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/omriShneor/calendar_assistant/internal/logging"
)

const (
	maxAskBodyBytes  = 16 << 10
	defaultTurnLimit = 20
	maxTurnLimit     = 200
)

// serveStaticFile serves a static file from filesystem (dev mode) or embedded (production)
func (s *Server) serveStaticFile(w http.ResponseWriter, filename string) {
	var html []byte
	var err error

	if s.devMode {
		// In dev mode, read from filesystem for hot reloading
		path := filepath.Join("internal", "server", "static", filename)
		html, err = os.ReadFile(path)
	}
	if !s.devMode || err != nil {
		html, err = staticFiles.ReadFile("static/" + filename)
	}

	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load %s", filename))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

// Browser form

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.serveStaticFile(w, "index.html")
}

// Assistant API

type askRequest struct {
	Query string `json:"query"`
}

type askResponse struct {
	Response string `json:"response"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAskBodyBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "query too large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if s.assistant == nil {
		respondError(w, http.StatusServiceUnavailable, "assistant not initialized")
		return
	}

	started := time.Now()
	reply := s.assistant.Reply(r.Context(), req.Query)

	s.logger.Info("ask",
		zap.String("query", logging.Truncate(strings.TrimSpace(req.Query), 80)),
		zap.Duration("took", time.Since(started)),
	)
	respondJSON(w, http.StatusOK, askResponse{Response: reply})
}

type turnResponse struct {
	ID              string     `json:"id"`
	Query           string     `json:"query"`
	Intent          string     `json:"intent"`
	SlotStart       *time.Time `json:"slot_start,omitempty"`
	SlotFree        *bool      `json:"slot_free,omitempty"`
	Outcome         string     `json:"outcome"`
	Reply           string     `json:"reply"`
	BookingLink     string     `json:"booking_link,omitempty"`
	ConflictSummary string     `json:"conflict_summary,omitempty"`
	DurationMs      int64      `json:"duration_ms"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (s *Server) handleListTurns(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		respondError(w, http.StatusServiceUnavailable, "turn history not available")
		return
	}

	limit := defaultTurnLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxTurnLimit)
	}

	traces, err := s.db.ListRecentTurnTraces(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	turns := make([]turnResponse, 0, len(traces))
	for _, t := range traces {
		turns = append(turns, turnResponse{
			ID:              t.ID,
			Query:           t.Query,
			Intent:          t.Intent,
			SlotStart:       t.SlotStart,
			SlotFree:        t.SlotFree,
			Outcome:         t.Outcome,
			Reply:           t.Reply,
			BookingLink:     t.BookingLink,
			ConflictSummary: t.ConflictSummary,
			DurationMs:      t.Duration.Milliseconds(),
			CreatedAt:       t.CreatedAt,
		})
	}

	respondJSON(w, http.StatusOK, turns)
}

// Health Check

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(); err != nil {
			respondError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}

	status := map[string]interface{}{
		"status": "healthy",
		"gcal":   "disconnected",
		"llm":    "unconfigured",
	}

	if s.gcalClient != nil && s.gcalClient.IsAuthenticated() {
		status["gcal"] = "connected"
	}
	if s.llmReady {
		status["llm"] = s.llmName
	}
	if s.db != nil {
		if counts, err := s.db.CountTurnTracesByOutcome(); err == nil {
			status["turns"] = counts
		}
	}

	respondJSON(w, http.StatusOK, status)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		fmt.Printf("Error encoding JSON response: %v\n", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
