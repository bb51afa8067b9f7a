package server

import (
	"errors"
	"net/http"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/omriShneor/calendar_assistant/internal/gcal"
)

const qrSize = 320

// Google Calendar API
func (s *Server) handleGCalStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"connected": false,
		"message":   "Not configured",
	}

	if s.gcalClient == nil {
		status["message"] = "Google Calendar client not initialized. Check credentials.json."
		respondJSON(w, http.StatusOK, status)
		return
	}

	if s.gcalClient.IsAuthenticated() {
		status["connected"] = true
		status["message"] = "Connected"
	} else {
		status["message"] = "Not authenticated. Click Connect to authorize."
	}

	respondJSON(w, http.StatusOK, status)
}

// handleGCalListCalendars lists the account's calendars so the operator can
// pick ASSISTANT_CALENDAR_ID.
func (s *Server) handleGCalListCalendars(w http.ResponseWriter, r *http.Request) {
	if s.gcalClient == nil {
		respondError(w, http.StatusServiceUnavailable, "Google Calendar not configured. Check credentials.json.")
		return
	}

	calendars, err := s.gcalClient.ListCalendars(r.Context())
	if errors.Is(err, gcal.ErrNotAuthenticated) {
		respondError(w, http.StatusUnauthorized, "Google Calendar not connected")
		return
	}
	if err != nil {
		s.logger.Warn("listing calendars failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"calendars": calendars,
		"selected":  s.calendarID,
	})
}

// authURL returns the consent URL or writes an error response.
func (s *Server) authURL(w http.ResponseWriter) (string, bool) {
	if s.gcalClient == nil {
		respondError(w, http.StatusServiceUnavailable, "Google Calendar not configured. Check credentials.json.")
		return "", false
	}

	url := s.gcalClient.GetAuthURL()
	if url == "" {
		respondError(w, http.StatusServiceUnavailable, "Google OAuth credentials not loaded")
		return "", false
	}
	return url, true
}

func (s *Server) handleGCalConnect(w http.ResponseWriter, r *http.Request) {
	url, ok := s.authURL(w)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"auth_url": url,
		"message":  "Open this URL to authorize Google Calendar access",
	})
}

// handleGCalConnectQR renders the consent URL as a PNG for opening on a phone.
func (s *Server) handleGCalConnectQR(w http.ResponseWriter, r *http.Request) {
	url, ok := s.authURL(w)
	if !ok {
		return
	}

	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to render QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}

// handleOAuthCallback handles the OAuth redirect from Google
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		respondError(w, http.StatusBadRequest, "Authorization denied: "+errParam)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "No authorization code received")
		return
	}

	if s.gcalClient == nil {
		respondError(w, http.StatusServiceUnavailable, "Google Calendar not configured")
		return
	}

	if err := s.gcalClient.ExchangeCode(r.Context(), code); err != nil {
		s.logger.Warn("oauth code exchange failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to exchange code: "+err.Error())
		return
	}

	s.logger.Info("Google Calendar connected")
	http.Redirect(w, r, s.homeURL(), http.StatusFound)
}

func (s *Server) homeURL() string {
	if s.baseURL != "" {
		return s.baseURL + "/"
	}
	return "/"
}
