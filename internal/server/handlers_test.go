package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omriShneor/calendar_assistant/internal/gcal"
	"github.com/omriShneor/calendar_assistant/internal/pipeline"
	"github.com/omriShneor/calendar_assistant/internal/testutil"
)

type fakeCalendarAuth struct {
	authenticated bool
	authURL       string
	exchangeErr   error
	exchanged     []string
	calendars     []gcal.CalendarInfo
}

func (f *fakeCalendarAuth) IsAuthenticated() bool { return f.authenticated }
func (f *fakeCalendarAuth) GetAuthURL() string    { return f.authURL }
func (f *fakeCalendarAuth) ExchangeCode(ctx context.Context, code string) error {
	f.exchanged = append(f.exchanged, code)
	if f.exchangeErr != nil {
		return f.exchangeErr
	}
	f.authenticated = true
	return nil
}

func (f *fakeCalendarAuth) ListCalendars(ctx context.Context) ([]gcal.CalendarInfo, error) {
	if !f.authenticated {
		return nil, gcal.ErrNotAuthenticated
	}
	return f.calendars, nil
}

// createTestServer creates a server backed by the in-memory harness
func createTestServer(t *testing.T, mutate ...func(*ServerConfig)) (*Server, *testutil.Harness) {
	t.Helper()
	h := testutil.NewHarness(t)

	cfg := ServerConfig{
		DB:         h.DB,
		Assistant:  h.Pipeline,
		GCalClient: &fakeCalendarAuth{authURL: "https://accounts.google.com/o/oauth2/auth?client_id=test"},
		LLMName:    "mock",
		LLMReady:   true,
		Port:       0,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return New(cfg), h
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHandleAsk(t *testing.T) {
	t.Run("greeting", func(t *testing.T) {
		s, _ := createTestServer(t)

		w := doRequest(s, "POST", "/ask", `{"query":"hello"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decode[map[string]string](t, w)
		assert.Equal(t, pipeline.UnknownReply, resp["response"])
	})

	t.Run("books a free slot", func(t *testing.T) {
		s, h := createTestServer(t)
		h.ModelReplies("book")
		h.ParseAs("tomorrow at 4pm", h.At(5, 16, 0))

		w := doRequest(s, "POST", "/ask", `{"query":"Book a meeting tomorrow at 4pm"}`)

		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[map[string]string](t, w)
		assert.Contains(t, resp["response"], "✅ You're free at 04:00 PM on Tuesday!")
		assert.Contains(t, resp["response"], "📅 Event booked! 👉 https://")
		assert.Len(t, h.Calendar.GetEvents(), 1)
	})

	t.Run("invalid json", func(t *testing.T) {
		s, _ := createTestServer(t)

		w := doRequest(s, "POST", "/ask", `{"query":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode[map[string]string](t, w)
		assert.NotEmpty(t, resp["error"])
	})

	t.Run("body too large", func(t *testing.T) {
		s, _ := createTestServer(t)

		w := doRequest(s, "POST", "/ask", `{"query":"`+strings.Repeat("a", maxAskBodyBytes)+`"}`)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		s, _ := createTestServer(t)

		w := doRequest(s, "GET", "/ask", "")

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("no assistant", func(t *testing.T) {
		s, _ := createTestServer(t, func(c *ServerConfig) { c.Assistant = nil })

		w := doRequest(s, "POST", "/ask", `{"query":"hi"}`)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestHandleAsk_RateLimited(t *testing.T) {
	s, _ := createTestServer(t, func(c *ServerConfig) { c.RatePerMinute = 2 })

	for i := 0; i < 2; i++ {
		w := doRequest(s, "POST", "/ask", `{"query":"hi"}`)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doRequest(s, "POST", "/ask", `{"query":"hi"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// Other endpoints are not limited.
	assert.Equal(t, http.StatusOK, doRequest(s, "GET", "/health", "").Code)
}

func TestRateLimiter_PerKey(t *testing.T) {
	rl := NewRateLimiter(1)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestRateLimiter_SweepsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1)
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))
	assert.Equal(t, 2, rl.Len())

	now = now.Add(5 * time.Minute)
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.Equal(t, 2, rl.Len())

	// 10.0.0.2 has been idle past the TTL, 10.0.0.1 has not.
	now = now.Add(limiterIdleTTL - time.Minute)
	assert.True(t, rl.Allow("10.0.0.3"))
	assert.Equal(t, 2, rl.Len())

	now = now.Add(limiterIdleTTL)
	assert.True(t, rl.Allow("10.0.0.4"))
	assert.Equal(t, 1, rl.Len())
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "192.0.2.7", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(req))
}

func TestHandleIndex(t *testing.T) {
	s, _ := createTestServer(t)

	w := doRequest(s, "GET", "/", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "AI Calendar Assistant")
	assert.Contains(t, w.Body.String(), "Am I free tomorrow at 3 PM?")

	assert.Equal(t, http.StatusNotFound, doRequest(s, "GET", "/nope", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	s, _ := createTestServer(t)

	w := doRequest(s, "OPTIONS", "/ask", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandleHealthCheck(t *testing.T) {
	t.Run("calendar disconnected", func(t *testing.T) {
		s, _ := createTestServer(t)

		w := doRequest(s, "GET", "/health", "")

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decode[map[string]interface{}](t, w)
		assert.Equal(t, "healthy", resp["status"])
		assert.Equal(t, "disconnected", resp["gcal"])
		assert.Equal(t, "mock", resp["llm"])
	})

	t.Run("reports turn outcomes", func(t *testing.T) {
		s, _ := createTestServer(t)
		require.Equal(t, http.StatusOK, doRequest(s, "POST", "/ask", `{"query":"hello"}`).Code)

		resp := decode[map[string]interface{}](t, doRequest(s, "GET", "/health", ""))
		turns, ok := resp["turns"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, float64(1), turns["unresolved"])
	})

	t.Run("calendar connected, llm unconfigured", func(t *testing.T) {
		s, _ := createTestServer(t, func(c *ServerConfig) {
			c.GCalClient = &fakeCalendarAuth{authenticated: true}
			c.LLMReady = false
		})

		resp := decode[map[string]interface{}](t, doRequest(s, "GET", "/health", ""))
		assert.Equal(t, "connected", resp["gcal"])
		assert.Equal(t, "unconfigured", resp["llm"])
	})
}

func TestHandleListTurns(t *testing.T) {
	s, _ := createTestServer(t)

	doRequest(s, "POST", "/ask", `{"query":"hello"}`)
	doRequest(s, "POST", "/ask", `{"query":"hey"}`)

	w := doRequest(s, "GET", "/api/turns?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)

	turns := decode[[]turnResponse](t, w)
	require.Len(t, turns, 1)
	assert.Equal(t, "unknown", turns[0].Intent)
	assert.Equal(t, "unresolved", turns[0].Outcome)
	assert.WithinDuration(t, time.Now(), turns[0].CreatedAt, time.Minute)

	all := decode[[]turnResponse](t, doRequest(s, "GET", "/api/turns", ""))
	assert.Len(t, all, 2)

	assert.Equal(t, http.StatusBadRequest, doRequest(s, "GET", "/api/turns?limit=abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(s, "GET", "/api/turns?limit=-3", "").Code)
}

func TestGCalHandlers(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		s, _ := createTestServer(t)

		resp := decode[map[string]interface{}](t, doRequest(s, "GET", "/api/gcal/status", ""))
		assert.Equal(t, false, resp["connected"])
	})

	t.Run("status without client", func(t *testing.T) {
		s, _ := createTestServer(t, func(c *ServerConfig) { c.GCalClient = nil })

		resp := decode[map[string]interface{}](t, doRequest(s, "GET", "/api/gcal/status", ""))
		assert.Equal(t, false, resp["connected"])
		assert.Contains(t, resp["message"], "not initialized")
	})

	t.Run("list calendars", func(t *testing.T) {
		s, _ := createTestServer(t, func(c *ServerConfig) {
			c.CalendarID = "primary"
			c.GCalClient = &fakeCalendarAuth{authenticated: true, calendars: []gcal.CalendarInfo{
				{ID: "me@example.com", Summary: "Me", Primary: true, AccessRole: "owner"},
			}}
		})

		w := doRequest(s, "GET", "/api/gcal/calendars", "")

		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[map[string]interface{}](t, w)
		assert.Equal(t, "primary", resp["selected"])
		assert.Len(t, resp["calendars"], 1)
	})

	t.Run("list calendars before connecting", func(t *testing.T) {
		s, _ := createTestServer(t)

		assert.Equal(t, http.StatusUnauthorized, doRequest(s, "GET", "/api/gcal/calendars", "").Code)
	})

	t.Run("connect returns auth url", func(t *testing.T) {
		s, _ := createTestServer(t)

		w := doRequest(s, "POST", "/api/gcal/connect", "")

		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[map[string]string](t, w)
		assert.Equal(t, "https://accounts.google.com/o/oauth2/auth?client_id=test", resp["auth_url"])
	})

	t.Run("connect without credentials", func(t *testing.T) {
		s, _ := createTestServer(t, func(c *ServerConfig) { c.GCalClient = &fakeCalendarAuth{} })

		assert.Equal(t, http.StatusServiceUnavailable, doRequest(s, "POST", "/api/gcal/connect", "").Code)
	})

	t.Run("connect qr", func(t *testing.T) {
		s, _ := createTestServer(t)

		w := doRequest(s, "GET", "/api/gcal/connect/qr", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))
	})

	t.Run("callback exchanges code", func(t *testing.T) {
		auth := &fakeCalendarAuth{authURL: "u"}
		s, _ := createTestServer(t, func(c *ServerConfig) {
			c.GCalClient = auth
			c.BaseURL = "https://assistant.example.com"
		})

		w := doRequest(s, "GET", "/oauth/callback?code=abc123", "")

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://assistant.example.com/", w.Header().Get("Location"))
		assert.Equal(t, []string{"abc123"}, auth.exchanged)
		assert.True(t, auth.authenticated)
	})

	t.Run("callback without code", func(t *testing.T) {
		s, _ := createTestServer(t)

		assert.Equal(t, http.StatusBadRequest, doRequest(s, "GET", "/oauth/callback", "").Code)
		assert.Equal(t, http.StatusBadRequest, doRequest(s, "GET", "/oauth/callback?error=access_denied", "").Code)
	})

	t.Run("callback exchange failure", func(t *testing.T) {
		s, _ := createTestServer(t, func(c *ServerConfig) {
			c.GCalClient = &fakeCalendarAuth{exchangeErr: errors.New("invalid_grant")}
		})

		w := doRequest(s, "GET", "/oauth/callback?code=bad", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_grant")
	})
}
