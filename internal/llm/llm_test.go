package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Unconfigured(t *testing.T) {
	c, err := New(context.Background(), Config{Provider: "gemini"})
	require.NoError(t, err)

	assert.False(t, IsConfigured(c))
	assert.Equal(t, "gemini (unconfigured)", c.Name())

	_, err = c.Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNew_UnsupportedProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "carrier-pigeon", APIKey: "k"})
	assert.Error(t, err)
}

func TestNew_OpenAI(t *testing.T) {
	c, err := New(context.Background(), Config{Provider: "openai", APIKey: "k", Model: "gpt-test"})
	require.NoError(t, err)

	assert.True(t, IsConfigured(c))
	assert.Equal(t, "openai/gpt-test", c.Name())
	assert.False(t, IsConfigured(nil))
}

func TestOpenAIComplete(t *testing.T) {
	var gotPrompt, gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotModel = body.Model
		if len(body.Messages) > 0 {
			gotPrompt = body.Messages[0].Content
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","object":"chat.completion","model":"gpt-test",
			"choices":[{"index":0,"message":{"role":"assistant","content":"check"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	c := NewOpenAI("sk-test", srv.URL, "gpt-test")
	out, err := c.Complete(context.Background(), "classify this")

	require.NoError(t, err)
	assert.Equal(t, "check", out)
	assert.Equal(t, "classify this", gotPrompt)
	assert.Equal(t, "gpt-test", gotModel)
}

func TestOpenAIComplete_QuotaError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`)
	}))
	defer srv.Close()

	c := NewOpenAI("sk-test", srv.URL, "")
	_, err := c.Complete(context.Background(), "classify this")

	assert.Error(t, err)
	assert.Equal(t, "openai/gpt-4o-mini", c.Name())
}
