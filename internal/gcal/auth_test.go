package gcal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const testCredentials = `{"installed":{"client_id":"cid.apps.googleusercontent.com","client_secret":"secret",
"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token",
"redirect_uris":["http://localhost"]}}`

func TestCallbackURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8000/oauth/callback", CallbackURL("", 8000))
	assert.Equal(t, "https://assistant.example.com/oauth/callback", CallbackURL("https://assistant.example.com", 8000))
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	token := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, saveToken(path, token))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := loadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "access", loaded.AccessToken)
	assert.Equal(t, "refresh", loaded.RefreshToken)
	assert.True(t, loaded.Expiry.Equal(token.Expiry))
}

func TestLoadToken_Missing(t *testing.T) {
	_, err := loadToken(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)

	_, err = loadToken("")
	assert.Error(t, err)
}

func TestNewClient_WithCredentialsAndNoToken(t *testing.T) {
	t.Setenv("GOOGLE_CREDENTIALS_JSON", "")
	dir := t.TempDir()
	credPath := filepath.Join(dir, "credentials.json")
	require.NoError(t, os.WriteFile(credPath, []byte(testCredentials), 0o600))

	client, err := NewClient(ClientConfig{
		CredentialsFile: credPath,
		TokenFile:       filepath.Join(dir, "token.json"),
		RedirectURL:     "http://localhost:8000/oauth/callback",
	})
	require.NoError(t, err)

	assert.False(t, client.IsAuthenticated())
	authURL := client.GetAuthURL()
	assert.Contains(t, authURL, "client_id=cid.apps.googleusercontent.com")
	assert.Contains(t, authURL, "access_type=offline")
	assert.Contains(t, authURL, "redirect_uri=http%3A%2F%2Flocalhost%3A8000%2Foauth%2Fcallback")
}

func TestNewClient_NoCredentials(t *testing.T) {
	t.Setenv("GOOGLE_CREDENTIALS_JSON", "")

	_, err := NewClient(ClientConfig{CredentialsFile: filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}
