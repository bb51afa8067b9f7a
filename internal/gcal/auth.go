package gcal

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

const callbackPath = "/oauth/callback"

// OAuthScopes contains only Calendar scopes
var OAuthScopes = []string{
	calendar.CalendarScope,
}

// CallbackURL returns the OAuth callback URL served by the HTTP server.
func CallbackURL(baseURL string, port int) string {
	if baseURL != "" {
		return baseURL + callbackPath
	}
	return fmt.Sprintf("http://localhost:%d%s", port, callbackPath)
}

// loadOAuthConfig loads OAuth2 configuration from credentials file or environment variable
func loadOAuthConfig(credentialsFile, redirectURL string) (*oauth2.Config, error) {
	// Try environment variable first (useful for container deployments)
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS_JSON"); credJSON != "" {
		config, err := google.ConfigFromJSON([]byte(credJSON), OAuthScopes...)
		if err == nil {
			applyRedirect(config, redirectURL)
			return config, nil
		}
	}

	// Try specified file
	if credentialsFile != "" {
		if config, err := loadConfigFromFile(credentialsFile); err == nil {
			applyRedirect(config, redirectURL)
			return config, nil
		}
	}

	return nil, fmt.Errorf("no credentials file found - please provide credentials.json or set GOOGLE_CREDENTIALS_JSON env var")
}

func applyRedirect(config *oauth2.Config, redirectURL string) {
	if redirectURL != "" {
		config.RedirectURL = redirectURL
	}
}

// loadConfigFromFile attempts to load OAuth config from a file
func loadConfigFromFile(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return google.ConfigFromJSON(data, OAuthScopes...)
}

// loadToken reads a cached OAuth token from disk.
func loadToken(path string) (*oauth2.Token, error) {
	if path == "" {
		return nil, fmt.Errorf("no token file configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}
	return &token, nil
}

// saveToken caches an OAuth token on disk, readable only by the owner.
func saveToken(path string, token *oauth2.Token) error {
	if path == "" {
		return nil
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
