package gcal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/omriShneor/calendar_assistant/internal/logging"
)

// ErrNotAuthenticated is returned by calendar calls made before a token is available.
var ErrNotAuthenticated = errors.New("calendar service not initialized")

// Client wraps the Google Calendar API client
type Client struct {
	mu        sync.RWMutex
	service   *calendar.Service
	config    *oauth2.Config
	tokenFile string
	token     *oauth2.Token
	location  *time.Location
	logger    *zap.Logger
}

// ClientConfig configures a Client.
type ClientConfig struct {
	CredentialsFile string
	TokenFile       string
	// RedirectURL overrides the OAuth callback URL from the credentials file.
	RedirectURL string
	// Location is used to interpret all-day event dates.
	Location *time.Location
	Logger   *zap.Logger
}

// NewClient creates a new Google Calendar client
func NewClient(cfg ClientConfig) (*Client, error) {
	config, err := loadOAuthConfig(cfg.CredentialsFile, cfg.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth config: %w", err)
	}

	client := &Client{
		config:    config,
		tokenFile: cfg.TokenFile,
		location:  cfg.Location,
		logger:    logging.OrNop(cfg.Logger),
	}
	if client.location == nil {
		client.location = time.Local
	}

	// Try to load existing token and initialize service
	token, err := loadToken(cfg.TokenFile)
	if err == nil {
		client.token = token
		if err := client.tryInitService(context.Background()); err != nil {
			// Token might be expired, but that's OK - user will need to re-auth
			client.logger.Warn("could not initialize calendar service with existing token", zap.Error(err))
		}
	}

	return client, nil
}

// NewClientWithService wraps an already constructed calendar service. It is
// used by tests and by deployments that authenticate with a service account.
func NewClientWithService(service *calendar.Service, loc *time.Location) *Client {
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		service:  service,
		location: loc,
		logger:   zap.NewNop(),
	}
}

// tryInitService attempts to initialize the service, refreshing the token if needed
func (c *Client) tryInitService(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == nil {
		return fmt.Errorf("no token available")
	}

	// If token is expired but we have a refresh token, try to refresh
	if !c.token.Valid() && c.token.RefreshToken != "" {
		newToken, err := c.config.TokenSource(ctx, c.token).Token()
		if err != nil {
			return fmt.Errorf("failed to refresh token: %w", err)
		}
		c.token = newToken
		if err := saveToken(c.tokenFile, newToken); err != nil {
			c.logger.Warn("could not save refreshed token", zap.Error(err))
		}
	}

	return c.initServiceLocked(ctx)
}

// IsAuthenticated returns true if the client is authenticated
func (c *Client) IsAuthenticated() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.service != nil
}

// GetAuthURL returns the OAuth authorization URL
func (c *Client) GetAuthURL() string {
	if c.config == nil {
		return ""
	}
	return c.config.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// initServiceLocked initializes the Calendar service with the current token.
// Callers hold c.mu.
func (c *Client) initServiceLocked(ctx context.Context) error {
	if c.token == nil {
		return fmt.Errorf("no token available")
	}

	// The token source outlives the request that created it.
	httpClient := c.config.Client(context.Background(), c.token)
	service, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return fmt.Errorf("failed to create calendar service: %w", err)
	}

	c.service = service
	return nil
}

// ExchangeCode exchanges an authorization code for a token and saves it
func (c *Client) ExchangeCode(ctx context.Context, code string) error {
	if c.config == nil {
		return fmt.Errorf("no OAuth config loaded")
	}
	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange code for token: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = token
	if err := saveToken(c.tokenFile, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return c.initServiceLocked(ctx)
}

// calendarService returns the current service or ErrNotAuthenticated.
func (c *Client) calendarService() (*calendar.Service, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.service == nil {
		return nil, ErrNotAuthenticated
	}
	return c.service, nil
}
