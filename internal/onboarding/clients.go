package onboarding

import (
	"io"
	"time"

	"github.com/omriShneor/calendar_assistant/internal/gcal"
	"github.com/omriShneor/calendar_assistant/internal/llm"
)

// Clients holds the external clients created at startup
type Clients struct {
	// GCalClient is nil when no OAuth credentials could be loaded.
	GCalClient *gcal.Client
	Model      llm.Completer
	Location   *time.Location
}

// Close releases clients that hold connections.
func (c *Clients) Close() {
	if closer, ok := c.Model.(io.Closer); ok {
		closer.Close()
	}
}
