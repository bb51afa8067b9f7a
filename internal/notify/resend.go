package notify

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"time"

	"github.com/resend/resend-go/v2"
)

// ResendNotifier sends email confirmations via Resend API
type ResendNotifier struct {
	client      *resend.Client
	fromAddress string
	appURL      string
}

// NewResendNotifier creates a new Resend email notifier. It returns nil
// when apiKey is empty.
func NewResendNotifier(apiKey, from, appURL string) *ResendNotifier {
	if apiKey == "" {
		return nil
	}
	return &ResendNotifier{
		client:      resend.NewClient(apiKey),
		fromAddress: from,
		appURL:      appURL,
	}
}

// WithBaseURL points the notifier at a different Resend API host.
func (r *ResendNotifier) WithBaseURL(raw string) (*ResendNotifier, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid resend base url: %w", err)
	}
	r.client.BaseURL = u
	return r, nil
}

// IsConfigured returns true if the notifier has server-side config
func (r *ResendNotifier) IsConfigured() bool {
	return r != nil && r.client != nil && r.fromAddress != ""
}

// Send emails a confirmation for a booking to the specified recipient
func (r *ResendNotifier) Send(ctx context.Context, booking Booking, recipient string) error {
	if recipient == "" {
		return fmt.Errorf("no recipient specified")
	}

	params := &resend.SendEmailRequest{
		From:    r.fromAddress,
		To:      []string{recipient},
		Subject: fmt.Sprintf("Booked: %s", booking.Summary),
		Html:    r.formatEmailHTML(booking),
	}

	if _, err := r.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}
	return nil
}

// Name returns the notifier name
func (r *ResendNotifier) Name() string {
	return "resend"
}

func (r *ResendNotifier) formatEmailHTML(b Booking) string {
	when := b.Start.Format("Monday, January 2, 2006 at 3:04 PM")
	if !b.End.IsZero() {
		when += " - " + b.End.Format("3:04 PM")
	}

	requestHTML := ""
	if b.Query != "" {
		requestHTML = fmt.Sprintf(`<p style="margin: 16px 0; color: #666; font-style: italic;">You asked: %s</p>`, html.EscapeString(b.Query))
	}

	appLinkHTML := ""
	if r.appURL != "" {
		appLinkHTML = fmt.Sprintf(`<p style="margin: 8px 0;"><a href="%s" style="color: #007bff;">Open assistant</a></p>`, r.appURL)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
  <div style="background-color: white; border-radius: 8px; padding: 24px; box-shadow: 0 2px 4px rgba(0,0,0,0.1);">
    <h2 style="margin: 0 0 16px 0; color: #333;">📅 %s</h2>

    <div style="background: #f8f9fa; padding: 16px; border-radius: 8px; margin: 16px 0; border-left: 4px solid #28a745;">
      <p style="margin: 8px 0;"><strong>When:</strong> %s (%s)</p>
    </div>

    %s

    <a href="%s" style="display: inline-block; background: #007bff; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin-top: 16px; font-weight: 500;">
      View in Google Calendar
    </a>
    %s

    <hr style="margin-top: 32px; border: none; border-top: 1px solid #eee;">
    <p style="color: #999; font-size: 12px; margin-top: 16px;">
      Calendar Assistant<br>
      <span style="color: #ccc;">Sent at %s</span>
    </p>
  </div>
</body>
</html>`,
		html.EscapeString(b.Summary),
		when,
		b.Start.Location().String(),
		requestHTML,
		b.Link,
		appLinkHTML,
		time.Now().Format("Jan 2, 2006 3:04 PM"),
	)
}
