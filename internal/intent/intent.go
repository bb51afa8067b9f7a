package intent

import "strings"

// Intent is the classified purpose of a user message.
type Intent string

const (
	Book       Intent = "book"
	Check      Intent = "check"
	Unknown    Intent = "unknown"
	QuotaError Intent = "quota_error"
)

// Actionable reports whether the intent leads to time extraction.
func (i Intent) Actionable() bool {
	return i == Book || i == Check
}

func (i Intent) String() string {
	return string(i)
}

// replyTrim is stripped from both ends of a model reply before mapping.
const replyTrim = " \t\r\n\"'`.!?,;:*"

// ParseIntent maps raw model output to exactly one Intent. The reply must
// be a single known token once quotes and punctuation are trimmed; any
// other text, including sentences that merely mention a tag, is Unknown.
func ParseIntent(raw string) Intent {
	s := strings.Trim(strings.ToLower(strings.TrimSpace(raw)), replyTrim)

	switch s {
	case "book":
		return Book
	case "check", "free", "available":
		return Check
	default:
		return Unknown
	}
}
