package intent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/omriShneor/calendar_assistant/internal/llm"
	"github.com/omriShneor/calendar_assistant/internal/logging"
)

// QuotaReply is shown when the language model call fails for any reason.
const QuotaReply = "😵 Language model quota exceeded. Please try again later."

var greetings = map[string]struct{}{
	"hi":           {},
	"hello":        {},
	"hey":          {},
	"hii":          {},
	"good morning": {},
	"good evening": {},
}

var actionKeywords = []string{"book", "free", "available", "schedule", "meeting", "call"}

// maxShortTokens is the word count at or below which a keyword-less
// message is treated as non-actionable without asking the model.
const maxShortTokens = 3

const classificationPrompt = "The user said: '%s'. " +
	"Decide the user's intent. Respond with exactly one of: 'book', 'check', or 'unknown'. " +
	"Only reply 'book' if they clearly want to schedule or create an event. " +
	"Reply 'check' if they're asking about free time, availability, or schedule. " +
	"Reply 'unknown' if it's a greeting, vague message, or unclear."

// Result is the outcome of classifying one message.
type Result struct {
	Intent Intent
	// Reply overrides the turn's reply; only set for QuotaError.
	Reply string
	// ModelCalled is true when the language model was consulted.
	ModelCalled bool
	// Err carries the model failure behind a QuotaError.
	Err error
}

// Classifier decides whether a message asks to book, to check, or neither.
type Classifier struct {
	model  llm.Completer
	logger *zap.Logger
}

func NewClassifier(model llm.Completer, logger *zap.Logger) *Classifier {
	return &Classifier{model: model, logger: logging.OrNop(logger)}
}

// Classify never returns an error: model failures become QuotaError with
// QuotaReply set.
func (c *Classifier) Classify(ctx context.Context, text string) Result {
	normalized := strings.ToLower(strings.TrimSpace(text))

	if shortCircuit(normalized) {
		c.logger.Debug("intent resolved without model", zap.String("input", logging.Truncate(normalized, 40)))
		return Result{Intent: Unknown}
	}

	if c.model == nil {
		return c.quotaError(llm.ErrNotConfigured)
	}

	raw, err := c.model.Complete(ctx, fmt.Sprintf(classificationPrompt, text))
	if err != nil {
		return c.quotaError(err)
	}

	detected := ParseIntent(raw)
	c.logger.Info("detected intent",
		zap.String("intent", detected.String()),
		zap.String("model", c.model.Name()),
		zap.String("raw", logging.Truncate(raw, 40)),
	)
	return Result{Intent: detected, ModelCalled: true}
}

func (c *Classifier) quotaError(err error) Result {
	c.logger.Warn("intent classification failed", zap.Error(err))
	return Result{Intent: QuotaError, Reply: QuotaReply, ModelCalled: true, Err: err}
}

// shortCircuit reports whether a normalized message is a greeting or a
// short message with no action keyword.
func shortCircuit(normalized string) bool {
	if _, ok := greetings[normalized]; ok {
		return true
	}
	return len(strings.Fields(normalized)) <= maxShortTokens && !containsAny(normalized, actionKeywords)
}

func containsAny(text string, values []string) bool {
	for _, v := range values {
		if strings.Contains(text, v) {
			return true
		}
	}
	return false
}
