package timeextract

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Match is one date/time expression found in free text.
type Match struct {
	Text string
	Time time.Time
}

// DateParser finds date/time expressions in text relative to base.
// Matches are returned in order of appearance; an empty slice means none.
type DateParser interface {
	Search(text string, base time.Time) ([]Match, error)
}

var pastMarkers = []string{"ago", "last", "yesterday", "before"}

// sameDayMarkers pin a match to the reference date.
var sameDayMarkers = []string{"today", "tonight"}

// WhenParser is a DateParser backed by the olebedev/when rule engine with
// English and common rules. Expressions that resolve before base without
// an explicit past or same-day marker are moved forward to their next
// occurrence.
type WhenParser struct {
	w *when.Parser
}

func NewWhenParser() *WhenParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &WhenParser{w: w}
}

func (p *WhenParser) Search(text string, base time.Time) ([]Match, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	r, err := p.w.Parse(text, base)
	if err != nil {
		return nil, fmt.Errorf("date parse error: %w", err)
	}
	if r == nil {
		return nil, nil
	}

	t := r.Time.In(base.Location())
	if !containsAny(strings.ToLower(text), sameDayMarkers) {
		t = preferFuture(r.Text, t, base)
	}
	return []Match{{Text: r.Text, Time: t}}, nil
}

func preferFuture(matched string, t, base time.Time) time.Time {
	lower := strings.ToLower(matched)
	if !t.Before(base) || containsAny(lower, pastMarkers) || containsAny(lower, sameDayMarkers) {
		return t
	}

	by, bm, bd := base.Date()
	ty, tm, td := t.Date()
	if by == ty && bm == tm && bd == td {
		return t.AddDate(0, 0, 1)
	}
	return t.AddDate(0, 0, 7)
}

func containsAny(text string, values []string) bool {
	for _, v := range values {
		if strings.Contains(text, v) {
			return true
		}
	}
	return false
}
