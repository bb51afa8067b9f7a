package pipeline

import (
	"fmt"

	"github.com/omriShneor/calendar_assistant/internal/intent"
)

// Step identifies a node of the conversation state machine.
type Step int

const (
	Start Step = iota
	ClassifyIntent
	ExtractTime
	CheckSlot
	BookSlot
	Unresolved
	Terminal
)

var stepNames = map[Step]string{
	Start:          "start",
	ClassifyIntent: "classify_intent",
	ExtractTime:    "extract_time",
	CheckSlot:      "check_slot",
	BookSlot:       "book_slot",
	Unresolved:     "unresolved",
	Terminal:       "terminal",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Next returns the step that follows from, given the state that step
// produced. It has no side effects.
func Next(from Step, s State) Step {
	switch from {
	case Start:
		return ClassifyIntent
	case ClassifyIntent:
		switch {
		case s.Intent.Actionable():
			return ExtractTime
		case s.Intent == intent.QuotaError:
			return Terminal
		default:
			return Unresolved
		}
	case ExtractTime:
		if s.halted {
			return Terminal
		}
		return CheckSlot
	case CheckSlot:
		if s.halted || s.Intent != intent.Book {
			return Terminal
		}
		return BookSlot
	default:
		return Terminal
	}
}
