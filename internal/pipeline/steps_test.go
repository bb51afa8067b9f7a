package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omriShneor/calendar_assistant/internal/intent"
)

func TestNext(t *testing.T) {
	free := true
	tests := []struct {
		name  string
		from  Step
		state State
		want  Step
	}{
		{"start always classifies", Start, State{}, ClassifyIntent},
		{"book extracts time", ClassifyIntent, State{Intent: intent.Book}, ExtractTime},
		{"check extracts time", ClassifyIntent, State{Intent: intent.Check}, ExtractTime},
		{"unknown is unresolved", ClassifyIntent, State{Intent: intent.Unknown}, Unresolved},
		{"empty intent is unresolved", ClassifyIntent, State{}, Unresolved},
		{"quota error terminates", ClassifyIntent, State{Intent: intent.QuotaError}, Terminal},
		{"extracted time is checked", ExtractTime, State{Intent: intent.Check, HasTime: true}, CheckSlot},
		{"parse failure terminates", ExtractTime, State{Intent: intent.Unknown, halted: true}, Terminal},
		{"book goes to booking", CheckSlot, State{Intent: intent.Book, SlotFree: &free}, BookSlot},
		{"check terminates", CheckSlot, State{Intent: intent.Check, SlotFree: &free}, Terminal},
		{"calendar failure terminates", CheckSlot, State{Intent: intent.Book, halted: true}, Terminal},
		{"booking terminates", BookSlot, State{Intent: intent.Book}, Terminal},
		{"unresolved terminates", Unresolved, State{}, Terminal},
		{"terminal stays terminal", Terminal, State{}, Terminal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(tt.from, tt.state))
		})
	}
}

func TestNext_IsPure(t *testing.T) {
	s := State{Intent: intent.Book, Reply: "r"}
	before := s

	Next(CheckSlot, s)
	Next(CheckSlot, s)

	assert.Equal(t, before, s)
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "classify_intent", ClassifyIntent.String())
	assert.Equal(t, "terminal", Terminal.String())
	assert.Equal(t, "step(42)", Step(42).String())
}

func TestStateHelpers(t *testing.T) {
	s := State{Reply: "✅ free"}
	appended := s.withReply(" 📅 booked")

	assert.Equal(t, "✅ free", s.Reply)
	assert.Equal(t, "✅ free 📅 booked", appended.Reply)

	halted := State{}.halt("stop", OutcomeTimeParseFailed)
	assert.True(t, halted.Halted())
	assert.Equal(t, "stop", halted.Reply)
	assert.Equal(t, OutcomeTimeParseFailed, halted.Outcome)
}
