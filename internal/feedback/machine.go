// Package feedback drives the teacher grading editor for one submission
// question: which editing mode is active, and whether late responses may
// still update it.
package feedback

import (
	"errors"
	"fmt"
	"strings"
)

// State is an editor mode.
type State string

const (
	ChoosingMode  State = "choosing_mode"
	ManualEditing State = "manual_editing"
	AIPending     State = "ai_pending"
	AIGenerated   State = "ai_generated"
	AIEditing     State = "ai_editing"
)

// Event moves the editor between modes.
type Event string

const (
	ChooseManual Event = "choose_manual"
	RequestAI    Event = "request_ai"
	AISucceeded  Event = "ai_succeeded"
	AIFailed     Event = "ai_failed"
	StartEdit    Event = "start_edit"
	FinishEdit   Event = "finish_edit"
	CancelEdit   Event = "cancel_edit"
	Back         Event = "back"
	Clear        Event = "clear"
	Saved        Event = "saved"
)

// ErrInvalidTransition is returned when an event is not allowed in the current state.
var ErrInvalidTransition = errors.New("invalid feedback transition")

type transitionKey struct {
	from  State
	event Event
}

var transitions = map[transitionKey]State{
	{ChoosingMode, ChooseManual}: ManualEditing,
	{ChoosingMode, RequestAI}:    AIPending,

	{ManualEditing, Back}:  ChoosingMode,
	{ManualEditing, Clear}: ChoosingMode,
	{ManualEditing, Saved}: ChoosingMode,

	{AIPending, AISucceeded}: AIGenerated,
	{AIPending, AIFailed}:    ChoosingMode,

	{AIGenerated, StartEdit}: AIEditing,
	{AIGenerated, RequestAI}: AIPending,
	{AIGenerated, Back}:      ChoosingMode,
	{AIGenerated, Clear}:     ChoosingMode,
	{AIGenerated, Saved}:     ChoosingMode,

	{AIEditing, FinishEdit}: AIGenerated,
	{AIEditing, CancelEdit}: AIGenerated,
	{AIEditing, Saved}:      ChoosingMode,
	{AIEditing, Clear}:      ChoosingMode,
}

// ParseState converts a stored state name, defaulting to ChoosingMode.
func ParseState(value string) State {
	switch s := State(strings.TrimSpace(value)); s {
	case ManualEditing, AIPending, AIGenerated, AIEditing:
		return s
	default:
		return ChoosingMode
	}
}

// ParseEvent validates an event name.
func ParseEvent(value string) (Event, error) {
	e := Event(strings.ToLower(strings.TrimSpace(value)))
	switch e {
	case ChooseManual, RequestAI, AISucceeded, AIFailed, StartEdit, FinishEdit, CancelEdit, Back, Clear, Saved:
		return e, nil
	}
	return "", fmt.Errorf("unknown feedback event %q", value)
}

// Next returns the state reached from s by e.
func Next(s State, e Event) (State, error) {
	next, ok := transitions[transitionKey{from: s, event: e}]
	if !ok {
		return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, s)
	}
	return next, nil
}

// Allowed lists the events accepted in state s.
func Allowed(s State) []Event {
	order := []Event{ChooseManual, RequestAI, AISucceeded, AIFailed, StartEdit, FinishEdit, CancelEdit, Back, Clear, Saved}
	events := make([]Event, 0, 4)
	for _, e := range order {
		if _, ok := transitions[transitionKey{from: s, event: e}]; ok {
			events = append(events, e)
		}
	}
	return events
}

// Machine tracks the editor mode of a single submission question.
type Machine struct {
	state State
}

// NewMachine starts a machine in state s.
func NewMachine(s State) *Machine {
	return &Machine{state: s}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Fire applies e. The state is unchanged on error.
func (m *Machine) Fire(e Event) error {
	next, err := Next(m.state, e)
	if err != nil {
		return err
	}
	m.state = next
	return nil
}

// Editable reports whether feedback text can be changed in the current state.
func (m *Machine) Editable() bool {
	return m.state == ManualEditing || m.state == AIEditing
}

// InitialState picks the mode to restore for a saved draft. A pending AI
// request does not survive a reload.
func InitialState(stored State, hasFeedback, aiGenerated bool) State {
	switch {
	case stored == AIPending:
		if aiGenerated && hasFeedback {
			return AIGenerated
		}
		return ChoosingMode
	case stored != ChoosingMode:
		return stored
	case aiGenerated && hasFeedback:
		return AIGenerated
	case hasFeedback:
		return ManualEditing
	default:
		return ChoosingMode
	}
}
