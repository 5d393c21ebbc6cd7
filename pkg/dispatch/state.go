package dispatch

import (
	"errors"
	"fmt"
	"log"
)

// State is a phase of one query cycle.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateClassifying
	StateResolving
	StateEmitting
	StateRefreshing
	StateErrored
)

var stateNames = map[State]string{
	StateIdle:        "Idle",
	StateSubmitting:  "Submitting",
	StateClassifying: "Classifying",
	StateResolving:   "Resolving",
	StateEmitting:    "Emitting",
	StateRefreshing:  "Refreshing",
	StateErrored:     "Errored",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var ErrIllegalTransition = errors.New("illegal state transition")

// transitions lists the legal successors of each state. Idle goes straight to
// Errored when a submission guard fails; Classifying may go straight back to
// Idle when the intent is discarded.
var transitions = map[State][]State{
	StateIdle:        {StateSubmitting, StateErrored},
	StateSubmitting:  {StateClassifying, StateErrored},
	StateClassifying: {StateResolving, StateEmitting, StateErrored, StateIdle},
	StateResolving:   {StateEmitting, StateErrored},
	StateEmitting:    {StateRefreshing, StateErrored},
	StateRefreshing:  {StateIdle},
	StateErrored:     {StateIdle},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// machine tracks one cycle and records every state it passes through.
type machine struct {
	sessionID string
	current   State
	trace     []State
	logger    *log.Logger
}

func newMachine(sessionID string, logger *log.Logger) *machine {
	return &machine{
		sessionID: sessionID,
		current:   StateIdle,
		trace:     []State{StateIdle},
		logger:    logger,
	}
}

func (m *machine) to(next State) error {
	if !canTransition(m.current, next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.current, next)
	}
	m.logger.Printf("[STATE] %s: %s -> %s", m.sessionID, m.current, next)
	m.current = next
	m.trace = append(m.trace, next)
	return nil
}

// mustTo is used on paths whose legality is fixed by the dispatcher's own
// control flow.
func (m *machine) mustTo(next State) {
	if err := m.to(next); err != nil {
		panic(err)
	}
}

func (m *machine) Current() State {
	return m.current
}

func (m *machine) Trace() []State {
	out := make([]State, len(m.trace))
	copy(out, m.trace)
	return out
}
