package navigation

import (
	"sync"

	"uml-nli-be/pkg/store"
)

// Step is one focus transition. From is nil for the first step of a sequence.
type Step struct {
	From *store.ElementRef `json:"from,omitempty"`
	To   store.ElementRef  `json:"to"`
}

// History keeps the per-session focus transitions made through the dispatcher.
type History struct {
	mu    sync.Mutex
	steps map[string][]Step
}

func NewHistory() *History {
	return &History{steps: make(map[string][]Step)}
}

func (h *History) RecordTransition(sessionID string, from *store.ElementRef, to store.ElementRef) {
	h.mu.Lock()
	defer h.mu.Unlock()

	step := Step{To: to}
	if from != nil {
		f := *from
		step.From = &f
	}
	h.steps[sessionID] = append(h.steps[sessionID], step)
}

// ResetIfFocusChanged clears the sequence when the newly observed focus is not
// where the last recorded step ended. A nil focus always clears it.
func (h *History) ResetIfFocusChanged(sessionID string, focus *store.ElementRef) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	steps := h.steps[sessionID]
	if len(steps) == 0 {
		return false
	}
	if focus != nil && steps[len(steps)-1].To.ID == focus.ID {
		return false
	}
	h.steps[sessionID] = nil
	return true
}

// Steps returns a copy of the session's sequence, oldest first.
func (h *History) Steps(sessionID string) []Step {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Step, len(h.steps[sessionID]))
	copy(out, h.steps[sessionID])
	return out
}

func (h *History) Forget(sessionID string) {
	h.mu.Lock()
	delete(h.steps, sessionID)
	h.mu.Unlock()
}
