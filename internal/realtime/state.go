package realtime

import (
	"fmt"
	"slices"
	"sync"
)

// State represents a channel connection state.
type State string

const (
	Closed     State = "CLOSED"
	Connecting State = "CONNECTING"
	Open       State = "OPEN"
	Failed     State = "FAILED"
)

// validTransitions defines allowed channel state transitions. There is
// no automatic path out of Failed except an explicit resubscribe; the
// manager surfaces failure instead of retrying, so a storm of blind
// reconnects cannot build up.
var validTransitions = map[State][]State{
	Closed:     {Connecting},
	Connecting: {Open, Failed, Closed},
	Open:       {Closed, Failed},
	Failed:     {Connecting, Closed},
}

type stateMachine struct {
	mu      sync.RWMutex
	current State
}

func newStateMachine() *stateMachine {
	return &stateMachine{current: Closed}
}

func (m *stateMachine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *stateMachine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.Contains(validTransitions[m.current], to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	m.current = to
	return nil
}
