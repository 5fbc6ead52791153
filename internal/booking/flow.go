package booking

import (
	"fmt"
	"strings"
)

// State is a step of the booking request pipeline.
type State string

const (
	StateReceived   State = "RECEIVED"
	StateAuthorized State = "AUTHORIZED"
	StateValidated  State = "VALIDATED"
	StateClaimed    State = "CLAIMED"
	StateBilled     State = "BILLED"
	StateResponded  State = "RESPONDED"
	StateRejected   State = "REJECTED"
)

var nextState = map[State]State{
	StateReceived:   StateAuthorized,
	StateAuthorized: StateValidated,
	StateValidated:  StateClaimed,
	StateClaimed:    StateBilled,
	StateBilled:     StateResponded,
}

// Flow tracks one request through the pipeline. The path is strictly linear;
// a state is never revisited and REJECTED and RESPONDED are terminal.
type Flow struct {
	state   State
	reason  error
	history []State
}

func NewFlow() *Flow {
	return &Flow{state: StateReceived, history: []State{StateReceived}}
}

func (f *Flow) State() State     { return f.state }
func (f *Flow) Reason() error    { return f.reason }
func (f *Flow) History() []State { return append([]State(nil), f.history...) }

// Advance moves to next, which must be the successor of the current state.
func (f *Flow) Advance(next State) error {
	if want, ok := nextState[f.state]; !ok || want != next {
		return fmt.Errorf("booking flow: illegal transition %s -> %s", f.state, next)
	}
	f.state = next
	f.history = append(f.history, next)
	return nil
}

// Reject ends the flow with reason. The stage the request failed in is the
// state it was in.
func (f *Flow) Reject(reason error) (stage State) {
	stage = f.state
	if f.state == StateRejected || f.state == StateResponded {
		return stage
	}
	f.state = StateRejected
	f.reason = reason
	f.history = append(f.history, StateRejected)
	return stage
}

func (f *Flow) String() string {
	parts := make([]string, len(f.history))
	for i, s := range f.history {
		parts[i] = string(s)
	}
	return strings.Join(parts, " -> ")
}
