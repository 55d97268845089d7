package translation

import "fmt"

// State is the lifecycle position of one batch.
type State int

const (
	StatePending State = iota
	StateInFlight
	StateRetrying
	StateSucceeded
	StateFailedPermanent
	StateFailedExhausted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateInFlight:
		return "in-flight"
	case StateRetrying:
		return "retrying"
	case StateSucceeded:
		return "succeeded"
	case StateFailedPermanent:
		return "failed-permanent"
	case StateFailedExhausted:
		return "failed-exhausted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailedPermanent || s == StateFailedExhausted
}

// Event drives a batch between states.
type Event int

const (
	EventDispatch Event = iota
	EventSuccess
	EventTransientFailure
	EventPermanentFailure
)

func (e Event) String() string {
	switch e {
	case EventDispatch:
		return "dispatch"
	case EventSuccess:
		return "success"
	case EventTransientFailure:
		return "transient-failure"
	case EventPermanentFailure:
		return "permanent-failure"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Next is the transition function. attempts counts dispatches made so far,
// including the one that produced ev.
func Next(s State, ev Event, attempts, maxAttempts int) (State, error) {
	switch {
	case ev == EventDispatch && (s == StatePending || s == StateRetrying):
		return StateInFlight, nil
	case s == StateInFlight && ev == EventSuccess:
		return StateSucceeded, nil
	case s == StateInFlight && ev == EventPermanentFailure:
		return StateFailedPermanent, nil
	case s == StateInFlight && ev == EventTransientFailure:
		if attempts >= maxAttempts {
			return StateFailedExhausted, nil
		}
		return StateRetrying, nil
	default:
		return s, fmt.Errorf("invalid batch transition %s on %s", s, ev)
	}
}

// tracker holds the mutable retry state of one batch inside a worker.
type tracker struct {
	state       State
	attempts    int
	maxAttempts int
}

func (t *tracker) fire(ev Event) error {
	if ev == EventDispatch {
		t.attempts++
	}
	next, err := Next(t.state, ev, t.attempts, t.maxAttempts)
	if err != nil {
		return err
	}
	t.state = next
	return nil
}
