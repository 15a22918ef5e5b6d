package resilience

import (
	"math"
	"math/rand/v2"
	"time"
)

// State is the retry machine state.
type State int

const (
	// StateAttempting means a call is in flight (or about to be).
	StateAttempting State = iota
	// StateBackingOff means the last call failed transiently and the
	// machine is waiting out a backoff delay.
	StateBackingOff
	// StateSucceeded is terminal: a call returned without error.
	StateSucceeded
	// StateFailed is terminal: a non-transient error occurred or the
	// attempt budget is exhausted.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateBackingOff:
		return "backing_off"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Machine drives one retryable operation through its attempt states,
// separated from the sleeping and the call itself so that transition
// logic is testable without a network or a clock.
//
// The caller loop is: while State() == StateAttempting, perform the call
// and Observe() its error; while State() == StateBackingOff, sleep for
// Delay() and then Resume(). Succeeded and Failed are terminal.
type Machine struct {
	cfg     Config
	state   State
	attempt int
	lastErr error
}

// NewMachine returns a Machine in StateAttempting for its first attempt.
func NewMachine(cfg Config) *Machine {
	return &Machine{cfg: cfg.withDefaults(), state: StateAttempting}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Attempt returns the number of attempts observed so far.
func (m *Machine) Attempt() int { return m.attempt }

// LastErr returns the most recent observed error.
func (m *Machine) LastErr() error { return m.lastErr }

// Observe records the outcome of an attempt and transitions the machine:
// nil moves to Succeeded; a transient error moves to BackingOff while
// attempts remain, otherwise to Failed; a non-transient error moves to
// Failed immediately. Observe panics if the machine is not attempting.
func (m *Machine) Observe(err error) {
	if m.state != StateAttempting {
		panic("resilience: Observe called in state " + m.state.String())
	}
	m.attempt++

	if err == nil {
		m.state = StateSucceeded
		return
	}
	m.lastErr = err

	retry := m.cfg.ShouldRetry
	if retry == nil {
		retry = IsTransient
	}
	if !retry(err) || m.attempt >= m.cfg.MaxAttempts {
		m.state = StateFailed
		return
	}
	m.state = StateBackingOff
}

// Cancel forces the machine into Failed, recording err as the cause when
// no attempt error has been observed yet. Used when the caller's context
// expires mid-run.
func (m *Machine) Cancel(err error) {
	if m.lastErr == nil {
		m.lastErr = err
	}
	m.state = StateFailed
}

// Delay returns the backoff duration for the current BackingOff state:
// base * multiplier^(attempt-1), capped, with symmetric jitter.
func (m *Machine) Delay() time.Duration {
	delay := float64(m.cfg.InitialBackoff) * math.Pow(m.cfg.Multiplier, float64(m.attempt-1))
	if delay > float64(m.cfg.MaxBackoff) {
		delay = float64(m.cfg.MaxBackoff)
	}
	if m.cfg.JitterFraction > 0 {
		jitterRange := delay * m.cfg.JitterFraction
		delay += (rand.Float64()*2 - 1) * jitterRange
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// Resume transitions BackingOff back to Attempting after the delay has
// been waited out. Resume panics if the machine is not backing off.
func (m *Machine) Resume() {
	if m.state != StateBackingOff {
		panic("resilience: Resume called in state " + m.state.String())
	}
	m.state = StateAttempting
}
