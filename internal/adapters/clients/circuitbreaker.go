package clients

import (
	"sync"
	"time"
)

// State is a circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	// MaxFailures consecutive failures open the circuit.
	MaxFailures int

	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration

	// HalfOpenLimit caps in-flight probes and is also the number of
	// successes needed to close again.
	HalfOpenLimit int
}

// CircuitBreaker stops calls to a downstream after repeated failures.
//
//	closed    -> open       after MaxFailures consecutive failures
//	open      -> half-open  once Timeout has elapsed
//	half-open -> closed     after HalfOpenLimit successes
//	half-open -> open       on any failure
type CircuitBreaker struct {
	mu       sync.Mutex
	cfg      CircuitBreakerConfig
	state    State
	failures int
	probes   int
	passed   int
	openedAt time.Time
	listener func(from, to State)
	now      func() time.Time
}

// NewCircuitBreaker returns a closed breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures < 1 {
		cfg.MaxFailures = 1
	}

	if cfg.HalfOpenLimit < 1 {
		cfg.HalfOpenLimit = 1
	}

	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// OnStateChange registers fn to run after every transition.
// fn runs outside the breaker's lock.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	cb.listener = fn
	cb.mu.Unlock()
}

// Allow reports whether a call may proceed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()

	var (
		allowed bool
		change  func()
	)

	switch cb.state {
	case StateClosed:
		allowed = true
	case StateOpen:
		if cb.now().Sub(cb.openedAt) >= cb.cfg.Timeout {
			change = cb.moveTo(StateHalfOpen)
			cb.probes = 1
			allowed = true
		}
	case StateHalfOpen:
		if cb.probes < cb.cfg.HalfOpenLimit {
			cb.probes++
			allowed = true
		}
	}

	cb.mu.Unlock()
	notify(change)

	return allowed
}

// RecordSuccess reports a successful call.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()

	var change func()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.probes--
		cb.passed++

		if cb.passed >= cb.cfg.HalfOpenLimit {
			change = cb.moveTo(StateClosed)
		}
	}

	cb.mu.Unlock()
	notify(change)
}

// RecordFailure reports a failed call.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()

	var change func()

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.cfg.MaxFailures {
			change = cb.moveTo(StateOpen)
		}
	case StateHalfOpen:
		cb.probes--
		change = cb.moveTo(StateOpen)
	}

	cb.mu.Unlock()
	notify(change)
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// moveTo must be called with mu held. It returns the listener call to
// make once the lock is released.
func (cb *CircuitBreaker) moveTo(to State) func() {
	from := cb.state
	if from == to {
		return nil
	}

	cb.state = to
	cb.failures = 0
	cb.passed = 0

	if to == StateOpen {
		cb.openedAt = cb.now()
	}

	if to != StateHalfOpen {
		cb.probes = 0
	}

	if cb.listener == nil {
		return nil
	}

	listener := cb.listener

	return func() { listener(from, to) }
}

func notify(change func()) {
	if change != nil {
		change()
	}
}
