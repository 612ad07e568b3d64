package marketdata

import "time"

// phase is the coarse state of a fetch: still trying a host, done with a
// usable response, or out of hosts and attempts.
type phase int

const (
	phaseTrying phase = iota
	phaseSucceeded
	phaseExhausted
)

func (p phase) String() string {
	switch p {
	case phaseTrying:
		return "trying"
	case phaseSucceeded:
		return "succeeded"
	default:
		return "exhausted"
	}
}

// outcome classifies a single attempt.
type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeRateLimited
	outcomeFailed
)

// retryState is trying(host, attempt) while phase == phaseTrying.
type retryState struct {
	phase   phase
	host    int
	attempt int
}

// retryMachine drives the host/attempt walk of a single FetchJSON call.
//
// Transitions from trying(h, a):
//   - success                          -> succeeded
//   - rate limited, a < maxRetries     -> trying(h, a+1) after delay*(a+1)
//   - other failure, a < maxRetries    -> trying(h, a+1) after delay
//   - any failure, a == maxRetries     -> trying(h+1, 0), or exhausted on the last host
type retryMachine struct {
	state      retryState
	hosts      int
	maxRetries int
	delay      time.Duration
}

func newRetryMachine(hosts, maxRetries int, delay time.Duration) *retryMachine {
	m := &retryMachine{hosts: hosts, maxRetries: max(maxRetries, 0), delay: max(delay, 0)}
	if hosts <= 0 {
		m.state.phase = phaseExhausted
	}
	return m
}

// advance applies the outcome of the current attempt and returns how long to
// wait before the next one.
func (m *retryMachine) advance(o outcome) time.Duration {
	if m.state.phase != phaseTrying {
		return 0
	}
	if o == outcomeSuccess {
		m.state.phase = phaseSucceeded
		return 0
	}
	if m.state.attempt < m.maxRetries {
		wait := m.delay
		if o == outcomeRateLimited {
			// linear, not exponential
			wait = m.delay * time.Duration(m.state.attempt+1)
		}
		m.state.attempt++
		return wait
	}
	if m.state.host+1 < m.hosts {
		m.state.host++
		m.state.attempt = 0
		return 0
	}
	m.state.phase = phaseExhausted
	return 0
}

// abort ends the walk, e.g. when the caller's context is done.
func (m *retryMachine) abort() {
	if m.state.phase == phaseTrying {
		m.state.phase = phaseExhausted
	}
}
