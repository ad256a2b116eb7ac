package circuit

import (
	"fmt"
	"sync"
	"time"

	"github.com/T3-Labs/edge-capture/pkg/logger"
	"github.com/T3-Labs/edge-capture/pkg/metrics"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

const (
	minInitialBackoff = 5 * time.Second
	maxBackoff        = 10 * time.Minute
	backoffMultiplier = 2.0
	halfOpenSuccesses = 3
)

// Breaker corta as tentativas de captura de uma câmera que só falha. O
// tempo em aberto cresce exponencialmente a cada reabertura, até maxBackoff;
// uma câmera desligada não vira um loop apertado de ffmpeg.
type Breaker struct {
	name        string
	maxFailures int64

	mu             sync.RWMutex
	state          State
	failures       int64
	successes      int64
	currentBackoff time.Duration
	initialBackoff time.Duration
	lastFailTime   time.Time
	lastStateTime  time.Time
}

func NewBreaker(name string, maxFailures int64, resetTimeout time.Duration) *Breaker {
	initial := resetTimeout / 2
	if initial < minInitialBackoff {
		initial = minInitialBackoff
	}

	return &Breaker{
		name:           name,
		maxFailures:    maxFailures,
		state:          StateClosed,
		initialBackoff: initial,
		currentBackoff: initial,
		lastStateTime:  time.Now(),
	}
}

// Call executa fn sob o breaker: bloqueada quando aberto, contabilizada nos
// demais estados.
func (cb *Breaker) Call(fn func() error) error {
	if !cb.Allow() {
		return fmt.Errorf("circuit breaker %s aberto", cb.name)
	}

	if err := fn(); err != nil {
		cb.RecordFailure()
		return err
	}

	cb.RecordSuccess()
	return nil
}

func (cb *Breaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed, StateHalfOpen:
		return true

	case StateOpen:
		if time.Since(cb.lastFailTime) > cb.currentBackoff {
			cb.setState(StateHalfOpen)
			return true
		}
		return false

	default:
		return false
	}
}

func (cb *Breaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.successes++

	switch cb.state {
	case StateClosed:
		cb.failures = 0
		cb.currentBackoff = cb.initialBackoff

	case StateHalfOpen:
		// Só fecha depois de algumas capturas boas seguidas
		if cb.successes >= halfOpenSuccesses {
			cb.setState(StateClosed)
			cb.failures = 0
			cb.successes = 0
			cb.currentBackoff = cb.initialBackoff
		}
	}
}

func (cb *Breaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.successes = 0
	cb.lastFailTime = time.Now()

	switch cb.state {
	case StateClosed:
		if cb.failures >= cb.maxFailures {
			cb.trip()
		}

	case StateHalfOpen:
		cb.trip()
	}
}

// trip abre o circuito e escala o backoff. Exige cb.mu.
func (cb *Breaker) trip() {
	cb.setState(StateOpen)

	next := time.Duration(float64(cb.currentBackoff) * backoffMultiplier)
	if next > maxBackoff {
		next = maxBackoff
	}
	cb.currentBackoff = next
}

// setState exige cb.mu.
func (cb *Breaker) setState(newState State) {
	if cb.state == newState {
		return
	}

	oldState := cb.state
	cb.state = newState
	cb.lastStateTime = time.Now()

	metrics.CircuitBreakerState.WithLabelValues(cb.name).Set(float64(newState))
	logger.Log.Infow("Circuit breaker mudou de estado",
		"name", cb.name,
		"from", oldState.String(),
		"to", newState.String(),
		"failures", cb.failures,
		"next_retry_in", cb.currentBackoff.String())
}

func (cb *Breaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

func (cb *Breaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failures = 0
	cb.successes = 0
	cb.currentBackoff = cb.initialBackoff
	cb.lastStateTime = time.Now()
}

type BreakerStats struct {
	Name            string
	State           State
	Failures        int64
	Successes       int64
	MaxFailures     int64
	CurrentBackoff  time.Duration
	LastFailTime    time.Time
	LastStateChange time.Time
}

func (cb *Breaker) Stats() BreakerStats {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return BreakerStats{
		Name:            cb.name,
		State:           cb.state,
		Failures:        cb.failures,
		Successes:       cb.successes,
		MaxFailures:     cb.maxFailures,
		CurrentBackoff:  cb.currentBackoff,
		LastFailTime:    cb.lastFailTime,
		LastStateChange: cb.lastStateTime,
	}
}

func (bs BreakerStats) String() string {
	return fmt.Sprintf("Circuit[%s]: %s, Failures: %d/%d, Successes: %d, NextRetry: %v",
		bs.Name, bs.State, bs.Failures, bs.MaxFailures, bs.Successes, bs.CurrentBackoff)
}
