package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// BreakerState is the state of a Breaker.
type BreakerState int

const (
	// Closed lets calls through.
	Closed BreakerState = iota
	// Open rejects calls until the reset timeout elapses.
	Open
	// HalfOpen lets a single trial call through; others are rejected until
	// it finishes.
	HalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrBreakerOpen is returned when a call is rejected by an open breaker.
var ErrBreakerOpen = eris.New("circuit breaker is open")

// Breaker stops calling a failing upstream after Threshold consecutive
// failures and probes it again after ResetTimeout.
type Breaker struct {
	name         string
	threshold    int
	resetTimeout time.Duration

	mu       sync.Mutex
	state    BreakerState
	failures int
	openedAt time.Time
	trial    bool

	now func() time.Time
}

// NewBreaker creates a breaker. Non-positive arguments fall back to 5
// failures and 30 seconds.
func NewBreaker(name string, threshold int, resetTimeout time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	return &Breaker{
		name:         name,
		threshold:    threshold,
		resetTimeout: resetTimeout,
		now:          time.Now,
	}
}

// State returns the current state, reporting HalfOpen once an open breaker
// has waited out its reset timeout.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.now().Sub(b.openedAt) >= b.resetTimeout {
		return HalfOpen
	}
	return b.state
}

// outcome classifies a finished call for the breaker.
type outcome int

const (
	succeeded outcome = iota
	failed
	ignored
)

// Call runs fn through the breaker. Only transient errors (see IsTransient)
// count as upstream failures. A permanent error such as a 404 means the
// upstream answered, so it resets the failure count like a success.
// Context cancellation is not counted either way.
func Call[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := b.allow(); err != nil {
		return zero, err
	}
	val, err := fn(ctx)
	switch {
	case err == nil:
		b.record(succeeded)
	case ctx.Err() != nil:
		b.record(ignored)
	case IsTransient(err):
		b.record(failed)
	default:
		b.record(succeeded)
	}
	return val, err
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case Closed:
		return nil
	case Open:
		if b.now().Sub(b.openedAt) < b.resetTimeout {
			return eris.Wrapf(ErrBreakerOpen, "resilience: %s", b.name)
		}
		b.setState(HalfOpen)
	}
	if b.trial {
		return eris.Wrapf(ErrBreakerOpen, "resilience: %s trial in flight", b.name)
	}
	b.trial = true
	return nil
}

func (b *Breaker) record(out outcome) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trial = false

	switch out {
	case ignored:
		return
	case succeeded:
		b.failures = 0
		if b.state != Closed {
			b.setState(Closed)
		}
		return
	}

	b.failures++
	if b.state == HalfOpen || b.failures >= b.threshold {
		b.openedAt = b.now()
		b.setState(Open)
	}
}

func (b *Breaker) setState(to BreakerState) {
	if b.state == to {
		return
	}
	zap.L().Info("circuit breaker state change",
		zap.String("breaker", b.name),
		zap.String("from", b.state.String()),
		zap.String("to", to.String()),
	)
	b.state = to
}
