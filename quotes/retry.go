package quotes

import (
	"math/rand"
	"time"

	"github.com/maxwell-lv/mootdx/logger"
	"github.com/maxwell-lv/mootdx/models"
)

// RetryPolicy wraps a single remote operation in a bounded-attempt loop with
// randomized backoff. A retry fires when the operation errors or when its
// result is judged empty. Exhausting the attempts is usually soft: the last
// obtained result is returned as-is (empty included) and the caller treats
// it as "no data available". A validation error is the exception and is
// returned to the caller once the attempts run out.
type RetryPolicy struct {
	Attempts int
	WaitMin  time.Duration
	WaitMax  time.Duration

	// onEmpty runs after an empty result is detected and before the next
	// attempt. The extended facade binds it to the session's EnsureConnected
	// so a silently dead socket is rebuilt instead of polled again.
	onEmpty func() error

	// Hooks for tests.
	sleep func(time.Duration)
	randf func() float64

	log *logger.Entry
}

// NewRetryPolicy builds the production policy: 3 attempts, uniform random
// wait in [1s, 10s], reconnect check on empty results via the session.
func NewRetryPolicy(session *Session) *RetryPolicy {
	p := &RetryPolicy{
		Attempts: 3,
		WaitMin:  1 * time.Second,
		WaitMax:  10 * time.Second,
		sleep:    time.Sleep,
		randf:    rand.Float64,
		log:      logger.GetLogger().WithComponent("retry"),
	}
	if session != nil {
		p.onEmpty = session.EnsureConnected
	}
	return p
}

// wait blocks for a uniformly random duration in [WaitMin, WaitMax].
func (p *RetryPolicy) wait() {
	span := p.WaitMax - p.WaitMin
	d := p.WaitMin
	if span > 0 {
		d += time.Duration(p.randf() * float64(span))
	}
	p.sleep(d)
}

// Retry runs op under the policy. empty judges whether a successful result
// still counts as "no data" and therefore as a retry trigger.
func Retry[T any](p *RetryPolicy, op func() (T, error), empty func(T) bool) (T, error) {
	var last T
	var lastErr error

	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if attempt > 1 {
			logger.IncrementRetryAttempt()
			p.wait()
		}

		last, lastErr = op()
		if lastErr == nil && !empty(last) {
			return last, nil
		}

		if lastErr != nil {
			p.log.WithError(lastErr).WithFields(logger.Fields{"attempt": attempt}).Warn("remote call failed")
			continue
		}

		// Empty result: the socket may be silently dead, so check the
		// connection before burning the next attempt on it.
		p.log.WithFields(logger.Fields{"attempt": attempt}).Warn("remote returned no data")
		if p.onEmpty != nil && attempt < p.Attempts {
			if err := p.onEmpty(); err != nil {
				p.log.WithError(err).Warn("reconnect after empty result failed")
			}
		}
	}

	logger.IncrementEmptyResult()
	if lastErr != nil {
		var zero T
		if models.IsValidation(lastErr) {
			// Bad input stays bad across attempts; after the budget is
			// burnt the caller still gets told what was wrong with it.
			return zero, lastErr
		}
		// Soft failure: degrade a persistent transient error to the zero
		// result so paginated loops upstream keep going.
		p.log.WithError(lastErr).Warn("retries exhausted, returning empty result")
		return zero, nil
	}
	p.log.Warn("retries exhausted, remote returned no data")
	return last, nil
}

// TableEmpty is the emptiness predicate for tabular results.
func TableEmpty(t *models.Table) bool {
	return t.Empty()
}

// IntEmpty is the emptiness predicate for scalar count results.
func IntEmpty(n int) bool {
	return n == 0
}
