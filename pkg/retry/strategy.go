package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/code-payments/program-client/pkg/retry/backoff"
)

// Strategy decides whether a failed action is attempted again. attempts is
// the number of attempts made so far. A strategy may sleep before returning.
type Strategy func(attempts uint, err error) bool

// Limit stops once maxAttempts attempts have been made, including the first.
func Limit(maxAttempts uint) Strategy {
	return func(attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors only retries errors matching one of targets via errors.Is.
func RetriableErrors(targets ...error) Strategy {
	return func(_ uint, err error) bool {
		return matchesAny(err, targets)
	}
}

// Context stops once ctx is done. It should come before any strategy that
// sleeps.
func Context(ctx context.Context) Strategy {
	return func(_ uint, _ error) bool {
		return ctx.Err() == nil
	}
}

// Backoff sleeps for the delay produced by schedule, capped at maxDelay.
func Backoff(schedule backoff.Strategy, maxDelay time.Duration) Strategy {
	return BackoffWithJitter(schedule, maxDelay, 0)
}

// BackoffWithJitter is Backoff with the capped delay scaled by a uniformly
// random factor in [1-jitter, 1+jitter]. A jitter of 0.1 turns a 100ms delay
// into anything from 90ms to 110ms.
func BackoffWithJitter(schedule backoff.Strategy, maxDelay time.Duration, jitter float64) Strategy {
	return func(attempts uint, _ error) bool {
		delay := schedule(attempts)
		if delay > maxDelay {
			delay = maxDelay
		}

		if jitter > 0 {
			factor := 1 + jitter*(2*rand.Float64()-1)
			delay = time.Duration(float64(delay) * factor)
		}

		sleeperImpl.Sleep(delay)
		return true
	}
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type sleeper interface {
	Sleep(time.Duration)
}

type realSleeper struct{}

func (*realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

var sleeperImpl sleeper = &realSleeper{}
