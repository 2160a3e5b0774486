// Package backoff computes retry delays for upstream query fetches.
package backoff

import (
	"math/rand"
	"time"
)

// Strategy computes the delay before retry attempt n (0-based) given the
// configured base delay, cap, growth multiplier and jitter fraction.
type Strategy interface {
	Delay(attempt int, base, limit time.Duration, multiplier, jitter float64) time.Duration
}

// ExponentialJitter grows the delay exponentially and adds uniform jitter,
// the default for query retries.
type ExponentialJitter struct{}

// Delay implements Strategy.
func (ExponentialJitter) Delay(attempt int, base, limit time.Duration, multiplier, jitter float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// Bound the exponent so the float math cannot overflow.
	if attempt > 30 {
		attempt = 30
	}

	d := time.Duration(float64(base) * pow(multiplier, attempt))
	if d < 0 || d > limit {
		d = limit
	}

	jitter = clampJitter(jitter)
	if jitter > 0 {
		extra := time.Duration(float64(d) * jitter * rand.Float64())
		if d+extra > limit {
			d = limit
		} else {
			d += extra
		}
	}
	return d
}

// Decorrelated implements decorrelated jitter: each delay is drawn uniformly
// between the base and three times the previous delay, capped. Smoother tail
// latencies than plain exponential jitter under fan-out load.
type Decorrelated struct{}

// Delay implements Strategy.
func (Decorrelated) Delay(attempt int, base, limit time.Duration, multiplier, jitter float64) time.Duration {
	if attempt <= 0 {
		return base
	}
	if attempt > 30 {
		attempt = 30
	}

	prev := time.Duration(float64(base) * pow(multiplier, attempt-1))
	if prev < base {
		prev = base
	}
	upper := prev * 3
	if upper > limit {
		upper = limit
	}
	if upper <= base {
		return base
	}
	return base + time.Duration(rand.Int63n(int64(upper-base)))
}

func pow(base float64, exp int) float64 {
	out := 1.0
	for i := 0; i < exp; i++ {
		out *= base
	}
	return out
}

func clampJitter(j float64) float64 {
	if j < 0 {
		return 0
	}
	if j > 1 {
		return 1
	}
	return j
}
