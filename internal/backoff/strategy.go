// Package backoff holds the delay schedules used by the retry engine.
package backoff

import (
	"math/rand"
	"time"
)

// Strategy computes the delay before the retry that follows attempt
// (0-based). initial is the base delay; max caps the result when positive.
type Strategy interface {
	Calculate(attempt int, initial, max time.Duration, multiplier, jitter float64) time.Duration
}

// Linear scales the base delay linearly with the attempt index:
// initial * (attempt + 1). Multiplier and jitter are ignored.
type Linear struct{}

func (Linear) Calculate(attempt int, initial, max time.Duration, multiplier, jitter float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := initial * time.Duration(attempt+1)
	if max > 0 && delay > max {
		delay = max
	}
	return delay
}

// ExponentialJitter grows the delay by multiplier per attempt and adds up to
// jitter*delay of randomness.
type ExponentialJitter struct{}

func (ExponentialJitter) Calculate(attempt int, initial, max time.Duration, multiplier, jitter float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		attempt = 30
	}

	delay := time.Duration(float64(initial) * Pow(multiplier, attempt))
	if max > 0 && (delay < 0 || delay > max) {
		delay = max
	}

	if jitter < 0 {
		jitter = 0
	}
	if jitter > 1 {
		jitter = 1
	}
	if jitter > 0 {
		amount := time.Duration(float64(delay) * jitter * rand.Float64())
		if max > 0 && delay+amount > max {
			delay = max
		} else {
			delay += amount
		}
	}
	return delay
}

// Pow is integer-exponent float exponentiation without math.Pow.
func Pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}
