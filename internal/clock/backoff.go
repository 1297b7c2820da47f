package clock

import (
	"math/rand/v2"
	"time"
)

// Backoff computes min(base*2^(attempt-1) + jitter, cap) with jitter drawn from [0, base).
type Backoff struct {
	Base   time.Duration
	Cap    time.Duration
	Jitter func(upper time.Duration) time.Duration
}

// Delay returns the wait before retry number attempt (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if b.Base <= 0 {
		return 0
	}

	delay := b.Base
	for i := 1; i < attempt; i++ {
		if b.Cap > 0 && delay >= b.Cap {
			break
		}
		delay *= 2
	}
	if b.Jitter != nil {
		delay += b.Jitter(b.Base)
	}
	if b.Cap > 0 && delay > b.Cap {
		return b.Cap
	}
	return delay
}

// UniformJitter returns a random duration in [0, upper).
func UniformJitter(upper time.Duration) time.Duration {
	if upper <= 0 {
		return 0
	}
	return rand.N(upper)
}
