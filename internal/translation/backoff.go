package translation

import (
	"context"
	"math/rand/v2"
	"time"
)

// Backoff computes the delay before retry number n (1-based).
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter func(time.Duration) time.Duration
}

// Delay doubles Base for each retry, caps it at Max, then applies jitter.
func (b Backoff) Delay(retry int) time.Duration {
	if b.Base <= 0 {
		return 0
	}
	if retry < 1 {
		retry = 1
	}
	delay := b.Base
	for i := 1; i < retry; i++ {
		if b.Max > 0 && delay > b.Max/2 {
			delay = b.Max
			break
		}
		delay *= 2
	}
	if b.Max > 0 && delay > b.Max {
		delay = b.Max
	}
	jitter := b.Jitter
	if jitter == nil {
		jitter = equalJitter
	}
	if out := jitter(delay); out >= 0 {
		return out
	}
	return 0
}

// equalJitter keeps half the delay and randomizes the rest.
func equalJitter(d time.Duration) time.Duration {
	half := d / 2
	if half <= 0 {
		return d
	}
	return half + rand.N(half+1)
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
