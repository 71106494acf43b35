package auth

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"
)

// TimingDelay pads failed logins to a floor of Base plus up to Jitter so that
// unknown-email and wrong-password failures are indistinguishable by latency.
type TimingDelay struct {
	Base   time.Duration
	Jitter time.Duration
}

// DefaultTimingDelay is what the API server uses.
func DefaultTimingDelay() *TimingDelay {
	return &TimingDelay{Base: 250 * time.Millisecond, Jitter: 100 * time.Millisecond}
}

func (td *TimingDelay) target() time.Duration {
	d := td.Base
	if td.Jitter > 0 {
		if n, err := rand.Int(rand.Reader, big.NewInt(int64(td.Jitter))); err == nil {
			d += time.Duration(n.Int64())
		}
	}
	return d
}

// WaitFrom sleeps until at least the target delay has elapsed since start,
// or until ctx is done. A nil receiver never waits.
func (td *TimingDelay) WaitFrom(ctx context.Context, start time.Time) {
	if td == nil {
		return
	}
	remaining := td.target() - time.Since(start)
	if remaining <= 0 {
		return
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
