package trading

import (
	"context"
	"time"
)

// Confirmer settles a submitted trade. The venue has no upstream chain, so
// settlement is simulated: confirmation is a fixed latency, after which the
// trade is final.
type Confirmer interface {
	Confirm(ctx context.Context) error
}

// DelayConfirmer confirms every trade after a fixed delay, or fails early if
// the caller's context is cancelled first.
type DelayConfirmer struct {
	Delay time.Duration
}

func (c DelayConfirmer) Confirm(ctx context.Context) error {
	if c.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.Delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Confirmer = DelayConfirmer{}
