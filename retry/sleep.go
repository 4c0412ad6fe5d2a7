package retry

import (
	"context"
	"time"
)

// sleepWithContext waits for d or until ctx is cancelled, whichever
// comes first, returning the context error on cancellation. The timer is
// always stopped and drained so an abandoned wait leaks nothing.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)

	defer func() {
		if !timer.Stop() {
			select {
			case <-timer.C: // drain any pending tick so the channel doesn't retain value
			default:
			}
		}
	}()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
