package retry

import (
	"math"
	"time"

	"github.com/persistio/persist/policy"
)

// maxDelayMillis bounds the computed delay so the float math can never
// overflow a time.Duration.
const maxDelayMillis = float64(math.MaxInt64 / int64(time.Millisecond))

// computeDelay returns the backoff before the next attempt.
//
// attempt is the skip-adjusted attempt index, floored at 1. The base is
// MinTimeout * Factor^(attempt-1); Randomize multiplies by a uniform
// value in [1, 2); the result is rounded to the nearest millisecond and
// capped at MaxTimeout. Capping against the remaining MaxRetryTime
// budget happens in the loop, where the clock lives.
func computeDelay(pol policy.Options, attempt int, randFloat func() float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	ms := float64(pol.MinTimeout) / float64(time.Millisecond)
	ms *= math.Pow(pol.Factor, float64(attempt-1))
	if pol.Randomize && randFloat != nil {
		ms *= 1 + randFloat()
	}
	ms = math.Round(ms)

	if pol.MaxTimeout != policy.Unlimited {
		if capMs := float64(pol.MaxTimeout) / float64(time.Millisecond); ms > capMs {
			ms = capMs
		}
	}
	if ms < 0 || math.IsNaN(ms) {
		ms = 0
	}
	if ms > maxDelayMillis {
		ms = maxDelayMillis
	}

	return time.Duration(ms * float64(time.Millisecond))
}
