package observe

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/persistio/persist/policy"
)

// LogObserver writes run lifecycle events through a zerolog logger.
// Attempt failures log at warn, terminal failures at error, everything
// else at debug.
type LogObserver struct {
	Log zerolog.Logger
}

// NewLogObserver builds a LogObserver around log.
func NewLogObserver(log zerolog.Logger) *LogObserver {
	return &LogObserver{Log: log}
}

func (o *LogObserver) OnStart(_ context.Context, key policy.Key, opts policy.Options) {
	o.Log.Debug().
		Str("key", key.String()).
		Int("retries", opts.Retries).
		Float64("factor", opts.Factor).
		Dur("min_timeout", opts.MinTimeout).
		Msg("retry run started")
}

func (o *LogObserver) OnAttempt(_ context.Context, key policy.Key, rec AttemptRecord) {
	if rec.Err == nil {
		o.Log.Debug().
			Str("key", key.String()).
			Int("attempt", rec.Attempt).
			Msg("attempt succeeded")
		return
	}

	o.Log.Warn().
		Str("key", key.String()).
		Int("attempt", rec.Attempt).
		Str("outcome", rec.Outcome.Kind.String()).
		Bool("skipped", rec.Skipped).
		Dur("delay", rec.Delay).
		Err(rec.Err).
		Msg("attempt failed")
}

func (o *LogObserver) OnSuccess(_ context.Context, key policy.Key, tl Timeline) {
	o.Log.Debug().
		Str("key", key.String()).
		Str("run_id", tl.RunID).
		Int("attempts", len(tl.Attempts)).
		Dur("elapsed", tl.End.Sub(tl.Start)).
		Msg("retry run succeeded")
}

func (o *LogObserver) OnFailure(_ context.Context, key policy.Key, tl Timeline) {
	o.Log.Error().
		Str("key", key.String()).
		Str("run_id", tl.RunID).
		Int("attempts", len(tl.Attempts)).
		Dur("elapsed", tl.End.Sub(tl.Start)).
		Err(tl.FinalErr).
		Msg("retry run failed")
}
