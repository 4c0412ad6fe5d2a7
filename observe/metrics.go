package observe

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/persistio/persist/policy"
)

// MetricsObserver exports retry activity as Prometheus metrics.
type MetricsObserver struct {
	AttemptsTotal *prometheus.CounterVec
	RunsTotal     *prometheus.CounterVec
	DelaySeconds  *prometheus.HistogramVec
	RunSeconds    *prometheus.HistogramVec
}

// NewMetricsObserver creates the metric vectors. Call Register to attach
// them to a registry.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		AttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "persist",
				Subsystem: "retry",
				Name:      "attempts_total",
				Help:      "Total attempts, by policy key and classified outcome",
			},
			[]string{"key", "outcome"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "persist",
				Subsystem: "retry",
				Name:      "runs_total",
				Help:      "Completed retry runs, by policy key and final status",
			},
			[]string{"key", "status"},
		),
		DelaySeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "persist",
				Subsystem: "retry",
				Name:      "delay_seconds",
				Help:      "Backoff delay awaited between attempts",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
			},
			[]string{"key"},
		),
		RunSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "persist",
				Subsystem: "retry",
				Name:      "run_seconds",
				Help:      "Wall-clock duration of completed retry runs",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
			},
			[]string{"key"},
		),
	}
}

// Register registers all vectors with reg.
func (o *MetricsObserver) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{o.AttemptsTotal, o.RunsTotal, o.DelaySeconds, o.RunSeconds} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (o *MetricsObserver) OnStart(context.Context, policy.Key, policy.Options) {}

func (o *MetricsObserver) OnAttempt(_ context.Context, key policy.Key, rec AttemptRecord) {
	o.AttemptsTotal.WithLabelValues(key.String(), rec.Outcome.Kind.String()).Inc()
	if rec.Delay > 0 {
		o.DelaySeconds.WithLabelValues(key.String()).Observe(rec.Delay.Seconds())
	}
}

func (o *MetricsObserver) OnSuccess(_ context.Context, key policy.Key, tl Timeline) {
	o.RunsTotal.WithLabelValues(key.String(), "success").Inc()
	o.RunSeconds.WithLabelValues(key.String()).Observe(tl.End.Sub(tl.Start).Seconds())
}

func (o *MetricsObserver) OnFailure(_ context.Context, key policy.Key, tl Timeline) {
	o.RunsTotal.WithLabelValues(key.String(), "failure").Inc()
	o.RunSeconds.WithLabelValues(key.String()).Observe(tl.End.Sub(tl.Start).Seconds())
}
