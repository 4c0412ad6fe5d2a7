package observe

import (
	"context"

	"github.com/persistio/persist/policy"
)

// NoopObserver implements Observer with no-op methods.
type NoopObserver struct{}

func (NoopObserver) OnStart(context.Context, policy.Key, policy.Options)  {}
func (NoopObserver) OnAttempt(context.Context, policy.Key, AttemptRecord) {}
func (NoopObserver) OnSuccess(context.Context, policy.Key, Timeline)      {}
func (NoopObserver) OnFailure(context.Context, policy.Key, Timeline)      {}

// BaseObserver implements Observer with no-op methods.
//
// Users can embed BaseObserver to implement only the callbacks they need.
type BaseObserver struct{}

func (BaseObserver) OnStart(context.Context, policy.Key, policy.Options)  {}
func (BaseObserver) OnAttempt(context.Context, policy.Key, AttemptRecord) {}
func (BaseObserver) OnSuccess(context.Context, policy.Key, Timeline)      {}
func (BaseObserver) OnFailure(context.Context, policy.Key, Timeline)      {}

// MultiObserver fans out events to multiple observers.
type MultiObserver struct {
	Observers []Observer
}

func (m MultiObserver) OnStart(ctx context.Context, key policy.Key, opts policy.Options) {
	for _, o := range m.Observers {
		if o != nil {
			o.OnStart(ctx, key, opts)
		}
	}
}

func (m MultiObserver) OnAttempt(ctx context.Context, key policy.Key, rec AttemptRecord) {
	for _, o := range m.Observers {
		if o != nil {
			o.OnAttempt(ctx, key, rec)
		}
	}
}

func (m MultiObserver) OnSuccess(ctx context.Context, key policy.Key, tl Timeline) {
	for _, o := range m.Observers {
		if o != nil {
			o.OnSuccess(ctx, key, tl)
		}
	}
}

func (m MultiObserver) OnFailure(ctx context.Context, key policy.Key, tl Timeline) {
	for _, o := range m.Observers {
		if o != nil {
			o.OnFailure(ctx, key, tl)
		}
	}
}
