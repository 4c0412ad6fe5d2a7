// Package retry drives the attempt loop: it invokes an operation,
// classifies its failures, runs the caller's hooks, computes backoff,
// and sleeps under cooperative cancellation until the run succeeds,
// exhausts its budget, hits its deadline, or is cancelled.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/persistio/persist/classify"
	"github.com/persistio/persist/observe"
	"github.com/persistio/persist/policy"
	"github.com/persistio/persist/policyfile"
)

// Operation is a fallible action invoked with the 1-based attempt
// number. It may block; it should honor ctx.
type Operation func(ctx context.Context, attempt int) error

// OperationValue is an Operation that produces a value on success. Any
// returned value, including a zero value, is a success.
type OperationValue[T any] func(ctx context.Context, attempt int) (T, error)

// NoClassifierError reports a policy referencing an unregistered
// classifier name.
type NoClassifierError struct {
	Name string
}

func (e *NoClassifierError) Error() string {
	return fmt.Sprintf("persist: classifier not found: %s", e.Name)
}

// Executor owns the collaborators of a retry run: policy provider,
// observer, classifier registry, clock, sleep and random source. The
// zero set of options yields a fully working executor; every field is
// injectable for tests.
//
// An Executor is immutable after construction and safe for concurrent
// use; runs share no state with each other.
type Executor struct {
	provider    policyfile.Provider
	observer    observe.Observer
	classifiers *classify.Registry
	classifier  classify.Classifier
	network     classify.NetworkCheck
	clock       func() time.Time
	sleep       func(context.Context, time.Duration) error
	randFloat   func() float64
	newRunID    func() string
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithProvider sets the named-policy provider used by DoNamed.
func WithProvider(p policyfile.Provider) ExecutorOption {
	return func(e *Executor) { e.provider = p }
}

// WithObserver sets the observer notified about run lifecycle events.
func WithObserver(o observe.Observer) ExecutorOption {
	return func(e *Executor) { e.observer = o }
}

// WithClassifiers sets the registry consulted for named classifiers.
func WithClassifiers(r *classify.Registry) ExecutorOption {
	return func(e *Executor) { e.classifiers = r }
}

// WithDefaultClassifier sets the classifier used when neither the call
// nor the policy selects one.
func WithDefaultClassifier(c classify.Classifier) ExecutorOption {
	return func(e *Executor) { e.classifier = c }
}

// WithExecutorNetworkCheck sets the executor-wide network-error
// predicate, used by the default classifier when a call does not supply
// its own.
func WithExecutorNetworkCheck(check classify.NetworkCheck) ExecutorOption {
	return func(e *Executor) { e.network = check }
}

// WithClock sets the clock function.
func WithClock(f func() time.Time) ExecutorOption {
	return func(e *Executor) { e.clock = f }
}

// NewExecutor creates an Executor, filling defaults for any collaborator
// not supplied.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}

	if e.observer == nil {
		e.observer = observe.NoopObserver{}
	}
	if e.classifiers == nil {
		e.classifiers = classify.NewRegistry()
		classify.RegisterBuiltins(e.classifiers)
	}
	if e.classifier == nil {
		e.classifier = classify.DefaultClassifier{Network: e.network}
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.sleep == nil {
		e.sleep = sleepWithContext
	}
	if e.randFloat == nil {
		e.randFloat = rand.Float64
	}
	if e.newRunID == nil {
		e.newRunID = uuid.NewString
	}

	return e
}

// Do executes op under the given call options.
func (e *Executor) Do(ctx context.Context, op Operation, opts ...CallOption) error {
	_, err := DoValue(ctx, e, func(ctx context.Context, attempt int) (struct{}, error) {
		return struct{}{}, op(ctx, attempt)
	}, opts...)
	return err
}

// DoNamed executes op under the policy the executor's provider resolves
// for key. Without a provider the default policy applies.
func (e *Executor) DoNamed(ctx context.Context, key string, op Operation, opts ...CallOption) error {
	_, err := DoNamedValue(ctx, e, key, func(ctx context.Context, attempt int) (struct{}, error) {
		return struct{}{}, op(ctx, attempt)
	}, opts...)
	return err
}

// DoNamedValue is DoNamed for value-producing operations.
func DoNamedValue[T any](ctx context.Context, exec *Executor, key string, op OperationValue[T], opts ...CallOption) (T, error) {
	if exec == nil {
		exec = NewExecutor()
	}

	k := policy.ParseKey(key)
	if exec.provider != nil {
		pol, err := exec.provider.Options(ctx, k)
		if err != nil {
			var zero T
			return zero, err
		}
		opts = append([]CallOption{WithOptions(pol)}, opts...)
	}
	opts = append(opts, func(c *callConfig) { c.key = k })

	return DoValue(ctx, exec, op, opts...)
}

// DoValue executes op until it succeeds, its retry budget or deadline is
// exhausted, a terminal failure is classified, a hook fails, or ctx is
// cancelled. It implements the full decision sequence documented on the
// package.
func DoValue[T any](ctx context.Context, exec *Executor, op OperationValue[T], opts ...CallOption) (T, error) {
	var zero T

	if ctx == nil {
		ctx = context.Background()
	}
	if exec == nil {
		exec = NewExecutor()
	}

	cfg := &callConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	pol, err := resolvePolicy(cfg)
	if err != nil {
		return zero, err
	}
	classifier, err := exec.resolveClassifier(cfg, pol)
	if err != nil {
		return zero, err
	}

	return runLoop(ctx, exec, cfg, pol, classifier, op)
}

// resolvePolicy builds the run's policy. WithOptions supplies the base
// (the defaults otherwise) and WithPolicy options layer on top, so a
// provider-resolved policy can still be overridden per call.
func resolvePolicy(cfg *callConfig) (policy.Options, error) {
	if !cfg.polSet {
		return policy.New(cfg.polOpts...)
	}
	pol := cfg.pol
	for _, opt := range cfg.polOpts {
		opt(&pol)
	}
	return pol.Normalize()
}

// resolveClassifier picks, in order: the call's explicit classifier, a
// call-level network predicate wrapped in the default rules, the
// policy's named classifier, the executor default.
func (e *Executor) resolveClassifier(cfg *callConfig, pol policy.Options) (classify.Classifier, error) {
	if cfg.classifier != nil {
		return cfg.classifier, nil
	}
	if cfg.network != nil {
		return classify.DefaultClassifier{Network: cfg.network}, nil
	}
	if pol.Classifier != "" {
		c, ok := e.classifiers.Get(pol.Classifier)
		if !ok {
			return nil, &NoClassifierError{Name: pol.Classifier}
		}
		return c, nil
	}
	return e.classifier, nil
}

func runLoop[T any](ctx context.Context, exec *Executor, cfg *callConfig, pol policy.Options, classifier classify.Classifier, op OperationValue[T]) (T, error) {
	var zero T

	start := exec.clock()
	var deadline time.Time
	if pol.MaxRetryTime != policy.Unlimited {
		deadline = start.Add(pol.MaxRetryTime)
	}

	capture, _ := observe.TimelineCaptureFromContext(ctx)
	tl := &observe.Timeline{
		RunID: exec.newRunID(),
		Key:   cfg.key,
		Start: start,
	}
	exec.observer.OnStart(ctx, cfg.key, pol)

	finish := func(val T, err error) (T, error) {
		tl.End = exec.clock()
		tl.FinalErr = err
		if err == nil {
			exec.observer.OnSuccess(ctx, cfg.key, *tl)
		} else {
			exec.observer.OnFailure(ctx, cfg.key, *tl)
		}
		observe.StoreTimelineCapture(capture, tl)
		return val, err
	}
	record := func(rec observe.AttemptRecord) {
		tl.Attempts = append(tl.Attempts, rec)
		exec.observer.OnAttempt(ctx, cfg.key, rec)
	}

	// A signal already active before the first attempt means the
	// operation body must never run.
	if ctx.Err() != nil {
		return finish(zero, cancelCause(ctx))
	}

	consumed := 0
	skipped := 0

	for attempt := 1; ; attempt++ {
		attStart := exec.clock()
		val, opErr := invoke(ctx, op, attempt)

		if opErr == nil {
			// A cancellation racing the completing attempt still wins.
			if ctx.Err() != nil {
				record(observe.AttemptRecord{
					Attempt:   attempt,
					StartTime: attStart,
					EndTime:   exec.clock(),
					Outcome:   classify.Outcome{Kind: classify.OutcomeAbort, Reason: "context_canceled"},
				})
				return finish(zero, cancelCause(ctx))
			}
			record(observe.AttemptRecord{
				Attempt:   attempt,
				StartTime: attStart,
				EndTime:   exec.clock(),
				Outcome:   classify.Outcome{Kind: classify.OutcomeSuccess, Reason: "success"},
			})
			return finish(val, nil)
		}

		// A failure under an already-cancelled context ends the run with
		// the cancellation cause, matching the success-race and sleep
		// paths; the bare context error the operation happened to return
		// never hides a cause supplied via WithCancelCause.
		if ctx.Err() != nil {
			record(observe.AttemptRecord{
				Attempt:   attempt,
				StartTime: attStart,
				EndTime:   exec.clock(),
				Outcome:   classify.Outcome{Kind: classify.OutcomeAbort, Reason: "context_canceled"},
				Err:       opErr,
			})
			return finish(zero, cancelCause(ctx))
		}

		out := classifier.Classify(opErr)
		if out.Cause == nil {
			out.Cause = opErr
		}

		switch out.Kind {
		case classify.OutcomeSuccess:
			record(observe.AttemptRecord{
				Attempt:   attempt,
				StartTime: attStart,
				EndTime:   exec.clock(),
				Outcome:   out,
				Err:       opErr,
			})
			return finish(val, nil)

		case classify.OutcomeRetryable:
			// fall through to the decision sequence below

		case classify.OutcomeAbort, classify.OutcomeNonRetryable:
			// Terminal: no OnFailedAttempt, no ShouldRetry, no delay.
			record(observe.AttemptRecord{
				Attempt:   attempt,
				StartTime: attStart,
				EndTime:   exec.clock(),
				Outcome:   out,
				Err:       opErr,
			})
			return finish(zero, out.Cause)

		default:
			out.Kind = classify.OutcomeNonRetryable
			out.Reason = "unknown_outcome"
			record(observe.AttemptRecord{
				Attempt:   attempt,
				StartTime: attStart,
				EndTime:   exec.clock(),
				Outcome:   out,
				Err:       opErr,
			})
			return finish(zero, out.Cause)
		}

		classified := out.Cause

		skippedNow, cbErr := safeShouldSkip(cfg.shouldSkip, classified)
		if cbErr != nil {
			record(observe.AttemptRecord{Attempt: attempt, StartTime: attStart, EndTime: exec.clock(), Outcome: out, Err: classified})
			return finish(zero, cbErr)
		}
		if skippedNow {
			skipped++
		}

		retriesLeft := pol.Retries
		if pol.Retries != policy.UnlimitedRetries {
			retriesLeft = pol.Retries - consumed
		}

		att := Attempt{
			Err:             classified,
			Number:          attempt,
			RetriesLeft:     retriesLeft,
			SkippedAttempts: skipped,
			Skipped:         skippedNow,
			Start:           start,
			Deadline:        deadline,
		}

		// OnFailedAttempt fires exactly once per failed attempt, before
		// ShouldRetry, including on the final failure. Its own failure
		// replaces the classified error and ends the run.
		if cbErr := safeOnFailedAttempt(ctx, cfg.onFailedAttempt, att); cbErr != nil {
			record(observe.AttemptRecord{Attempt: attempt, StartTime: attStart, EndTime: exec.clock(), Outcome: out, Err: classified, Skipped: skippedNow})
			return finish(zero, cbErr)
		}

		withinBudget := deadline.IsZero() || exec.clock().Before(deadline)
		canRetry := skippedNow || retriesLeft == policy.UnlimitedRetries || retriesLeft > 0

		if !withinBudget || !canRetry {
			record(observe.AttemptRecord{Attempt: attempt, StartTime: attStart, EndTime: exec.clock(), Outcome: out, Err: classified, Skipped: skippedNow})
			return finish(zero, classified)
		}

		ok, cbErr := safeShouldRetry(ctx, cfg.shouldRetry, att)
		if cbErr != nil {
			record(observe.AttemptRecord{Attempt: attempt, StartTime: attStart, EndTime: exec.clock(), Outcome: out, Err: classified, Skipped: skippedNow})
			return finish(zero, cbErr)
		}
		if !ok {
			record(observe.AttemptRecord{Attempt: attempt, StartTime: attStart, EndTime: exec.clock(), Outcome: out, Err: classified, Skipped: skippedNow})
			return finish(zero, classified)
		}

		if !skippedNow {
			consumed++
		}

		// Skipped failures do not advance the backoff growth.
		effective := attempt - skipped
		delay := computeDelay(pol, effective, exec.randFloat)

		// Never sleep past the deadline; with no time left the run fails
		// now with the classified error.
		if !deadline.IsZero() {
			remaining := deadline.Sub(exec.clock())
			if remaining <= 0 {
				record(observe.AttemptRecord{Attempt: attempt, StartTime: attStart, EndTime: exec.clock(), Outcome: out, Err: classified, Skipped: skippedNow})
				return finish(zero, classified)
			}
			if delay > remaining {
				delay = remaining
			}
		}

		record(observe.AttemptRecord{
			Attempt:   attempt,
			StartTime: attStart,
			EndTime:   exec.clock(),
			Outcome:   out,
			Err:       classified,
			Skipped:   skippedNow,
			Delay:     delay,
		})

		if err := exec.sleep(ctx, delay); err != nil {
			return finish(zero, cancelCause(ctx))
		}
		if ctx.Err() != nil {
			return finish(zero, cancelCause(ctx))
		}
	}
}

// invoke runs one attempt, converting panics into errors: an error panic
// value becomes the attempt error, anything else is wrapped so only
// proper error values flow through classification.
func invoke[T any](ctx context.Context, op OperationValue[T], attempt int) (val T, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = &classify.RaisedValueError{Value: r}
		}
	}()
	return op(observe.WithoutTimelineCapture(ctx), attempt)
}

// cancelCause surfaces the cancellation reason: the context cause when
// one was supplied, the plain context error otherwise.
func cancelCause(ctx context.Context) error {
	if cause := context.Cause(ctx); cause != nil {
		return cause
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return context.Canceled
}

func safeOnFailedAttempt(ctx context.Context, fn OnFailedAttemptFunc, att Attempt) (err error) {
	if fn == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = raisedError(r)
		}
	}()
	return fn(ctx, att)
}

func safeShouldRetry(ctx context.Context, fn ShouldRetryFunc, att Attempt) (ok bool, err error) {
	if fn == nil {
		return true, nil
	}
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = raisedError(r)
		}
	}()
	return fn(ctx, att)
}

func safeShouldSkip(fn ShouldSkipFunc, opErr error) (skip bool, err error) {
	if fn == nil {
		return false, nil
	}
	defer func() {
		if r := recover(); r != nil {
			skip = false
			err = raisedError(r)
		}
	}()
	return fn(opErr), nil
}

func raisedError(r any) error {
	if e, ok := r.(error); ok {
		return e
	}
	return &classify.RaisedValueError{Value: r}
}
