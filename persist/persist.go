// Package persist is the umbrella entry point: run a fallible operation
// with retries under the shared default executor, or wrap a function so
// every call retries.
package persist

import (
	"context"

	"github.com/persistio/persist/classify"
	"github.com/persistio/persist/policy"
	"github.com/persistio/persist/retry"
)

// Key is the structured form of a policy key.
type Key = policy.Key

// Attempt is the failure context passed to retry hooks.
type Attempt = retry.Attempt

// ParseKey parses "namespace.name" into a Key.
func ParseKey(s string) Key { return policy.ParseKey(s) }

// Init sets the global default executor. It must be called before
// Do/DoValue are first used.
func Init(exec *retry.Executor) {
	retry.SetGlobal(exec)
}

// Do executes op using the default executor.
func Do(ctx context.Context, op retry.Operation, opts ...retry.CallOption) error {
	return retry.DefaultExecutor().Do(ctx, op, opts...)
}

// DoNamed executes op under the policy the default executor resolves
// for key.
func DoNamed(ctx context.Context, key string, op retry.Operation, opts ...retry.CallOption) error {
	return retry.DefaultExecutor().DoNamed(ctx, key, op, opts...)
}

// DoValue executes op using the default executor.
func DoValue[T any](ctx context.Context, op retry.OperationValue[T], opts ...retry.CallOption) (T, error) {
	return retry.DoValue(ctx, retry.DefaultExecutor(), op, opts...)
}

// Wrap turns op into a function that retries on every call, using the
// default executor.
func Wrap[T any](op retry.OperationValue[T], opts ...retry.CallOption) func(context.Context) (T, error) {
	return retry.Retriable(retry.DefaultExecutor(), op, opts...)
}

// Abort wraps err so classification ends the run immediately, surfacing
// err itself as the final error.
func Abort(err error) error { return classify.Abort(err) }
