package retry

import "context"

// Retriable wraps op so that each call runs it under exec with the given
// call options. The returned function is safe for concurrent use.
func Retriable[T any](exec *Executor, op OperationValue[T], opts ...CallOption) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		return DoValue(ctx, exec, op, opts...)
	}
}

// Retriable1 wraps a one-argument function so that each call retries a
// closure over its argument, forwarding it unchanged on every attempt.
func Retriable1[A, T any](exec *Executor, fn func(ctx context.Context, arg A) (T, error), opts ...CallOption) func(context.Context, A) (T, error) {
	return func(ctx context.Context, arg A) (T, error) {
		return DoValue(ctx, exec, func(ctx context.Context, _ int) (T, error) {
			return fn(ctx, arg)
		}, opts...)
	}
}

// Retriable2 is Retriable1 for two-argument functions.
func Retriable2[A, B, T any](exec *Executor, fn func(ctx context.Context, a A, b B) (T, error), opts ...CallOption) func(context.Context, A, B) (T, error) {
	return func(ctx context.Context, a A, b B) (T, error) {
		return DoValue(ctx, exec, func(ctx context.Context, _ int) (T, error) {
			return fn(ctx, a, b)
		}, opts...)
	}
}
