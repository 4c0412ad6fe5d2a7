package persist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/persistio/persist/policy"
	"github.com/persistio/persist/retry"
)

func fastOptions(retries int) retry.CallOption {
	return retry.WithPolicy(policy.Retries(retries), policy.MinTimeout(time.Millisecond))
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context, int) error {
		calls++
		if calls < 3 {
			return errors.New("boom")
		}
		return nil
	}, fastOptions(5))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoValue_ReturnsValue(t *testing.T) {
	calls := 0
	val, err := DoValue(context.Background(), func(context.Context, int) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("boom")
		}
		return "done", nil
	}, fastOptions(5))

	require.NoError(t, err)
	assert.Equal(t, "done", val)
}

func TestDoNamed_LabelsTheRun(t *testing.T) {
	err := DoNamed(context.Background(), "svc.op", func(context.Context, int) error {
		return nil
	})
	require.NoError(t, err)
}

func TestWrap_RetriesEachInvocation(t *testing.T) {
	calls := 0
	fn := Wrap(func(context.Context, int) (int, error) {
		calls++
		if calls%2 == 1 {
			return 0, errors.New("boom")
		}
		return calls, nil
	}, fastOptions(3))

	val, err := fn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, val)

	val, err = fn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, val)
}

func TestAbort_StopsRetrying(t *testing.T) {
	cause := errors.New("user does not exist")
	calls := 0

	err := Do(context.Background(), func(context.Context, int) error {
		calls++
		return Abort(cause)
	}, fastOptions(5))

	assert.Equal(t, 1, calls)
	assert.Equal(t, cause, err)
}

func TestParseKey(t *testing.T) {
	assert.Equal(t, Key{Namespace: "svc", Name: "op"}, ParseKey("svc.op"))
	assert.Equal(t, Key{Name: "op"}, ParseKey("op"))
}
