package retry

import (
	"context"
	"testing"
)

func TestDefaultExecutor_StableAndUsable(t *testing.T) {
	exec := DefaultExecutor()
	if exec == nil {
		t.Fatalf("expected a default executor")
	}
	if DefaultExecutor() != exec {
		t.Fatalf("default executor must be stable")
	}

	called := false
	if err := exec.Do(context.Background(), func(context.Context, int) error {
		called = true
		return nil
	}); err != nil || !called {
		t.Fatalf("err=%v called=%v", err, called)
	}
}

func TestSetGlobal_AfterInitIsIgnored(t *testing.T) {
	before := DefaultExecutor()
	SetGlobal(NewExecutor())
	if DefaultExecutor() != before {
		t.Fatalf("SetGlobal after first use must not replace the executor")
	}

	SetGlobal(nil)
	if DefaultExecutor() != before {
		t.Fatalf("nil executor must be ignored")
	}
}
