package policy

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	o := Defaults()
	if o.Retries != 10 {
		t.Fatalf("retries=%d, want 10", o.Retries)
	}
	if o.Factor != 2 {
		t.Fatalf("factor=%v, want 2", o.Factor)
	}
	if o.MinTimeout != time.Second {
		t.Fatalf("minTimeout=%v, want 1s", o.MinTimeout)
	}
	if o.MaxTimeout != Unlimited {
		t.Fatalf("maxTimeout=%v, want Unlimited", o.MaxTimeout)
	}
	if o.MaxRetryTime != Unlimited {
		t.Fatalf("maxRetryTime=%v, want Unlimited", o.MaxRetryTime)
	}
	if o.Randomize {
		t.Fatalf("randomize should default to false")
	}
}

func TestNew_AppliesOptions(t *testing.T) {
	o, err := New(
		Retries(3),
		Factor(1.5),
		MinTimeout(50*time.Millisecond),
		MaxTimeout(time.Second),
		MaxRetryTime(10*time.Second),
		Randomize(true),
		Classifier("always"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Retries != 3 || o.Factor != 1.5 || o.MinTimeout != 50*time.Millisecond {
		t.Fatalf("unexpected options: %+v", o)
	}
	if o.MaxTimeout != time.Second || o.MaxRetryTime != 10*time.Second {
		t.Fatalf("unexpected bounds: %+v", o)
	}
	if !o.Randomize || o.Classifier != "always" {
		t.Fatalf("unexpected options: %+v", o)
	}
}

func TestNew_ZeroRetriesIsValid(t *testing.T) {
	o, err := New(Retries(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Retries != 0 {
		t.Fatalf("retries=%d, want 0", o.Retries)
	}
}

func TestNew_UnlimitedRetries(t *testing.T) {
	o, err := New(Retries(UnlimitedRetries))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Retries != UnlimitedRetries {
		t.Fatalf("retries=%d, want UnlimitedRetries", o.Retries)
	}
}

func TestNormalize_RejectsForever(t *testing.T) {
	_, err := New(Forever())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "forever" {
		t.Fatalf("field=%q, want forever", verr.Field)
	}
	if !strings.Contains(err.Error(), "no longer supported") {
		t.Fatalf("error should carry the migration hint, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "UnlimitedRetries") {
		t.Fatalf("error should name the replacement, got %q", err.Error())
	}
}

func TestNormalize_RejectsNegativeRetries(t *testing.T) {
	_, err := New(Retries(-3))
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "retries" {
		t.Fatalf("expected retries ValidationError, got %v", err)
	}
	if verr.Msg != "retries must be a non-negative number" {
		t.Fatalf("unexpected message: %q", verr.Msg)
	}
}

func TestNormalize_RejectsNaNFactor(t *testing.T) {
	_, err := New(Factor(math.NaN()))
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "factor" {
		t.Fatalf("expected factor ValidationError, got %v", err)
	}
	if verr.Msg != "factor must be a valid number, got NaN" {
		t.Fatalf("unexpected message: %q", verr.Msg)
	}
}

func TestNormalize_CoercesNonPositiveFactor(t *testing.T) {
	for _, f := range []float64{0, -2} {
		o, err := New(Factor(f))
		if err != nil {
			t.Fatalf("factor %v: unexpected error: %v", f, err)
		}
		if o.Factor != 1 {
			t.Fatalf("factor %v normalized to %v, want 1", f, o.Factor)
		}
	}
}

func TestNormalize_RejectsNegativeDurations(t *testing.T) {
	cases := []struct {
		name string
		opt  Option
	}{
		{name: "minTimeout", opt: MinTimeout(-time.Second)},
		{name: "maxTimeout", opt: MaxTimeout(-2 * time.Second)},
		{name: "maxRetryTime", opt: MaxRetryTime(-2 * time.Second)},
	}

	for _, tc := range cases {
		_, err := New(tc.opt)
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Field != tc.name {
			t.Fatalf("%s: expected ValidationError for field, got %v", tc.name, err)
		}
	}
}

func TestNormalize_ZeroMaxRetryTimeIsValid(t *testing.T) {
	o, err := New(MaxRetryTime(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.MaxRetryTime != 0 {
		t.Fatalf("maxRetryTime=%v, want 0", o.MaxRetryTime)
	}
}

func TestMustNew_PanicsOnInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	MustNew(Retries(-2))
}

func TestValidationError_NilSafe(t *testing.T) {
	var verr *ValidationError
	if got := verr.Error(); got != "<nil>" {
		t.Fatalf("nil error string = %q", got)
	}
}
