package policy

import "testing"

func TestParseKey_Cases(t *testing.T) {
	cases := []struct {
		input string
		want  Key
	}{
		{input: "", want: Key{}},
		{input: "method", want: Key{Name: "method"}},
		{input: "svc.method", want: Key{Namespace: "svc", Name: "method"}},
		{input: " svc.method ", want: Key{Namespace: "svc", Name: "method"}},
		{input: "svc.", want: Key{Name: "svc."}},
		{input: ".method", want: Key{Name: "method"}},
		{input: "service . method", want: Key{Namespace: "service", Name: "method"}},
		{input: "svc.method.extra", want: Key{Namespace: "svc", Name: "method.extra"}},
	}

	for _, tc := range cases {
		if got := ParseKey(tc.input); got != tc.want {
			t.Fatalf("ParseKey(%q) = %+v, want %+v", tc.input, got, tc.want)
		}
	}
}

func TestKey_String(t *testing.T) {
	cases := []struct {
		key  Key
		want string
	}{
		{key: Key{}, want: ""},
		{key: Key{Name: "method"}, want: "method"},
		{key: Key{Namespace: "svc"}, want: "svc"},
		{key: Key{Namespace: "svc", Name: "method"}, want: "svc.method"},
	}

	for _, tc := range cases {
		if got := tc.key.String(); got != tc.want {
			t.Fatalf("String(%+v) = %q, want %q", tc.key, got, tc.want)
		}
	}
}
