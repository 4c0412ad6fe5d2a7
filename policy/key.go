package policy

import "strings"

// Key identifies a named policy, usually "namespace.name". Keys exist
// for providers and observability labels only; the retry loop itself is
// key-agnostic.
type Key struct {
	Namespace string
	Name      string
}

// ParseKey parses "namespace.name" into a Key. A string without a usable
// namespace segment becomes a bare Name.
func ParseKey(s string) Key {
	s = strings.TrimSpace(s)
	if s == "" {
		return Key{}
	}

	i := strings.Index(s, ".")
	if i < 0 {
		return Key{Name: s}
	}

	ns := strings.TrimSpace(s[:i])
	name := strings.TrimSpace(s[i+1:])
	if name == "" {
		return Key{Name: s}
	}
	if ns == "" {
		return Key{Name: name}
	}
	return Key{Namespace: ns, Name: name}
}

func (k Key) String() string {
	switch {
	case k.Namespace == "":
		return k.Name
	case k.Name == "":
		return k.Namespace
	default:
		return k.Namespace + "." + k.Name
	}
}
