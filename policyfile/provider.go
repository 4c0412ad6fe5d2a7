// Package policyfile resolves named retry policies: statically, or from
// layered configuration (defaults, a YAML document, environment
// overrides) in the usual defaults-file-env priority order.
package policyfile

import (
	"context"

	"github.com/persistio/persist/policy"
)

// Provider supplies the Options for a policy Key.
type Provider interface {
	// Options returns the normalized policy for key. Providers fall back
	// to their default policy for unknown keys; ErrPolicyNotFound is
	// reserved for providers configured without a fallback.
	Options(ctx context.Context, key policy.Key) (policy.Options, error)
}

// StaticProvider is an in-process Provider backed by a map and an
// optional default.
type StaticProvider struct {
	Policies map[policy.Key]policy.Options

	// Default, when non-nil, serves keys missing from Policies. A nil
	// Default serves policy.Defaults instead.
	Default *policy.Options
}

func (p *StaticProvider) Options(_ context.Context, key policy.Key) (policy.Options, error) {
	if p != nil && p.Policies != nil {
		if pol, ok := p.Policies[key]; ok {
			return pol.Normalize()
		}
	}
	if p != nil && p.Default != nil {
		return p.Default.Normalize()
	}
	return policy.Defaults(), nil
}
