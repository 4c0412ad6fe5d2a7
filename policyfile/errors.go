package policyfile

import "errors"

var (
	// ErrPolicyNotFound indicates the provider has no policy for the
	// requested key and no fallback default.
	ErrPolicyNotFound = errors.New("persist: policy not found")

	// ErrDocumentInvalid indicates the policy document failed schema
	// validation before any policy was built from it.
	ErrDocumentInvalid = errors.New("persist: invalid policy document")
)
