package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCapabilityUnavailable signals that a required artifact is absent for this session.
	ErrCapabilityUnavailable = errors.New("capability unavailable")
	// ErrFeatureMismatch signals incompatible artifacts (feature width or column order).
	// It is a configuration error and must never be absorbed.
	ErrFeatureMismatch = errors.New("feature layout mismatch")
	// ErrInvalidRequest signals a request that fails validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrArtifactNotFound signals a missing artifact in the artifact source.
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrArtifactMalformed signals an artifact that cannot be decoded.
	ErrArtifactMalformed = errors.New("artifact malformed")
	// ErrCorpusUnavailable signals that no incident corpus could be loaded.
	ErrCorpusUnavailable = errors.New("incident corpus unavailable")
	// ErrEmbeddingProviderError signals a failure of the remote embedding provider.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// CapabilityError wraps ErrCapabilityUnavailable with the missing capabilities.
type CapabilityError struct {
	Action  string
	Missing []Capability
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s: %s: missing %v", e.Action, ErrCapabilityUnavailable.Error(), e.Missing)
}

func (e *CapabilityError) Unwrap() error { return ErrCapabilityUnavailable }

// MismatchError wraps ErrFeatureMismatch with the offending component and widths.
type MismatchError struct {
	Component string
	Want      int
	Got       int
	Detail    string
}

func (e *MismatchError) Error() string {
	msg := fmt.Sprintf("%s: %s: want width %d, got %d", ErrFeatureMismatch.Error(), e.Component, e.Want, e.Got)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *MismatchError) Unwrap() error { return ErrFeatureMismatch }
