package model

import "fmt"

// FailureKind classifies why a push step did not complete.
type FailureKind string

const (
	// FailureUnsupported: no permission or no physical push capability.
	FailureUnsupported FailureKind = "unsupported"
	// FailureInvalidInput: missing identifiers or a malformed token.
	FailureInvalidInput FailureKind = "invalid_input"
	// FailureLookup: reading members or tokens failed.
	FailureLookup FailureKind = "lookup"
	// FailureGateway: the push gateway call failed or returned non-2xx.
	FailureGateway FailureKind = "gateway"
	// FailurePersistence: writing a token or notification row failed.
	FailurePersistence FailureKind = "persistence"
)

// Failure is returned instead of being thrown so callers can choose
// whether to surface it. Err may be nil for kinds that carry no cause.
type Failure struct {
	Kind FailureKind
	Op   string
	Err  error
}

func NewFailure(kind FailureKind, op string, err error) *Failure {
	return &Failure{Kind: kind, Op: op, Err: err}
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Op, f.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", f.Op, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}
