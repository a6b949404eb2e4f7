package models

import (
	"fmt"

	"github.com/pkg/errors"
)

// FailureKind classifies a stage failure. Failures are not retried inside
// the pipeline core; they propagate to the stage boundary and abort the
// remaining stages of the run.
type FailureKind string

const (
	// ReadFailure means an unparseable or missing raw source
	ReadFailure FailureKind = "ReadFailure"
	// TransformFailure means a transformation profile could not be built.
	// The built-in field rules are total and never produce it per record.
	TransformFailure FailureKind = "TransformFailure"
	// WriteFailure means the columnar artifact could not be written
	WriteFailure FailureKind = "WriteFailure"
	// NotFoundFailure means no artifact is discoverable under a prefix
	NotFoundFailure FailureKind = "NotFoundFailure"
	// LoadFailure means the relational bulk-write or artifact read failed
	LoadFailure FailureKind = "LoadFailure"
	// NoFailure is returned by KindOf for nil or untyped errors
	NoFailure FailureKind = ""
)

// Failure is a typed stage error. It carries the failure kind across
// errors.Wrap layers so the orchestrator can classify the run result.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

// Error of Failure renders kind, message and cause.
func (x *Failure) Error() string {
	if x.Err != nil {
		return fmt.Sprintf("%s: %s: %s", x.Kind, x.Message, x.Err.Error())
	}
	return fmt.Sprintf("%s: %s", x.Kind, x.Message)
}

// NewFailure creates a Failure without an underlying cause.
func NewFailure(kind FailureKind, format string, args ...interface{}) error {
	return &Failure{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapFailure attaches a failure kind and message to an underlying error.
func WrapFailure(err error, kind FailureKind, format string, args ...interface{}) error {
	return &Failure{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// KindOf resolves the failure kind of an error, unwrapping errors.Wrap
// layers. Untyped errors map to NoFailure.
func KindOf(err error) FailureKind {
	if err == nil {
		return NoFailure
	}
	if f, ok := errors.Cause(err).(*Failure); ok {
		return f.Kind
	}
	return NoFailure
}
