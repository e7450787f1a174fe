package model

import "errors"

type ErrorKind string

const (
	KindServiceUnavailable ErrorKind = "service_unavailable"
	KindStorageFailure     ErrorKind = "storage_failure"
	KindInferenceFailure   ErrorKind = "inference_failure"
)

// Error is a failed detection. Message is safe to show to users; Err keeps
// the underlying cause for logs and errors.Is.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a detection error, or "" if err is not one.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
