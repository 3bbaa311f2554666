package mail

import (
	"errors"
	"fmt"
)

// ErrorKind tells which stage of a run failed.
type ErrorKind string

const (
	KindConnect  ErrorKind = "connect"
	KindAuth     ErrorKind = "auth"
	KindSubmit   ErrorKind = "submit"
	KindClose    ErrorKind = "close"
	KindCanceled ErrorKind = "canceled"
	KindUnknown  ErrorKind = "unknown"
)

// DeliveryError is the error every failed run ends with.
type DeliveryError struct {
	Kind ErrorKind
	// Recipient is set for submission failures.
	Recipient string
	// Delivered counts the messages the relay accepted before the failure.
	Delivered int
	Err       error
}

func (e *DeliveryError) Error() string {
	switch {
	case e.Recipient != "":
		return fmt.Sprintf("%s to %s failed after %d delivered: %v", e.Kind, e.Recipient, e.Delivered, e.Err)
	case e.Delivered > 0:
		return fmt.Sprintf("%s failed after %d delivered: %v", e.Kind, e.Delivered, e.Err)
	default:
		return fmt.Sprintf("%s failed: %v", e.Kind, e.Err)
	}
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first DeliveryError in err's chain.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// Retryable reports whether a caller may sensibly rerun after err. Runs that
// failed mid-send are not retryable because a rerun resends to everybody.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindConnect, KindCanceled:
		return true
	default:
		return false
	}
}
