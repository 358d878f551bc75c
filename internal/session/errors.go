package session

import (
	"errors"
	"fmt"

	"github.com/camrelay/camrelay/internal/onvif"
)

// FailureKind categorizes why a session open failed. Kinds are caught by
// the discovery orchestrator, logged, and never escalate past the device
// that produced them.
type FailureKind int

const (
	// KindUnreachable indicates the device could not be contacted
	KindUnreachable FailureKind = iota
	// KindAuthFailed indicates the device rejected the credential pair
	KindAuthFailed
	// KindNoProfiles indicates the device advertised no media profiles
	KindNoProfiles
	// KindStreamResolution indicates stream URI resolution failed
	KindStreamResolution
	// KindSnapshotResolution indicates snapshot URI resolution failed
	KindSnapshotResolution
)

// String returns a human-readable name for the failure kind
func (k FailureKind) String() string {
	switch k {
	case KindUnreachable:
		return "Unreachable"
	case KindAuthFailed:
		return "AuthenticationFailed"
	case KindNoProfiles:
		return "NoProfilesAvailable"
	case KindStreamResolution:
		return "StreamResolutionFailed"
	case KindSnapshotResolution:
		return "SnapshotResolutionFailed"
	default:
		return fmt.Sprintf("FailureKind(%d)", k)
	}
}

// Error is a failed session open, carrying the failure kind and the device
// address for log context.
type Error struct {
	Kind    FailureKind
	Address string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: device %s: %v", e.Kind, e.Address, e.Err)
	}
	return fmt.Sprintf("%s: device %s", e.Kind, e.Address)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// newError wraps err with a failure kind and address context.
func newError(kind FailureKind, address string, err error) *Error {
	return &Error{Kind: kind, Address: address, Err: err}
}

// classifyOpenError maps an error from the first authenticated call to
// Unreachable or AuthenticationFailed. A SOAP auth fault, an HTTP 401, or
// any other device fault on the initial call means the credentials were
// rejected; everything else means the device could not be reached.
func classifyOpenError(address string, err error) *Error {
	var fault *onvif.Fault
	if errors.As(err, &fault) && fault.IsAuthFault() {
		return newError(KindAuthFailed, address, err)
	}

	var statusErr *onvif.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == 401 || statusErr.StatusCode == 403 {
			return newError(KindAuthFailed, address, err)
		}
	}

	return newError(KindUnreachable, address, err)
}

// Is* predicates mirror the failure taxonomy for callers that do not want
// to unwrap the error themselves.

// IsUnreachable checks if an error is an unreachable-device failure
func IsUnreachable(err error) bool { return hasKind(err, KindUnreachable) }

// IsAuthFailed checks if an error is an authentication failure
func IsAuthFailed(err error) bool { return hasKind(err, KindAuthFailed) }

// IsNoProfiles checks if an error is a missing-profiles failure
func IsNoProfiles(err error) bool { return hasKind(err, KindNoProfiles) }

// IsStreamResolution checks if an error is a stream resolution failure
func IsStreamResolution(err error) bool { return hasKind(err, KindStreamResolution) }

// IsSnapshotResolution checks if an error is a snapshot resolution failure
func IsSnapshotResolution(err error) bool { return hasKind(err, KindSnapshotResolution) }

func hasKind(err error, kind FailureKind) bool {
	var sessErr *Error
	if errors.As(err, &sessErr) {
		return sessErr.Kind == kind
	}
	return false
}
