package acm

import (
	"errors"
	"fmt"
)

// Kind classifies the errors acm can return to a caller. Transient,
// not-found, and conflict outcomes never reach this type — they are
// resolved internally (failover to another server, fall through to the
// snapshot cache, or treated as an absent value) per the read-precedence
// rules documented on Client.Get.
type Kind string

const (
	// KindInvalidArgument means dataId/group failed validation, or a
	// required argument (callback, content) was missing.
	KindInvalidArgument Kind = "invalid_argument"

	// KindPermissionDenied means the server returned 403 for the request.
	KindPermissionDenied Kind = "permission_denied"

	// KindAllServersUnavailable means every server in the pool was tried
	// for a request and none returned a usable response.
	KindAllServersUnavailable Kind = "all_servers_unavailable"
)

// Error is the error type public Client methods use for invalid arguments,
// permission rejections, and server-pool exhaustion. Other transport errors
// (for example a cancelled context) are returned unwrapped.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("acm: %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("acm: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, acm.ErrPermissionDenied) style checks against the
// sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel values usable with errors.Is.
var (
	ErrPermissionDenied    = &Error{Kind: KindPermissionDenied, Message: "permission denied"}
	ErrAllServersUnavailable = &Error{Kind: KindAllServersUnavailable, Message: "all servers unavailable"}
)

func invalidArgument(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func permissionDenied(op string) *Error {
	return &Error{Kind: KindPermissionDenied, Message: op}
}

func allServersUnavailable(cause error) *Error {
	return &Error{Kind: KindAllServersUnavailable, Message: "exhausted server list", Cause: cause}
}

// IsPermissionDenied reports whether err is (or wraps) a server-side
// permission rejection (403).
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsAllServersUnavailable reports whether err is (or wraps) the exhaustion
// of every server in the pool.
func IsAllServersUnavailable(err error) bool {
	return errors.Is(err, ErrAllServersUnavailable)
}
