package client

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoCampaignID is returned by CreateCampaign when the service answers 2xx
// without echoing a campaign_id.
var ErrNoCampaignID = errors.New("service did not return a campaign_id")

// TransportError means the request never completed: network unreachable, DNS
// failure, or timeout. Never swallowed; retrying is a manual user action.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the underlying failure was a deadline expiry.
func (e *TransportError) Timeout() bool {
	var t interface{ Timeout() bool }
	if errors.As(e.Err, &t) {
		return t.Timeout()
	}
	return strings.Contains(e.Err.Error(), "context deadline exceeded")
}

// HTTPStatusError is a non-2xx answer carrying a structured error body.
type HTTPStatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s: service returned %d: %s", e.Op, e.StatusCode, e.Message)
}

// UnparsableResponseError is a body that is not valid JSON where JSON was
// expected. Two endpoints deliberately absorb it (list-pending falls open to
// zero, status falls back to informational text); everywhere else it
// propagates.
type UnparsableResponseError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *UnparsableResponseError) Error() string {
	return fmt.Sprintf("%s: unparsable response (HTTP %d): %.120s", e.Op, e.StatusCode, e.Body)
}

// ConflictError is the "already exists" class of duplicate errors. Callers
// treat it as recoverable and proceed with the existing resource.
type ConflictError struct {
	Op       string
	Resource string
	Message  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s already exists: %s", e.Op, e.Resource, e.Message)
}

// NotFoundError means the referenced entity (campaign, or a number within a
// campaign) is absent. Surfaced as a user-correctable condition, distinct from
// a generic failure.
type NotFoundError struct {
	Op       string
	Resource string
	Message  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s not found: %s", e.Op, e.Resource, e.Message)
}

// IsConflict reports whether err is a recoverable duplicate-resource error.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err is a missing-entity error.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
