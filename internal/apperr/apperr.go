// Package apperr defines the error taxonomy shared across the service.
//
// Sentinels cover conditions the caller reacts to by kind alone; the
// struct types carry detail (which fields failed, which remote op broke).
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized: password rejected or no credential presented.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredential: signature mismatch or expiry. Terminal; the
	// caller must re-authenticate. Deliberately carries no detail about
	// which check failed.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrSystemUnconfigured: a required secret is absent. The service
	// fails closed, never open.
	ErrSystemUnconfigured = errors.New("system unconfigured")

	// ErrBadRequest: unknown action or unparseable request, distinct
	// from an auth failure.
	ErrBadRequest = errors.New("bad request")

	ErrNotFound = errors.New("not found")
)

// ValidationError reports the fields that violated the Team shape.
// Recoverable: the caller corrects the data and retries.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, ", ")
}

// SecurityError marks a signature mismatch on a payment confirmation.
// Always terminal, never retried, logged as a potential attack.
type SecurityError struct {
	Reason string
}

func (e *SecurityError) Error() string {
	return "security: " + e.Reason
}

// RemoteSyncError: the local cache write succeeded but the remote write
// did not. The cache is not rolled back; the caller decides whether to
// retry.
type RemoteSyncError struct {
	Op  string
	Err error
}

func (e *RemoteSyncError) Error() string {
	return fmt.Sprintf("remote sync (%s): %v", e.Op, e.Err)
}

func (e *RemoteSyncError) Unwrap() error { return e.Err }
