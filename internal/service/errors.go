package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDataProvided     = errors.New("invalid data provided")
	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")
	ErrTokenCreationFailed     = errors.New("token creation failed")
	ErrIncompleteConflict      = errors.New("remote reported a conflict without the remote operation")
	ErrUnaccountedOperation    = errors.New("remote neither accepted nor refused an operation")
)

// SyncErrorKind classifies failures the sync engine cannot retry.
type SyncErrorKind string

const (
	// SyncErrorAuth means the remote refused the device credentials.
	SyncErrorAuth SyncErrorKind = "auth"
	// SyncErrorRejected means the remote refused the request itself.
	SyncErrorRejected SyncErrorKind = "rejected"
)

// SyncError is a sync failure surfaced to the caller. Transient failures
// never become a SyncError; they are retried and reported on the status
// channel only.
type SyncError struct {
	Kind SyncErrorKind
	Err  error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s: %v", e.Kind, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// IsSyncError reports whether err carries a SyncError of kind. An empty kind
// matches any SyncError.
func IsSyncError(err error, kind SyncErrorKind) bool {
	var sErr *SyncError
	if !errors.As(err, &sErr) {
		return false
	}
	return kind == "" || sErr.Kind == kind
}

// ConflictError describes a pushed operation the remote refused because the
// entry had moved past its base version. It is resolved by the engine and
// never leaves it.
type ConflictError struct {
	EntryID       string
	OpID          string
	RemoteVersion int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on entry %s: operation %s is behind remote version %d", e.EntryID, e.OpID, e.RemoteVersion)
}
