package store

import "errors"

// Storage sentinels. Match them with errors.Is.
var (
	// ErrEntryNotFound is returned when no entry with the requested id exists
	// in the local store, tombstones included.
	ErrEntryNotFound = errors.New("entry was not found")

	// ErrOperationNotFound is returned when no journal or remote record
	// matches the requested operation id.
	ErrOperationNotFound = errors.New("operation was not found")

	// ErrSupersededNotFound is returned when no superseded version is
	// addressed by the requested operation id.
	ErrSupersededNotFound = errors.New("superseded record was not found")

	// ErrMetaNotFound is returned when a metadata key is absent.
	ErrMetaNotFound = errors.New("metadata key was not found")

	// ErrDuplicateOperation is returned when the remote log already holds an
	// operation with the same id for the account.
	ErrDuplicateOperation = errors.New("operation already exists")

	// ErrStorageClosed is returned by operations on a closed store.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrUnsupportedBackend is returned when the local DSN names an unknown
	// backend.
	ErrUnsupportedBackend = errors.New("unsupported local storage backend")

	// ErrDeviceMismatch is returned when a configured device id differs from
	// the one the local store was created for.
	ErrDeviceMismatch = errors.New("device id does not match local store")

	// ErrRetryable wraps database failures the caller may retry (connection
	// loss, serialization failure, deadlock).
	ErrRetryable = errors.New("retryable storage failure")
)

// Driver-level failures, wrapped around the underlying error before any
// domain logic runs.
var (
	ErrBuildingSQLQuery     = errors.New("error building sql query")
	ErrExecutingQuery       = errors.New("error executing sql query")
	ErrBeginningTransaction = errors.New("failed to begin transaction")
	// ErrCommitingTransaction leaves the transaction rolled back.
	ErrCommitingTransaction = errors.New("failed to commit transaction")
	ErrExecutingStatement   = errors.New("failed to execute statement")
	ErrScanningRow          = errors.New("failed to scan row")
	ErrScanningRows         = errors.New("failed to scan rows")

	// ErrDecodingRecord and ErrEncodingRecord cover the JSON columns and
	// bbolt values.
	ErrDecodingRecord = errors.New("failed to decode stored record")
	ErrEncodingRecord = errors.New("failed to encode record")
)
