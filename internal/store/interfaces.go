package store

import (
	"context"
	"time"

	"github.com/innerhue/moodsync/models"
)

//go:generate mockgen -destination=../mock/store_mock.go -package=mock github.com/innerhue/moodsync/internal/store OperationTx,OperationRepository

// OperationQuery selects journaled operations. Results are always ordered by
// (LogicalClock, OriginDeviceID, OpID).
type OperationQuery struct {
	// EntryID keeps only operations of one entry.
	EntryID string
	// PendingOnly keeps only operations not yet acknowledged by the remote.
	PendingOnly bool
	// AfterClock keeps only operations with a greater logical clock.
	AfterClock int64
	// Limit caps the result; 0 means unlimited.
	Limit int
}

// LocalReader is the read side of the device local store. Reads never touch
// the network and may run concurrently with the single writer.
type LocalReader interface {
	GetEntry(ctx context.Context, entryID string) (models.MoodEntry, error)
	ListEntries(ctx context.Context, filter models.EntryFilter) ([]models.MoodEntry, error)

	GetOperation(ctx context.Context, opID string) (models.JournaledOperation, error)
	ListOperations(ctx context.Context, query OperationQuery) ([]models.JournaledOperation, error)
	CountPending(ctx context.Context) (int, error)
	// LastClock returns the highest logical clock journaled for deviceID,
	// or across all devices when deviceID is empty. The watermark survives
	// pruning.
	LastClock(ctx context.Context, deviceID string) (int64, error)

	// GetCursor returns the stored cursor or a zero cursor for deviceID.
	GetCursor(ctx context.Context, deviceID string) (models.SyncCursor, error)

	GetSuperseded(ctx context.Context, opID string) (models.SupersededRecord, error)
	// ListSuperseded returns the superseded versions of an entry, oldest
	// first, or of every entry when entryID is empty.
	ListSuperseded(ctx context.Context, entryID string) ([]models.SupersededRecord, error)

	GetMeta(ctx context.Context, key string) (string, error)
}

// LocalTx is one atomic write transaction against the local store.
type LocalTx interface {
	LocalReader

	PutEntry(ctx context.Context, entry models.MoodEntry) error
	// PutOperation inserts or replaces a journal record and raises the
	// clock watermark of its origin device.
	PutOperation(ctx context.Context, op models.JournaledOperation) error
	// AckOperations removes operations from the pending set. Unknown ids
	// are ignored.
	AckOperations(ctx context.Context, ackedAt time.Time, opIDs ...string) error
	// PruneOperations deletes acknowledged operations acknowledged before
	// the given time and returns how many were removed.
	PruneOperations(ctx context.Context, ackedBefore time.Time) (int, error)

	PutCursor(ctx context.Context, cursor models.SyncCursor) error
	PutSuperseded(ctx context.Context, record models.SupersededRecord) error
	PutMeta(ctx context.Context, key, value string) error
}

// LocalStorage is the device local durable store. All mutations go through
// Update, which runs fn in a single serialized write transaction: either
// every write of fn is persisted or none is.
type LocalStorage interface {
	LocalReader

	Update(ctx context.Context, fn func(tx LocalTx) error) error
	Close() error
}

// OperationTx is one serialized transaction over the remote operation log
// of a single account.
type OperationTx interface {
	// FindOperation returns a stored operation by id or ErrOperationNotFound.
	FindOperation(ctx context.Context, opID string) (models.Operation, error)
	// FindHead returns the operation that produced the current state of an
	// entry or ErrOperationNotFound.
	FindHead(ctx context.Context, entryID string) (models.Operation, error)
	// InsertOperation stores op, assigns its RemoteClock and makes it the
	// entry head.
	InsertOperation(ctx context.Context, op models.Operation) (models.Operation, error)
}

// OperationRepository is the remote authoritative operation log.
type OperationRepository interface {
	// InTx runs fn in a transaction that excludes concurrent writers for
	// the same account.
	InTx(ctx context.Context, userID int64, fn func(tx OperationTx) error) error
	// ListSince returns up to limit operations with RemoteClock greater than
	// since, ordered by RemoteClock.
	ListSince(ctx context.Context, userID int64, since int64, limit int) ([]models.Operation, error)
	// MaxClock returns the highest RemoteClock of the account.
	MaxClock(ctx context.Context, userID int64) (int64, error)
}
