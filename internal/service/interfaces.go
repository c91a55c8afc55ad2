// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package service implements the moodsync business logic.
//
// On the device it provides the Operation [Journal], the [EntryLog] mutation
// entry point, the [ConflictResolver] and the [SyncEngine] that drains the
// journal against the remote store. On the server it provides the
// [RemoteSyncService] that owns the authoritative operation log and the
// [TokenService] used at the API boundary.
package service

import (
	"context"
	"time"

	"github.com/innerhue/moodsync/internal/store"
	"github.com/innerhue/moodsync/models"
)

//go:generate mockgen -destination=../mock/service_mock.go -package=mock github.com/innerhue/moodsync/internal/service RemoteSyncService,TokenService

// Journal is the append-only record of operations issued on or received by
// the device. Local operations stay pending until the remote acknowledges
// them.
type Journal interface {
	// DeviceID returns the device every local operation is issued by.
	DeviceID() string

	// NewOperation builds a local operation with a fresh OpID, the next
	// Lamport clock and the current wall clock. Version is assigned on
	// append.
	NewOperation(kind models.OperationKind, entryID string, payload *models.MoodPayload) models.Operation

	// Append validates op, journals it as pending and applies it to the
	// local store in the same transaction. Appending an OpID that is
	// already journaled is a no-op returning the same id.
	Append(ctx context.Context, op models.Operation) (string, error)

	// AppendTx is Append inside a caller-owned transaction.
	AppendTx(ctx context.Context, tx store.LocalTx, op models.Operation) (models.MoodEntry, error)

	// RecordRemote journals an operation received from the remote as
	// acknowledged and advances the device clock past it.
	RecordRemote(ctx context.Context, tx store.LocalTx, op models.Operation) error

	// PendingSince returns unacknowledged local operations ordered after
	// the cursor position, oldest first.
	PendingSince(ctx context.Context, cursor models.SyncCursor, limit int) ([]models.Operation, error)

	// MarkAcked removes operations from the pending set.
	MarkAcked(ctx context.Context, opIDs ...string) error

	// AckTx is MarkAcked inside a caller-owned transaction.
	AckTx(ctx context.Context, tx store.LocalTx, opIDs ...string) error

	Get(ctx context.Context, opID string) (models.JournaledOperation, error)
	List(ctx context.Context, query store.OperationQuery) ([]models.JournaledOperation, error)
	PendingCount(ctx context.Context) (int, error)

	// Prune deletes acknowledged records older than the retention window.
	Prune(ctx context.Context) (int, error)
}

// EntryLog is the single mutation entry point for the UI layer.
type EntryLog interface {
	Create(ctx context.Context, payload models.MoodPayload) (models.MoodEntry, error)
	Update(ctx context.Context, entryID string, payload models.MoodPayload) (models.MoodEntry, error)
	Delete(ctx context.Context, entryID string) (models.MoodEntry, error)

	Get(ctx context.Context, entryID string) (models.MoodEntry, error)
	List(ctx context.Context, filter models.EntryFilter) ([]models.MoodEntry, error)
	Snapshot(ctx context.Context) (models.Snapshot, error)

	// History returns the superseded versions of an entry, oldest first.
	History(ctx context.Context, entryID string) ([]models.SupersededRecord, error)
	// Recover re-issues the superseded version addressed by opID as a new
	// local operation.
	Recover(ctx context.Context, opID string) (models.MoodEntry, error)

	// Subscribe delivers every entry change until cancel is called.
	Subscribe(buffer int) (changes <-chan models.EntryChange, cancel func())
	// Notify publishes changes made outside the entry log.
	Notify(changes ...models.EntryChange)
}

// ConflictResolver picks the surviving version of a contested entry.
type ConflictResolver interface {
	Resolve(local, remote models.Operation) models.Resolution
}

// TriggerReason names what requested a sync cycle.
type TriggerReason string

const (
	TriggerConnectivity TriggerReason = "connectivity"
	TriggerTimer        TriggerReason = "timer"
	TriggerUser         TriggerReason = "user"
	TriggerRemoteChange TriggerReason = "remote-change"
	TriggerStartup      TriggerReason = "startup"
)

// SyncEngine drains the journal to the remote and merges remote changes
// back into the local store.
type SyncEngine interface {
	// Run serves triggers until ctx is done. At most one cycle runs at a
	// time and triggers arriving during a cycle coalesce into one more.
	Run(ctx context.Context) error
	// Trigger requests a cycle without waiting for it.
	Trigger(reason TriggerReason)
	// SyncNow runs one cycle and returns its error. It waits for a running
	// cycle to finish first.
	SyncNow(ctx context.Context) error

	// Status returns the current status.
	Status() models.SyncStatus
	// SubscribeStatus delivers every status change until cancel is called.
	SubscribeStatus(buffer int) (statuses <-chan models.SyncStatus, cancel func())
	// OnConflict registers a hook called after each resolved conflict.
	OnConflict(hook func(models.ConflictRecord))
}

// RemoteSyncService is the server side of the sync protocol.
type RemoteSyncService interface {
	Push(ctx context.Context, userID int64, req models.PushRequest) (models.PushResult, error)
	Pull(ctx context.Context, userID int64, since int64, limit int) (models.PullResult, error)
	// Subscribe delivers change notifications for one account.
	Subscribe(userID int64, buffer int) (events <-chan models.RemoteEvent, cancel func())
}

// AppInfoService reports build information of the running server.
type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
}

// TokenService issues and verifies account bearer tokens.
type TokenService interface {
	IssueToken(ctx context.Context, userID int64, ttl time.Duration) (models.Token, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}
