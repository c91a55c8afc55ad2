// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// SyncCursor is the per-device watermark owned by the sync engine.
//
// LastAckedOpID (with its clock, kept for restarts after the operation
// record was pruned) marks the newest operation the remote acknowledged.
// LastPulledRemoteClock is the remote clock of the newest operation applied
// from the pull path. Both fields only move forward.
type SyncCursor struct {
	DeviceID              string    `json:"device_id"`
	LastAckedOpID         string    `json:"last_acked_op_id,omitempty"`
	LastAckedClock        int64     `json:"last_acked_clock,omitempty"`
	LastPulledRemoteClock int64     `json:"last_pulled_remote_clock"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// PushRequest is the body of a push call to the remote.
type PushRequest struct {
	DeviceID   string      `json:"device_id"`
	Operations []Operation `json:"operations"`
}

// PushConflict reports an operation the remote refused because the entry
// already moved past the operation's BaseVersion.
type PushConflict struct {
	OpID          string     `json:"op_id"`
	EntryID       string     `json:"entry_id"`
	RemoteVersion int64      `json:"remote_version"`
	Remote        *Operation `json:"remote,omitempty"`
}

// PushResult is the remote's answer to a push.
type PushResult struct {
	Accepted  []string       `json:"accepted"`
	Conflicts []PushConflict `json:"conflicts"`
}

// PullResult is one page of remote operations with RemoteClock greater than
// the requested clock, ordered by RemoteClock.
type PullResult struct {
	Operations []Operation `json:"operations"`
	NextClock  int64       `json:"next_clock"`
	HasMore    bool        `json:"has_more"`
}

// SyncState is the coarse state of the device sync loop.
type SyncState string

const (
	SyncStateIdle    SyncState = "idle"
	SyncStateRunning SyncState = "running"
	SyncStateBackoff SyncState = "backoff"
	SyncStateFailed  SyncState = "failed"
)

// SyncStatus is published on the status channel after every state change.
// NotSynced turns on once consecutive transient failures reach the
// configured visibility threshold and stays on until a cycle succeeds.
type SyncStatus struct {
	State               SyncState  `json:"state"`
	LastSyncAt          *time.Time `json:"last_sync_at,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	NotSynced           bool       `json:"not_synced"`
	Pending             int        `json:"pending"`
	LastError           string     `json:"last_error,omitempty"`
}

// RemoteEvent is sent on the remote change feed after the remote accepted
// new operations for an account.
type RemoteEvent struct {
	Type  string `json:"type"`
	Clock int64  `json:"clock"`
}

// RemoteEventOperations is the RemoteEvent type for newly accepted operations.
const RemoteEventOperations = "ops"
