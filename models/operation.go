// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"strings"
	"time"
)

// OperationKind enumerates the mutations an Operation may describe.
type OperationKind string

const (
	OperationCreate OperationKind = "create"
	OperationUpdate OperationKind = "update"
	OperationDelete OperationKind = "delete"
)

// Valid reports whether k is one of the known operation kinds.
func (k OperationKind) Valid() bool {
	switch k {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	}
	return false
}

// Operation is an immutable record of one mutation of a MoodEntry.
//
// Operations are totally ordered by (LogicalClock, OriginDeviceID).
// Version is the entry version the operation produces and BaseVersion the
// version it was issued against; the remote uses BaseVersion to detect
// concurrent writers. RemoteClock is assigned by the remote when the
// operation is accepted and is zero for operations that never left the device.
type Operation struct {
	OpID           string        `json:"op_id"`
	EntryID        string        `json:"entry_id"`
	Kind           OperationKind `json:"kind"`
	Payload        *MoodPayload  `json:"payload,omitempty"`
	OriginDeviceID string        `json:"origin_device_id"`
	LogicalClock   int64         `json:"logical_clock"`
	WallClock      time.Time     `json:"wall_clock"`
	Version        int64         `json:"version"`
	BaseVersion    int64         `json:"base_version"`
	RemoteClock    int64         `json:"remote_clock,omitempty"`
}

// Before reports whether o is ordered strictly before other by
// (LogicalClock, OriginDeviceID). OpID breaks the remaining tie so that the
// order stays total even for malformed input.
func (o Operation) Before(other Operation) bool {
	return CompareOrder(o, other) < 0
}

// CompareOrder compares a and b by (LogicalClock, OriginDeviceID, OpID) and
// returns -1, 0 or +1.
func CompareOrder(a, b Operation) int {
	switch {
	case a.LogicalClock < b.LogicalClock:
		return -1
	case a.LogicalClock > b.LogicalClock:
		return 1
	}
	if c := strings.Compare(a.OriginDeviceID, b.OriginDeviceID); c != 0 {
		return c
	}
	return strings.Compare(a.OpID, b.OpID)
}

// IsDelete reports whether the operation turns the entry into a tombstone.
func (o Operation) IsDelete() bool {
	return o.Kind == OperationDelete
}

// JournaledOperation is the device-local envelope around an Operation.
// Pending operations have not been acknowledged by the remote yet.
type JournaledOperation struct {
	Operation

	Pending     bool       `json:"pending"`
	JournaledAt time.Time  `json:"journaled_at"`
	AckedAt     *time.Time `json:"acked_at,omitempty"`
}
