// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// MoodEntry is one logical mood record in the Entry Log. It is the unit of
// synchronization: every mutation replaces the whole entry and bumps Version.
//
// ID is assigned on the device that created the entry and never changes.
// A non-nil DeletedAt marks the entry as a tombstone. Tombstones are kept in
// storage so that deletes propagate to every device and can later be revoked
// by a newer update.
type MoodEntry struct {
	// ID is the client-assigned, globally unique entry identifier (UUIDv7).
	ID string `json:"id"`

	// Emotion is the emotion label picked by the user (e.g. "calm").
	Emotion string `json:"emotion"`

	// Note is the optional free-text note attached to the entry.
	Note *string `json:"note,omitempty"`

	// Category is the user-defined category tag (e.g. "work").
	Category string `json:"category"`

	// CreatedAt is the wall-clock time of the operation that created the entry.
	CreatedAt time.Time `json:"created_at"`

	// CreatedClock is the logical clock of the operation that created the entry.
	CreatedClock int64 `json:"created_clock"`

	// UpdatedAt is the wall-clock time of the operation that produced the
	// current state.
	UpdatedAt time.Time `json:"updated_at"`

	// DeletedAt is set when the entry is a tombstone.
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	// Version is the monotonic per-entry counter.
	Version int64 `json:"version"`

	// LastOpID is the operation that produced the current state.
	LastOpID string `json:"last_op_id"`

	// UpdatedBy is the device that issued LastOpID.
	UpdatedBy string `json:"updated_by"`
}

// IsDeleted reports whether the entry is a tombstone.
func (e MoodEntry) IsDeleted() bool {
	return e.DeletedAt != nil
}

// MoodPayload is the full-state content carried by create and update
// operations. Every field is sent on every mutation, so applying a payload
// never depends on the previous state of the entry.
type MoodPayload struct {
	Emotion  string  `json:"emotion"`
	Note     *string `json:"note,omitempty"`
	Category string  `json:"category"`
}

// EntryFilter narrows the result of a local entry listing.
// Zero values mean "no restriction".
type EntryFilter struct {
	// Category keeps only entries with the given category tag.
	Category string `json:"category,omitempty"`

	// Emotion keeps only entries with the given emotion label.
	Emotion string `json:"emotion,omitempty"`

	// Since keeps only entries updated at or after the given time.
	Since *time.Time `json:"since,omitempty"`

	// IncludeDeleted returns tombstones as well.
	IncludeDeleted bool `json:"include_deleted,omitempty"`

	// Limit caps the number of returned entries; 0 means unlimited.
	Limit int `json:"limit,omitempty"`
}

// Match reports whether entry satisfies the filter (Limit is not considered).
func (f EntryFilter) Match(entry MoodEntry) bool {
	if !f.IncludeDeleted && entry.IsDeleted() {
		return false
	}
	if f.Category != "" && entry.Category != f.Category {
		return false
	}
	if f.Emotion != "" && entry.Emotion != f.Emotion {
		return false
	}
	if f.Since != nil && entry.UpdatedAt.Before(*f.Since) {
		return false
	}
	return true
}

// Snapshot is the full Entry Log of a device, tombstones included.
// It is used to bootstrap another store backend or to export data.
// Journal and Superseded are optional; they are filled when the snapshot is
// taken for a backend migration so that unsent operations survive the move.
type Snapshot struct {
	DeviceID   string               `json:"device_id"`
	TakenAt    time.Time            `json:"taken_at"`
	Entries    []MoodEntry          `json:"entries"`
	Cursor     SyncCursor           `json:"cursor"`
	Journal    []JournaledOperation `json:"journal,omitempty"`
	Superseded []SupersededRecord   `json:"superseded,omitempty"`
}
