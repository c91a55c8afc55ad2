// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// ConflictSide names one of the two competing versions of an entry.
type ConflictSide string

const (
	SideLocal  ConflictSide = "local"
	SideRemote ConflictSide = "remote"
)

// Resolution is the outcome of comparing two competing operations.
type Resolution struct {
	Winner ConflictSide `json:"winner"`
	Reason string       `json:"reason"`
}

// ConflictRecord describes one resolved conflict. It lives only for the
// duration of the resolution and is handed to observers and the log.
type ConflictRecord struct {
	EntryID    string     `json:"entry_id"`
	Local      Operation  `json:"local"`
	Remote     Operation  `json:"remote"`
	Resolution Resolution `json:"resolution"`
	ResolvedAt time.Time  `json:"resolved_at"`
}

// SupersededRecord keeps the losing version of a conflict so that it can be
// inspected or recovered. It is addressed by the OpID of the operation that
// produced the losing state.
type SupersededRecord struct {
	OpID             string    `json:"op_id"`
	EntryID          string    `json:"entry_id"`
	Entry            MoodEntry `json:"entry"`
	SupersededByOpID string    `json:"superseded_by_op_id"`
	SupersededAt     time.Time `json:"superseded_at"`
	Reason           string    `json:"reason"`
}

// EntrySource tells subscribers where an entry change came from.
type EntrySource string

const (
	SourceLocal    EntrySource = "local"
	SourceRemote   EntrySource = "remote"
	SourceResolved EntrySource = "resolved"
)

// EntryChange is delivered to Entry Log subscribers after an entry changed.
type EntryChange struct {
	Entry  MoodEntry   `json:"entry"`
	OpID   string      `json:"op_id"`
	Source EntrySource `json:"source"`
}
