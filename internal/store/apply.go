// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"errors"

	"github.com/innerhue/moodsync/models"
)

// ApplyOperation is the single apply path for local and remote operations.
//
// Versioning is whole-entry: an operation whose Version is not greater than
// the stored version is a no-op, which makes re-applying any operation
// harmless. An update or delete for an unknown entry materializes it.
// The returned flag reports whether the stored entry changed.
func ApplyOperation(ctx context.Context, tx LocalTx, op models.Operation) (models.MoodEntry, bool, error) {
	current, exists, err := lookupEntry(ctx, tx, op.EntryID)
	if err != nil {
		return models.MoodEntry{}, false, err
	}

	if exists && op.Version <= current.Version {
		return current, false, nil
	}

	next := Materialize(current, exists, op)
	if err := tx.PutEntry(ctx, next); err != nil {
		return models.MoodEntry{}, false, err
	}

	return next, true, nil
}

// InstallOperation writes the state produced by op regardless of the stored
// version. It is used when the remote version of an entry won a conflict
// against local versions the remote never acknowledged.
func InstallOperation(ctx context.Context, tx LocalTx, op models.Operation) (models.MoodEntry, error) {
	current, exists, err := lookupEntry(ctx, tx, op.EntryID)
	if err != nil {
		return models.MoodEntry{}, err
	}

	next := Materialize(current, exists, op)
	if err := tx.PutEntry(ctx, next); err != nil {
		return models.MoodEntry{}, err
	}

	return next, nil
}

// Materialize returns the entry state after op on top of current.
// Payloads carry the full state, so only CreatedAt survives from current.
// A delete keeps the last content on the tombstone.
func Materialize(current models.MoodEntry, exists bool, op models.Operation) models.MoodEntry {
	next := current
	if !exists {
		next = models.MoodEntry{
			ID:           op.EntryID,
			CreatedAt:    op.WallClock,
			CreatedClock: op.LogicalClock,
		}
	}

	switch op.Kind {
	case models.OperationDelete:
		deletedAt := op.WallClock
		next.DeletedAt = &deletedAt
	default:
		if op.Payload != nil {
			next.Emotion = op.Payload.Emotion
			next.Category = op.Payload.Category
			next.Note = copyNote(op.Payload.Note)
		}
		next.DeletedAt = nil
	}

	next.Version = op.Version
	next.UpdatedAt = op.WallClock
	next.LastOpID = op.OpID
	next.UpdatedBy = op.OriginDeviceID

	return next
}

func lookupEntry(ctx context.Context, r LocalReader, entryID string) (models.MoodEntry, bool, error) {
	entry, err := r.GetEntry(ctx, entryID)
	if errors.Is(err, ErrEntryNotFound) {
		return models.MoodEntry{}, false, nil
	}
	if err != nil {
		return models.MoodEntry{}, false, err
	}
	return entry, true, nil
}

func copyNote(note *string) *string {
	if note == nil {
		return nil
	}
	v := *note
	return &v
}
