package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/innerhue/moodsync/models"
)

// MetaDeviceID is the metadata key holding the device identifier.
const MetaDeviceID = "device_id"

// TakeSnapshot reads the full Entry Log of the device, tombstones included.
// When withJournal is set the journal and the superseded versions are
// included as well, so that the snapshot can seed another backend.
func TakeSnapshot(ctx context.Context, r LocalReader, deviceID string, withJournal bool) (models.Snapshot, error) {
	entries, err := r.ListEntries(ctx, models.EntryFilter{IncludeDeleted: true})
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("list entries: %w", err)
	}

	cursor, err := r.GetCursor(ctx, deviceID)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("get cursor: %w", err)
	}

	snapshot := models.Snapshot{
		DeviceID: deviceID,
		TakenAt:  time.Now().UTC(),
		Entries:  entries,
		Cursor:   cursor,
	}

	if !withJournal {
		return snapshot, nil
	}

	if snapshot.Journal, err = r.ListOperations(ctx, OperationQuery{}); err != nil {
		return models.Snapshot{}, fmt.Errorf("list operations: %w", err)
	}
	if snapshot.Superseded, err = r.ListSuperseded(ctx, ""); err != nil {
		return models.Snapshot{}, fmt.Errorf("list superseded: %w", err)
	}

	return snapshot, nil
}

// Restore loads a snapshot into s in one transaction. Existing records with
// the same keys are replaced.
func Restore(ctx context.Context, s LocalStorage, snapshot models.Snapshot) error {
	return s.Update(ctx, func(tx LocalTx) error {
		if snapshot.DeviceID != "" {
			if err := tx.PutMeta(ctx, MetaDeviceID, snapshot.DeviceID); err != nil {
				return err
			}
		}
		for _, entry := range snapshot.Entries {
			if err := tx.PutEntry(ctx, entry); err != nil {
				return fmt.Errorf("restore entry %s: %w", entry.ID, err)
			}
		}
		for _, op := range snapshot.Journal {
			if err := tx.PutOperation(ctx, op); err != nil {
				return fmt.Errorf("restore operation %s: %w", op.OpID, err)
			}
		}
		for _, record := range snapshot.Superseded {
			if err := tx.PutSuperseded(ctx, record); err != nil {
				return fmt.Errorf("restore superseded %s: %w", record.OpID, err)
			}
		}
		if snapshot.Cursor.DeviceID != "" {
			if err := tx.PutCursor(ctx, snapshot.Cursor); err != nil {
				return fmt.Errorf("restore cursor: %w", err)
			}
		}
		return nil
	})
}

// LoadOrCreateDeviceID returns the persisted device identifier, generating
// and storing a new one on first use. A non-empty override is persisted when
// the store has no identifier yet and must match it otherwise.
func LoadOrCreateDeviceID(ctx context.Context, s LocalStorage, override string) (string, error) {
	var deviceID string
	err := s.Update(ctx, func(tx LocalTx) error {
		stored, err := tx.GetMeta(ctx, MetaDeviceID)
		switch {
		case err == nil:
			if override != "" && override != stored {
				return fmt.Errorf("%w: store belongs to device %q", ErrDeviceMismatch, stored)
			}
			deviceID = stored
			return nil
		case !errors.Is(err, ErrMetaNotFound):
			return err
		}

		deviceID = override
		if deviceID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			deviceID = id.String()
		}
		return tx.PutMeta(ctx, MetaDeviceID, deviceID)
	})
	if err != nil {
		return "", err
	}

	return deviceID, nil
}
