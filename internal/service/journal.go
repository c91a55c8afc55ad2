package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/innerhue/moodsync/internal/clock"
	"github.com/innerhue/moodsync/internal/logger"
	"github.com/innerhue/moodsync/internal/store"
	"github.com/innerhue/moodsync/internal/utils"
	"github.com/innerhue/moodsync/internal/validators"
	"github.com/innerhue/moodsync/models"
)

type journal struct {
	store     store.LocalStorage
	deviceID  string
	clock     *clock.Lamport
	validator validators.Validator
	ids       utils.IDGenerator
	retention time.Duration
	now       func() time.Time

	logger *logger.Logger
}

// NewJournal returns the operation journal of deviceID backed by
// localStore. The Lamport clock is seeded from the highest clock the store
// has seen, so operations issued after a restart order after everything
// journaled before it.
func NewJournal(ctx context.Context, localStore store.LocalStorage, deviceID string, retention time.Duration, logger *logger.Logger) (Journal, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("%w: empty device id", ErrInvalidDataProvided)
	}

	last, err := localStore.LastClock(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("read clock watermark: %w", err)
	}

	return &journal{
		store:     localStore,
		deviceID:  deviceID,
		clock:     clock.NewLamport(last),
		validator: validators.NewOperationValidator(),
		ids:       utils.NewUUIDGenerator(),
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}, nil
}

func (j *journal) DeviceID() string {
	return j.deviceID
}

func (j *journal) NewOperation(kind models.OperationKind, entryID string, payload *models.MoodPayload) models.Operation {
	return models.Operation{
		OpID:           j.ids.Generate(),
		EntryID:        entryID,
		Kind:           kind,
		Payload:        payload,
		OriginDeviceID: j.deviceID,
		LogicalClock:   j.clock.Tick(),
		WallClock:      j.now(),
	}
}

func (j *journal) Append(ctx context.Context, op models.Operation) (string, error) {
	err := j.store.Update(ctx, func(tx store.LocalTx) error {
		_, err := j.AppendTx(ctx, tx, op)
		return err
	})
	if err != nil {
		j.logger.Err(err).
			Str("func", "journal.Append").
			Str("op_id", op.OpID).
			Str("entry_id", op.EntryID).
			Msg("operation was not journaled")
		return "", err
	}

	return op.OpID, nil
}

func (j *journal) AppendTx(ctx context.Context, tx store.LocalTx, op models.Operation) (models.MoodEntry, error) {
	if err := j.validator.Validate(ctx, op); err != nil {
		return models.MoodEntry{}, err
	}
	if op.OriginDeviceID != j.deviceID {
		return models.MoodEntry{}, validators.NewValidationError(validators.FieldOriginDeviceID, validators.ErrForeignOperation)
	}

	existing, err := tx.GetOperation(ctx, op.OpID)
	switch {
	case err == nil:
		entry, err := tx.GetEntry(ctx, existing.EntryID)
		if err != nil && !errors.Is(err, store.ErrEntryNotFound) {
			return models.MoodEntry{}, err
		}
		return entry, nil
	case !errors.Is(err, store.ErrOperationNotFound):
		return models.MoodEntry{}, err
	}

	last, err := tx.LastClock(ctx, j.deviceID)
	if err != nil {
		return models.MoodEntry{}, err
	}
	if op.LogicalClock <= last {
		return models.MoodEntry{}, validators.NewValidationError(validators.FieldLogicalClock, validators.ErrStaleLogicalClock)
	}

	if op.Version == 0 {
		current, err := tx.GetEntry(ctx, op.EntryID)
		if err != nil && !errors.Is(err, store.ErrEntryNotFound) {
			return models.MoodEntry{}, err
		}
		op.BaseVersion = current.Version
		op.Version = current.Version + 1
	}

	record := models.JournaledOperation{Operation: op, Pending: true, JournaledAt: j.now()}
	if err = tx.PutOperation(ctx, record); err != nil {
		return models.MoodEntry{}, fmt.Errorf("journal operation: %w", err)
	}

	entry, _, err := store.ApplyOperation(ctx, tx, op)
	if err != nil {
		return models.MoodEntry{}, fmt.Errorf("apply operation: %w", err)
	}

	j.clock.Observe(op.LogicalClock)
	return entry, nil
}

func (j *journal) RecordRemote(ctx context.Context, tx store.LocalTx, op models.Operation) error {
	defer j.clock.Observe(op.LogicalClock)

	_, err := tx.GetOperation(ctx, op.OpID)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, store.ErrOperationNotFound):
		return err
	}

	now := j.now()
	return tx.PutOperation(ctx, models.JournaledOperation{Operation: op, JournaledAt: now, AckedAt: &now})
}

func (j *journal) PendingSince(ctx context.Context, cursor models.SyncCursor, limit int) ([]models.Operation, error) {
	records, err := j.store.ListOperations(ctx, store.OperationQuery{
		PendingOnly: true,
		AfterClock:  cursor.LastAckedClock,
		Limit:       limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list pending operations: %w", err)
	}

	ops := make([]models.Operation, 0, len(records))
	for _, record := range records {
		if record.OriginDeviceID != j.deviceID {
			continue
		}
		ops = append(ops, record.Operation)
	}
	return ops, nil
}

func (j *journal) MarkAcked(ctx context.Context, opIDs ...string) error {
	if len(opIDs) == 0 {
		return nil
	}
	return j.store.Update(ctx, func(tx store.LocalTx) error {
		return j.AckTx(ctx, tx, opIDs...)
	})
}

func (j *journal) AckTx(ctx context.Context, tx store.LocalTx, opIDs ...string) error {
	if len(opIDs) == 0 {
		return nil
	}
	return tx.AckOperations(ctx, j.now(), opIDs...)
}

func (j *journal) Get(ctx context.Context, opID string) (models.JournaledOperation, error) {
	return j.store.GetOperation(ctx, opID)
}

func (j *journal) List(ctx context.Context, query store.OperationQuery) ([]models.JournaledOperation, error) {
	return j.store.ListOperations(ctx, query)
}

func (j *journal) PendingCount(ctx context.Context) (int, error) {
	return j.store.CountPending(ctx)
}

// Prune is disabled by a non-positive retention window.
func (j *journal) Prune(ctx context.Context) (int, error) {
	if j.retention <= 0 {
		return 0, nil
	}

	cutoff := j.now().Add(-j.retention)
	var pruned int
	err := j.store.Update(ctx, func(tx store.LocalTx) error {
		var err error
		pruned, err = tx.PruneOperations(ctx, cutoff)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune journal: %w", err)
	}

	if pruned > 0 {
		j.logger.Info().Str("func", "journal.Prune").Int("pruned", pruned).Time("cutoff", cutoff).Msg("journal pruned")
	}
	return pruned, nil
}
