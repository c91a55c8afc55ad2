package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/innerhue/moodsync/internal/logger"
	"github.com/innerhue/moodsync/internal/store"
	"github.com/innerhue/moodsync/internal/utils"
	"github.com/innerhue/moodsync/internal/validators"
	"github.com/innerhue/moodsync/models"
)

type entryLog struct {
	store     store.LocalStorage
	journal   Journal
	validator validators.Validator
	ids       utils.IDGenerator
	changes   *broadcaster[models.EntryChange]

	logger *logger.Logger
}

// NewEntryLog returns the entry log of the device. Every mutation issues an
// operation and appends it to journal inside one local write transaction,
// so the change is durable and visible when the call returns.
func NewEntryLog(localStore store.LocalStorage, journal Journal, logger *logger.Logger) EntryLog {
	return &entryLog{
		store:     localStore,
		journal:   journal,
		validator: validators.NewOperationValidator(),
		ids:       utils.NewUUIDGenerator(),
		changes:   newBroadcaster[models.EntryChange](),
		logger:    logger,
	}
}

func (l *entryLog) Create(ctx context.Context, payload models.MoodPayload) (models.MoodEntry, error) {
	if err := l.validator.Validate(ctx, payload); err != nil {
		return models.MoodEntry{}, err
	}

	entryID := l.ids.Generate()
	return l.issue(ctx, "entryLog.Create", entryID, func(_ models.MoodEntry, exists bool) (models.OperationKind, *models.MoodPayload, error) {
		if exists {
			return "", nil, validators.NewValidationError(validators.FieldEntryID, validators.ErrEntryExists)
		}
		return models.OperationCreate, &payload, nil
	})
}

func (l *entryLog) Update(ctx context.Context, entryID string, payload models.MoodPayload) (models.MoodEntry, error) {
	if err := l.validator.Validate(ctx, payload); err != nil {
		return models.MoodEntry{}, err
	}

	return l.issue(ctx, "entryLog.Update", entryID, func(current models.MoodEntry, exists bool) (models.OperationKind, *models.MoodPayload, error) {
		switch {
		case !exists:
			return "", nil, validators.NewValidationError(validators.FieldEntryID, validators.ErrEntryMissing)
		case current.IsDeleted():
			return "", nil, validators.NewValidationError(validators.FieldEntryID, validators.ErrEntryDeleted)
		}
		return models.OperationUpdate, &payload, nil
	})
}

func (l *entryLog) Delete(ctx context.Context, entryID string) (models.MoodEntry, error) {
	return l.issue(ctx, "entryLog.Delete", entryID, func(current models.MoodEntry, exists bool) (models.OperationKind, *models.MoodPayload, error) {
		switch {
		case !exists:
			return "", nil, validators.NewValidationError(validators.FieldEntryID, validators.ErrEntryMissing)
		case current.IsDeleted():
			return "", nil, validators.NewValidationError(validators.FieldEntryID, validators.ErrEntryDeleted)
		}
		return models.OperationDelete, nil, nil
	})
}

// Recover brings back the content of a superseded version. A superseded
// tombstone is re-issued as a delete.
func (l *entryLog) Recover(ctx context.Context, opID string) (models.MoodEntry, error) {
	record, err := l.store.GetSuperseded(ctx, opID)
	if err != nil {
		return models.MoodEntry{}, fmt.Errorf("find superseded version %s: %w", opID, err)
	}

	return l.issue(ctx, "entryLog.Recover", record.EntryID, func(current models.MoodEntry, exists bool) (models.OperationKind, *models.MoodPayload, error) {
		if record.Entry.IsDeleted() {
			if exists && current.IsDeleted() {
				return "", nil, validators.NewValidationError(validators.FieldEntryID, validators.ErrEntryDeleted)
			}
			return models.OperationDelete, nil, nil
		}

		kind := models.OperationUpdate
		if !exists {
			kind = models.OperationCreate
		}
		return kind, payloadOf(record.Entry), nil
	})
}

type decideFunc func(current models.MoodEntry, exists bool) (models.OperationKind, *models.MoodPayload, error)

func (l *entryLog) issue(ctx context.Context, fn, entryID string, decide decideFunc) (models.MoodEntry, error) {
	var (
		entry models.MoodEntry
		op    models.Operation
	)

	err := l.store.Update(ctx, func(tx store.LocalTx) error {
		current, err := tx.GetEntry(ctx, entryID)
		exists := err == nil
		if err != nil && !errors.Is(err, store.ErrEntryNotFound) {
			return err
		}

		kind, payload, err := decide(current, exists)
		if err != nil {
			return err
		}

		// the clock ticks under the writer lock, so concurrent writers
		// append in clock order
		op = l.journal.NewOperation(kind, entryID, payload)
		entry, err = l.journal.AppendTx(ctx, tx, op)
		return err
	})
	if err != nil {
		if !validators.IsValidationError(err) {
			l.logger.Err(err).Str("func", fn).Str("entry_id", entryID).Msg("entry mutation failed")
		}
		return models.MoodEntry{}, err
	}

	l.logger.Debug().
		Str("func", fn).
		Str("entry_id", entryID).
		Str("op_id", op.OpID).
		Int64("version", entry.Version).
		Msg("entry changed")

	l.Notify(models.EntryChange{Entry: entry, OpID: op.OpID, Source: models.SourceLocal})
	return entry, nil
}

func (l *entryLog) Get(ctx context.Context, entryID string) (models.MoodEntry, error) {
	return l.store.GetEntry(ctx, entryID)
}

func (l *entryLog) List(ctx context.Context, filter models.EntryFilter) ([]models.MoodEntry, error) {
	return l.store.ListEntries(ctx, filter)
}

func (l *entryLog) Snapshot(ctx context.Context) (models.Snapshot, error) {
	return store.TakeSnapshot(ctx, l.store, l.journal.DeviceID(), false)
}

func (l *entryLog) History(ctx context.Context, entryID string) ([]models.SupersededRecord, error) {
	return l.store.ListSuperseded(ctx, entryID)
}

func (l *entryLog) Subscribe(buffer int) (<-chan models.EntryChange, func()) {
	return l.changes.subscribe(buffer)
}

func (l *entryLog) Notify(changes ...models.EntryChange) {
	for _, change := range changes {
		if dropped := l.changes.publish(change); dropped > 0 {
			l.logger.Warn().
				Str("func", "entryLog.Notify").
				Str("entry_id", change.Entry.ID).
				Int("dropped", dropped).
				Msg("slow subscribers missed an entry change")
		}
	}
}

func payloadOf(entry models.MoodEntry) *models.MoodPayload {
	payload := &models.MoodPayload{Emotion: entry.Emotion, Category: entry.Category}
	if entry.Note != nil {
		note := *entry.Note
		payload.Note = &note
	}
	return payload
}
