package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/innerhue/moodsync/internal/adapter"
	"github.com/innerhue/moodsync/internal/config"
	"github.com/innerhue/moodsync/internal/logger"
	"github.com/innerhue/moodsync/internal/store"
	"github.com/innerhue/moodsync/internal/validators"
	"github.com/innerhue/moodsync/models"
)

// entryNotifier receives entry changes made by the engine.
type entryNotifier interface {
	Notify(changes ...models.EntryChange)
}

type syncEngine struct {
	store     store.LocalStorage
	journal   Journal
	remote    adapter.RemoteStore
	resolver  ConflictResolver
	notifier  entryNotifier
	validator validators.Validator
	cfg       config.Sync

	cycleMu sync.Mutex
	trigger chan TriggerReason

	statusMu sync.RWMutex
	status   models.SyncStatus
	statuses *broadcaster[models.SyncStatus]

	hookMu sync.RWMutex
	hooks  []func(models.ConflictRecord)

	now    func() time.Time
	logger *logger.Logger
}

// NewSyncEngine returns the sync engine of the device owning journal.
// Entry changes produced by pulls and conflict resolution are published
// through notifier.
func NewSyncEngine(localStore store.LocalStorage, journal Journal, remote adapter.RemoteStore, notifier entryNotifier, cfg config.Sync, logger *logger.Logger) SyncEngine {
	return &syncEngine{
		store:     localStore,
		journal:   journal,
		remote:    remote,
		resolver:  NewConflictResolver(),
		notifier:  notifier,
		validator: validators.NewOperationValidator(),
		cfg:       cfg,
		trigger:   make(chan TriggerReason, 1),
		status:    models.SyncStatus{State: models.SyncStateIdle},
		statuses:  newBroadcaster[models.SyncStatus](),
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger.WithDevice(journal.DeviceID()),
	}
}

func (e *syncEngine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case reason := <-e.trigger:
			if err := e.sync(ctx, reason); err != nil && ctx.Err() == nil {
				e.logger.Err(err).
					Str("func", "syncEngine.Run").
					Str("trigger", string(reason)).
					Msg("sync cycle failed")
			}
		}
	}
}

// Trigger never blocks. With one cycle already queued the request is
// folded into it.
func (e *syncEngine) Trigger(reason TriggerReason) {
	select {
	case e.trigger <- reason:
	default:
	}
}

func (e *syncEngine) SyncNow(ctx context.Context) error {
	return e.sync(ctx, TriggerUser)
}

func (e *syncEngine) sync(ctx context.Context, reason TriggerReason) error {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	started := e.now()
	e.updateStatus(func(s *models.SyncStatus) { s.State = models.SyncStateRunning })

	err := e.push(ctx)
	if err == nil {
		err = e.pull(ctx)
	}

	e.finishCycle(ctx, err)

	e.logger.Debug().
		Str("func", "syncEngine.sync").
		Str("trigger", string(reason)).
		Dur("took", e.now().Sub(started)).
		AnErr("result", err).
		Msg("sync cycle finished")
	return err
}

// push drains the pending set batch by batch. Cancellation is checked only
// between batches.
func (e *syncEngine) push(ctx context.Context) error {
	deviceID := e.journal.DeviceID()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		cursor, err := e.store.GetCursor(ctx, deviceID)
		if err != nil {
			return fmt.Errorf("read sync cursor: %w", err)
		}

		batch, err := e.journal.PendingSince(ctx, cursor, e.batchSize())
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		var result models.PushResult
		err = e.withRetry(ctx, "push", func(ctx context.Context) error {
			var err error
			result, err = e.remote.PushOperations(ctx, models.PushRequest{DeviceID: deviceID, Operations: batch})
			return err
		})
		if err != nil {
			return err
		}

		if err = e.commitPush(ctx, batch, result); err != nil {
			return err
		}
	}
}

func (e *syncEngine) commitPush(ctx context.Context, batch []models.Operation, result models.PushResult) error {
	conflicts, err := e.checkPushResult(ctx, batch, result)
	if err != nil {
		return err
	}

	var (
		changes []models.EntryChange
		records []models.ConflictRecord
	)

	// a received result is committed in full even if ctx is canceled
	txCtx := context.WithoutCancel(ctx)
	err = e.store.Update(txCtx, func(tx store.LocalTx) error {
		changes, records = nil, nil

		if err := e.journal.AckTx(txCtx, tx, result.Accepted...); err != nil {
			return fmt.Errorf("ack accepted operations: %w", err)
		}

		for _, conflict := range conflicts {
			change, record, err := e.resolveConflict(txCtx, tx, conflict)
			if err != nil {
				return fmt.Errorf("resolve conflict on entry %s: %w", conflict.EntryID, err)
			}
			if record == nil {
				continue
			}
			changes = append(changes, change)
			records = append(records, *record)
		}

		last := batch[len(batch)-1]
		return e.advanceAcked(txCtx, tx, last)
	})
	if err != nil {
		e.logger.Err(err).Str("func", "syncEngine.commitPush").Int("batch_size", len(batch)).Msg("push result was not committed")
		return err
	}

	e.logger.Info().
		Str("func", "syncEngine.commitPush").
		Int("batch_size", len(batch)).
		Int("accepted", len(result.Accepted)).
		Int("conflicts", len(records)).
		Msg("batch pushed")

	e.notifier.Notify(changes...)
	e.fireConflictHooks(records)
	return nil
}

// checkPushResult makes sure every pushed operation is accounted for and
// returns one conflict per entry, in batch order.
func (e *syncEngine) checkPushResult(ctx context.Context, batch []models.Operation, result models.PushResult) ([]models.PushConflict, error) {
	accounted := make(map[string]bool, len(batch))
	for _, opID := range result.Accepted {
		accounted[opID] = true
	}

	byEntry := make(map[string]models.PushConflict, len(result.Conflicts))
	for _, conflict := range result.Conflicts {
		accounted[conflict.OpID] = true

		if conflict.Remote == nil {
			return nil, &SyncError{Kind: SyncErrorRejected, Err: fmt.Errorf("%w: %s", ErrIncompleteConflict, conflict.OpID)}
		}
		fields := append([]string{validators.FieldAssignedVersion}, defaultPulledFields...)
		if err := e.validator.Validate(ctx, *conflict.Remote, fields...); err != nil {
			return nil, fmt.Errorf("remote operation %s: %w", conflict.Remote.OpID, err)
		}
		if conflict.EntryID == "" {
			conflict.EntryID = conflict.Remote.EntryID
		}

		e.logger.Debug().Err(&ConflictError{EntryID: conflict.EntryID, OpID: conflict.OpID, RemoteVersion: conflict.RemoteVersion}).
			Str("func", "syncEngine.checkPushResult").
			Msg("push conflict")

		if prev, ok := byEntry[conflict.EntryID]; !ok || conflict.RemoteVersion > prev.RemoteVersion {
			byEntry[conflict.EntryID] = conflict
		}
	}

	ordered := make([]models.PushConflict, 0, len(byEntry))
	for _, op := range batch {
		if !accounted[op.OpID] {
			return nil, &SyncError{Kind: SyncErrorRejected, Err: fmt.Errorf("%w: %s", ErrUnaccountedOperation, op.OpID)}
		}
		if conflict, ok := byEntry[op.EntryID]; ok {
			ordered = append(ordered, conflict)
			delete(byEntry, op.EntryID)
		}
	}
	return ordered, nil
}

// resolveConflict settles one contested entry. The newest pending local
// operation of the entry competes with the remote head and every pending
// local operation of the entry leaves the pending set. When the remote wins,
// each of those local operations is kept as a superseded record; when the
// local side wins, the remote head is. A nil record means there was nothing
// left to resolve.
func (e *syncEngine) resolveConflict(ctx context.Context, tx store.LocalTx, conflict models.PushConflict) (models.EntryChange, *models.ConflictRecord, error) {
	remote := *conflict.Remote

	pending, err := tx.ListOperations(ctx, store.OperationQuery{EntryID: conflict.EntryID, PendingOnly: true})
	if err != nil {
		return models.EntryChange{}, nil, err
	}

	var (
		local      models.Operation
		localOps   []models.Operation
		pendingIDs []string
	)
	for _, record := range pending {
		if record.OriginDeviceID != e.journal.DeviceID() {
			continue
		}
		local = record.Operation
		localOps = append(localOps, record.Operation)
		pendingIDs = append(pendingIDs, record.OpID)
	}
	if len(pendingIDs) == 0 {
		return models.EntryChange{}, nil, nil
	}

	current, err := tx.GetEntry(ctx, conflict.EntryID)
	exists := err == nil
	if err != nil && !errors.Is(err, store.ErrEntryNotFound) {
		return models.EntryChange{}, nil, err
	}

	now := e.now()
	resolution := e.resolver.Resolve(local, remote)
	record := &models.ConflictRecord{
		EntryID:    conflict.EntryID,
		Local:      local,
		Remote:     remote,
		Resolution: resolution,
		ResolvedAt: now,
	}

	if err = e.journal.AckTx(ctx, tx, pendingIDs...); err != nil {
		return models.EntryChange{}, nil, err
	}
	if err = e.journal.RecordRemote(ctx, tx, remote); err != nil {
		return models.EntryChange{}, nil, err
	}

	if resolution.Winner == models.SideRemote {
		for _, op := range localOps {
			loser := models.SupersededRecord{
				OpID:             op.OpID,
				EntryID:          conflict.EntryID,
				Entry:            store.Materialize(current, exists, op),
				SupersededByOpID: remote.OpID,
				SupersededAt:     now,
				Reason:           resolution.Reason,
			}
			if err = tx.PutSuperseded(ctx, loser); err != nil {
				return models.EntryChange{}, nil, err
			}
		}

		entry, err := store.InstallOperation(ctx, tx, remote)
		if err != nil {
			return models.EntryChange{}, nil, err
		}
		return models.EntryChange{Entry: entry, OpID: remote.OpID, Source: models.SourceResolved}, record, nil
	}

	rebased := e.rebase(local, remote, conflict.RemoteVersion, current.Version)
	loser := models.SupersededRecord{
		OpID:             remote.OpID,
		EntryID:          conflict.EntryID,
		Entry:            store.Materialize(current, exists, remote),
		SupersededByOpID: rebased.OpID,
		SupersededAt:     now,
		Reason:           resolution.Reason,
	}
	if err = tx.PutSuperseded(ctx, loser); err != nil {
		return models.EntryChange{}, nil, err
	}

	entry, err := e.journal.AppendTx(ctx, tx, rebased)
	if err != nil {
		return models.EntryChange{}, nil, fmt.Errorf("journal rebased operation: %w", err)
	}
	return models.EntryChange{Entry: entry, OpID: rebased.OpID, Source: models.SourceResolved}, record, nil
}

// rebase re-issues the winning local state on top of the remote head. The
// new operation keeps the content and the wall clock of local so that the
// resolution stays stable on every device.
func (e *syncEngine) rebase(local, remote models.Operation, remoteVersion, localVersion int64) models.Operation {
	if remote.Version > remoteVersion {
		remoteVersion = remote.Version
	}

	kind := models.OperationUpdate
	var payload *models.MoodPayload
	if local.IsDelete() {
		kind = models.OperationDelete
	} else if local.Payload != nil {
		p := *local.Payload
		payload = &p
	}

	op := e.journal.NewOperation(kind, local.EntryID, payload)
	op.WallClock = local.WallClock
	op.BaseVersion = remoteVersion
	op.Version = max(remoteVersion, localVersion) + 1
	return op
}

func (e *syncEngine) advanceAcked(ctx context.Context, tx store.LocalTx, last models.Operation) error {
	cursor, err := tx.GetCursor(ctx, e.journal.DeviceID())
	if err != nil {
		return err
	}
	if last.LogicalClock <= cursor.LastAckedClock {
		return nil
	}

	cursor.DeviceID = e.journal.DeviceID()
	cursor.LastAckedOpID = last.OpID
	cursor.LastAckedClock = last.LogicalClock
	cursor.UpdatedAt = e.now()
	return tx.PutCursor(ctx, cursor)
}

var defaultPulledFields = []string{
	validators.FieldOpID,
	validators.FieldEntryID,
	validators.FieldKind,
	validators.FieldOriginDeviceID,
	validators.FieldLogicalClock,
	validators.FieldWallClock,
	validators.FieldPayload,
	validators.FieldVersion,
}

// pull applies remote operations page by page. A page is applied in one
// local transaction together with the watermark, so it is either fully
// applied or not at all.
func (e *syncEngine) pull(ctx context.Context) error {
	deviceID := e.journal.DeviceID()
	fields := append([]string{validators.FieldAssignedVersion}, defaultPulledFields...)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		cursor, err := e.store.GetCursor(ctx, deviceID)
		if err != nil {
			return fmt.Errorf("read sync cursor: %w", err)
		}

		var result models.PullResult
		err = e.withRetry(ctx, "pull", func(ctx context.Context) error {
			var err error
			result, err = e.remote.PullOperations(ctx, cursor.LastPulledRemoteClock, e.batchSize())
			return err
		})
		if err != nil {
			return err
		}

		for _, op := range result.Operations {
			if err = e.validator.Validate(ctx, op, fields...); err != nil {
				e.logger.Err(err).
					Str("func", "syncEngine.pull").
					Str("op_id", op.OpID).
					Int64("since", cursor.LastPulledRemoteClock).
					Msg("pulled batch refused")
				return fmt.Errorf("pulled operation %s: %w", op.OpID, err)
			}
		}

		if len(result.Operations) > 0 || result.NextClock > cursor.LastPulledRemoteClock {
			if err = e.commitPull(ctx, result); err != nil {
				return err
			}
		}

		if !result.HasMore || len(result.Operations) == 0 {
			return nil
		}
	}
}

func (e *syncEngine) commitPull(ctx context.Context, result models.PullResult) error {
	ops := append([]models.Operation(nil), result.Operations...)
	sort.SliceStable(ops, func(i, j int) bool { return ops[i].RemoteClock < ops[j].RemoteClock })

	deviceID := e.journal.DeviceID()
	var changes []models.EntryChange

	txCtx := context.WithoutCancel(ctx)
	err := e.store.Update(txCtx, func(tx store.LocalTx) error {
		changes = nil

		cursor, err := tx.GetCursor(txCtx, deviceID)
		if err != nil {
			return err
		}
		watermark := max(cursor.LastPulledRemoteClock, result.NextClock)

		for _, op := range ops {
			if err = e.journal.RecordRemote(txCtx, tx, op); err != nil {
				return fmt.Errorf("journal remote operation %s: %w", op.OpID, err)
			}

			entry, changed, err := store.ApplyOperation(txCtx, tx, op)
			if err != nil {
				return fmt.Errorf("apply remote operation %s: %w", op.OpID, err)
			}
			if changed && op.OriginDeviceID != deviceID {
				changes = append(changes, models.EntryChange{Entry: entry, OpID: op.OpID, Source: models.SourceRemote})
			}
			watermark = max(watermark, op.RemoteClock)
		}

		cursor.DeviceID = deviceID
		cursor.LastPulledRemoteClock = watermark
		cursor.UpdatedAt = e.now()
		return tx.PutCursor(txCtx, cursor)
	})
	if err != nil {
		e.logger.Err(err).Str("func", "syncEngine.commitPull").Int("batch_size", len(ops)).Msg("pulled batch was not committed")
		return err
	}

	e.logger.Info().
		Str("func", "syncEngine.commitPull").
		Int("batch_size", len(ops)).
		Int("changed", len(changes)).
		Msg("batch pulled")

	e.notifier.Notify(changes...)
	return nil
}

// withRetry runs call until it succeeds, fails with a non-transient error
// or the backoff gives up. Transient failures are reported on the status
// channel only.
func (e *syncEngine) withRetry(ctx context.Context, op string, call func(ctx context.Context) error) error {
	var attempt int
	return retry.Do(ctx, newBackoff(e.cfg), func(ctx context.Context) error {
		attempt++
		err := mapAdapterError(call(ctx))
		if err == nil {
			if attempt > 1 {
				e.updateStatus(func(s *models.SyncStatus) { s.State = models.SyncStateRunning })
			}
			return nil
		}
		if !isRetryable(err) {
			return err
		}

		failures := e.recordTransient(err)
		e.logger.Warn().
			Err(err).
			Str("func", "syncEngine.withRetry").
			Str("call", op).
			Int("attempt", attempt).
			Int("consecutive_failures", failures).
			Msg("remote call failed, retrying")
		return retry.RetryableError(err)
	})
}

func (e *syncEngine) recordTransient(err error) int {
	var failures int
	e.updateStatus(func(s *models.SyncStatus) {
		s.State = models.SyncStateBackoff
		s.ConsecutiveFailures++
		s.LastError = err.Error()
		if e.cfg.NotSyncedThreshold > 0 && s.ConsecutiveFailures >= e.cfg.NotSyncedThreshold {
			s.NotSynced = true
		}
		failures = s.ConsecutiveFailures
	})
	return failures
}

func (e *syncEngine) finishCycle(ctx context.Context, err error) {
	pending, countErr := e.journal.PendingCount(context.WithoutCancel(ctx))
	if countErr != nil {
		e.logger.Err(countErr).Str("func", "syncEngine.finishCycle").Msg("count pending operations")
	}

	e.updateStatus(func(s *models.SyncStatus) {
		if countErr == nil {
			s.Pending = pending
		}

		switch {
		case err == nil:
			now := e.now()
			s.State = models.SyncStateIdle
			s.LastSyncAt = &now
			s.ConsecutiveFailures = 0
			s.NotSynced = false
			s.LastError = ""
		case !adapter.IsTransient(err) && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
			s.State = models.SyncStateIdle
		case adapter.IsTransient(err):
			s.State = models.SyncStateBackoff
			s.LastError = err.Error()
		default:
			s.State = models.SyncStateFailed
			s.LastError = err.Error()
		}
	})
}

func (e *syncEngine) Status() models.SyncStatus {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.status
}

func (e *syncEngine) SubscribeStatus(buffer int) (<-chan models.SyncStatus, func()) {
	return e.statuses.subscribe(buffer)
}

func (e *syncEngine) updateStatus(fn func(s *models.SyncStatus)) {
	e.statusMu.Lock()
	fn(&e.status)
	snapshot := e.status
	e.statusMu.Unlock()

	e.statuses.publish(snapshot)
}

func (e *syncEngine) OnConflict(hook func(models.ConflictRecord)) {
	e.hookMu.Lock()
	defer e.hookMu.Unlock()
	e.hooks = append(e.hooks, hook)
}

func (e *syncEngine) fireConflictHooks(records []models.ConflictRecord) {
	e.hookMu.RLock()
	hooks := slices.Clone(e.hooks)
	e.hookMu.RUnlock()

	for _, record := range records {
		e.logger.Info().
			Str("func", "syncEngine.fireConflictHooks").
			Str("entry_id", record.EntryID).
			Str("local_op_id", record.Local.OpID).
			Str("remote_op_id", record.Remote.OpID).
			Str("winner", string(record.Resolution.Winner)).
			Str("reason", record.Resolution.Reason).
			Msg("conflict resolved")

		for _, hook := range hooks {
			hook(record)
		}
	}
}

func (e *syncEngine) batchSize() int {
	if e.cfg.BatchSize <= 0 {
		return defaultBatchSize
	}
	return e.cfg.BatchSize
}
