package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/innerhue/moodsync/internal/logger"
	"github.com/innerhue/moodsync/models"
)

var (
	bucketEntries    = []byte("entries")
	bucketOperations = []byte("operations")
	bucketPending    = []byte("pending")
	bucketEntryOps   = []byte("entry_operations")
	bucketCursors    = []byte("cursors")
	bucketSuperseded = []byte("superseded")
	bucketMeta       = []byte("meta")

	allBuckets = [][]byte{
		bucketEntries,
		bucketOperations,
		bucketPending,
		bucketEntryOps,
		bucketCursors,
		bucketSuperseded,
		bucketMeta,
	}
)

// BoltLocalStorage is a [LocalStorage] on top of a bbolt file. bbolt allows a
// single writer at a time, which gives Update its serialization for free.
//
// Operations are indexed twice: the pending bucket is keyed by
// big-endian clock, device and op id so that a cursor scan returns the
// pending set in order, and the entry_operations bucket keyed by entry id
// and clock serves per-entry lookups.
type BoltLocalStorage struct {
	db     *bbolt.DB
	logger *logger.Logger

	// mu guards closed. Transactions hold it shared, Close exclusively.
	mu     sync.RWMutex
	closed bool
}

// NewBoltLocalStorage opens (creating if necessary) the bbolt file at path.
func NewBoltLocalStorage(_ context.Context, path string, log *logger.Logger) (*BoltLocalStorage, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("error creating DB dir: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		log.Err(err).Str("func", "NewBoltLocalStorage").Str("path", path).Msg("failed to open boltdb")
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &BoltLocalStorage{db: db, logger: log}
	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	log.Debug().Str("func", "NewBoltLocalStorage").Str("path", path).Msg("opened local bolt storage")
	return s, nil
}

func (s *BoltLocalStorage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

// Close waits for running transactions and closes the database file.
// Later calls return ErrStorageClosed from every method.
func (s *BoltLocalStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Update runs fn in one bbolt read-write transaction.
func (s *BoltLocalStorage) Update(ctx context.Context, fn func(tx LocalTx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStorageClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

func (s *BoltLocalStorage) view(fn func(tx *boltTx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStorageClosed
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

func (s *BoltLocalStorage) GetEntry(ctx context.Context, entryID string) (entry models.MoodEntry, err error) {
	err = s.view(func(tx *boltTx) error {
		entry, err = tx.GetEntry(ctx, entryID)
		return err
	})
	return entry, err
}

func (s *BoltLocalStorage) ListEntries(ctx context.Context, filter models.EntryFilter) (entries []models.MoodEntry, err error) {
	err = s.view(func(tx *boltTx) error {
		entries, err = tx.ListEntries(ctx, filter)
		return err
	})
	return entries, err
}

func (s *BoltLocalStorage) GetOperation(ctx context.Context, opID string) (op models.JournaledOperation, err error) {
	err = s.view(func(tx *boltTx) error {
		op, err = tx.GetOperation(ctx, opID)
		return err
	})
	return op, err
}

func (s *BoltLocalStorage) ListOperations(ctx context.Context, query OperationQuery) (ops []models.JournaledOperation, err error) {
	err = s.view(func(tx *boltTx) error {
		ops, err = tx.ListOperations(ctx, query)
		return err
	})
	return ops, err
}

func (s *BoltLocalStorage) CountPending(ctx context.Context) (n int, err error) {
	err = s.view(func(tx *boltTx) error {
		n, err = tx.CountPending(ctx)
		return err
	})
	return n, err
}

func (s *BoltLocalStorage) LastClock(ctx context.Context, deviceID string) (clock int64, err error) {
	err = s.view(func(tx *boltTx) error {
		clock, err = tx.LastClock(ctx, deviceID)
		return err
	})
	return clock, err
}

func (s *BoltLocalStorage) GetCursor(ctx context.Context, deviceID string) (cursor models.SyncCursor, err error) {
	err = s.view(func(tx *boltTx) error {
		cursor, err = tx.GetCursor(ctx, deviceID)
		return err
	})
	return cursor, err
}

func (s *BoltLocalStorage) GetSuperseded(ctx context.Context, opID string) (record models.SupersededRecord, err error) {
	err = s.view(func(tx *boltTx) error {
		record, err = tx.GetSuperseded(ctx, opID)
		return err
	})
	return record, err
}

func (s *BoltLocalStorage) ListSuperseded(ctx context.Context, entryID string) (records []models.SupersededRecord, err error) {
	err = s.view(func(tx *boltTx) error {
		records, err = tx.ListSuperseded(ctx, entryID)
		return err
	})
	return records, err
}

func (s *BoltLocalStorage) GetMeta(ctx context.Context, key string) (value string, err error) {
	err = s.view(func(tx *boltTx) error {
		value, err = tx.GetMeta(ctx, key)
		return err
	})
	return value, err
}

// boltTx adapts a bbolt transaction. Read-only transactions only serve the
// LocalReader methods.
type boltTx struct {
	tx *bbolt.Tx
}

func (t *boltTx) GetEntry(_ context.Context, entryID string) (models.MoodEntry, error) {
	data := t.tx.Bucket(bucketEntries).Get([]byte(entryID))
	if data == nil {
		return models.MoodEntry{}, ErrEntryNotFound
	}

	var entry models.MoodEntry
	if err := decodeRecord(data, &entry); err != nil {
		return models.MoodEntry{}, err
	}
	return entry, nil
}

func (t *boltTx) ListEntries(_ context.Context, filter models.EntryFilter) ([]models.MoodEntry, error) {
	entries := make([]models.MoodEntry, 0)
	err := t.tx.Bucket(bucketEntries).ForEach(func(_, v []byte) error {
		var entry models.MoodEntry
		if err := decodeRecord(v, &entry); err != nil {
			return err
		}
		if filter.Match(entry) {
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortEntries(entries)
	if filter.Limit > 0 && len(entries) > filter.Limit {
		entries = entries[:filter.Limit]
	}
	return entries, nil
}

func (t *boltTx) GetOperation(_ context.Context, opID string) (models.JournaledOperation, error) {
	data := t.tx.Bucket(bucketOperations).Get([]byte(opID))
	if data == nil {
		return models.JournaledOperation{}, ErrOperationNotFound
	}

	var op models.JournaledOperation
	if err := decodeRecord(data, &op); err != nil {
		return models.JournaledOperation{}, err
	}
	return op, nil
}

func (t *boltTx) ListOperations(ctx context.Context, query OperationQuery) ([]models.JournaledOperation, error) {
	var (
		ops []models.JournaledOperation
		err error
	)

	switch {
	case query.EntryID != "":
		ops, err = t.scanIndex(ctx, bucketEntryOps, []byte(query.EntryID+"\x00"), nil)
	case query.PendingOnly:
		ops, err = t.scanIndex(ctx, bucketPending, nil, clockKey(query.AfterClock+1))
	default:
		ops, err = t.allOperations()
	}
	if err != nil {
		return nil, err
	}

	return filterOperations(ops, query), nil
}

// scanIndex walks an index bucket whose values are op ids, starting at seek
// and staying within prefix.
func (t *boltTx) scanIndex(ctx context.Context, index []byte, prefix, seek []byte) ([]models.JournaledOperation, error) {
	ops := make([]models.JournaledOperation, 0)
	c := t.tx.Bucket(index).Cursor()

	start := prefix
	if seek != nil {
		start = append(append([]byte{}, prefix...), seek...)
	}

	var k, v []byte
	if start == nil {
		k, v = c.First()
	} else {
		k, v = c.Seek(start)
	}
	for ; k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		op, err := t.GetOperation(ctx, string(v))
		if err != nil {
			return nil, fmt.Errorf("index %s points to %s: %w", index, v, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func (t *boltTx) allOperations() ([]models.JournaledOperation, error) {
	ops := make([]models.JournaledOperation, 0)
	err := t.tx.Bucket(bucketOperations).ForEach(func(_, v []byte) error {
		var op models.JournaledOperation
		if err := decodeRecord(v, &op); err != nil {
			return err
		}
		ops = append(ops, op)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortOperations(ops)
	return ops, nil
}

func (t *boltTx) CountPending(_ context.Context) (int, error) {
	return t.tx.Bucket(bucketPending).Stats().KeyN, nil
}

func (t *boltTx) LastClock(ctx context.Context, deviceID string) (int64, error) {
	return readClockWatermark(ctx, t, clockMetaKey(deviceID))
}

func (t *boltTx) GetCursor(_ context.Context, deviceID string) (models.SyncCursor, error) {
	data := t.tx.Bucket(bucketCursors).Get([]byte(deviceID))
	if data == nil {
		return models.SyncCursor{DeviceID: deviceID}, nil
	}

	var cursor models.SyncCursor
	if err := decodeRecord(data, &cursor); err != nil {
		return models.SyncCursor{}, err
	}
	return cursor, nil
}

func (t *boltTx) GetSuperseded(_ context.Context, opID string) (models.SupersededRecord, error) {
	data := t.tx.Bucket(bucketSuperseded).Get([]byte(opID))
	if data == nil {
		return models.SupersededRecord{}, ErrSupersededNotFound
	}

	var record models.SupersededRecord
	if err := decodeRecord(data, &record); err != nil {
		return models.SupersededRecord{}, err
	}
	return record, nil
}

func (t *boltTx) ListSuperseded(_ context.Context, entryID string) ([]models.SupersededRecord, error) {
	records := make([]models.SupersededRecord, 0)
	err := t.tx.Bucket(bucketSuperseded).ForEach(func(_, v []byte) error {
		var record models.SupersededRecord
		if err := decodeRecord(v, &record); err != nil {
			return err
		}
		if entryID == "" || record.EntryID == entryID {
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortSuperseded(records)
	return records, nil
}

func (t *boltTx) GetMeta(_ context.Context, key string) (string, error) {
	data := t.tx.Bucket(bucketMeta).Get([]byte(key))
	if data == nil {
		return "", ErrMetaNotFound
	}
	return string(data), nil
}

func (t *boltTx) PutEntry(_ context.Context, entry models.MoodEntry) error {
	data, err := encodeRecord(entry)
	if err != nil {
		return err
	}
	return t.tx.Bucket(bucketEntries).Put([]byte(entry.ID), data)
}

func (t *boltTx) PutOperation(ctx context.Context, op models.JournaledOperation) error {
	data, err := encodeRecord(op)
	if err != nil {
		return err
	}

	opID := []byte(op.OpID)
	if err := t.tx.Bucket(bucketOperations).Put(opID, data); err != nil {
		return err
	}
	if err := t.tx.Bucket(bucketEntryOps).Put(entryOpKey(op.Operation), opID); err != nil {
		return err
	}

	pending := t.tx.Bucket(bucketPending)
	if op.Pending {
		err = pending.Put(pendingKey(op.Operation), opID)
	} else {
		err = pending.Delete(pendingKey(op.Operation))
	}
	if err != nil {
		return err
	}

	return raiseClockWatermark(ctx, t, op.OriginDeviceID, op.LogicalClock)
}

func (t *boltTx) AckOperations(ctx context.Context, ackedAt time.Time, opIDs ...string) error {
	for _, opID := range opIDs {
		op, err := t.GetOperation(ctx, opID)
		if err != nil {
			if errors.Is(err, ErrOperationNotFound) {
				continue
			}
			return err
		}
		if !op.Pending {
			continue
		}

		at := ackedAt.UTC()
		op.Pending = false
		op.AckedAt = &at
		if err := t.PutOperation(ctx, op); err != nil {
			return err
		}
	}
	return nil
}

func (t *boltTx) PruneOperations(_ context.Context, ackedBefore time.Time) (int, error) {
	ops := t.tx.Bucket(bucketOperations)
	index := t.tx.Bucket(bucketEntryOps)

	var doomed []models.JournaledOperation
	err := ops.ForEach(func(_, v []byte) error {
		var op models.JournaledOperation
		if err := decodeRecord(v, &op); err != nil {
			return err
		}
		if !op.Pending && op.AckedAt != nil && op.AckedAt.Before(ackedBefore) {
			doomed = append(doomed, op)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	// keys cannot be deleted while ForEach iterates
	for _, op := range doomed {
		if err := ops.Delete([]byte(op.OpID)); err != nil {
			return 0, err
		}
		if err := index.Delete(entryOpKey(op.Operation)); err != nil {
			return 0, err
		}
	}
	return len(doomed), nil
}

func (t *boltTx) PutCursor(_ context.Context, cursor models.SyncCursor) error {
	data, err := encodeRecord(cursor)
	if err != nil {
		return err
	}
	return t.tx.Bucket(bucketCursors).Put([]byte(cursor.DeviceID), data)
}

func (t *boltTx) PutSuperseded(_ context.Context, record models.SupersededRecord) error {
	data, err := encodeRecord(record)
	if err != nil {
		return err
	}
	return t.tx.Bucket(bucketSuperseded).Put([]byte(record.OpID), data)
}

func (t *boltTx) PutMeta(_ context.Context, key, value string) error {
	return t.tx.Bucket(bucketMeta).Put([]byte(key), []byte(value))
}

func clockKey(clock int64) []byte {
	if clock < 0 {
		clock = 0
	}
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(clock))
	return key
}

func pendingKey(op models.Operation) []byte {
	key := clockKey(op.LogicalClock)
	key = append(key, op.OriginDeviceID...)
	key = append(key, 0)
	return append(key, op.OpID...)
}

func entryOpKey(op models.Operation) []byte {
	key := []byte(op.EntryID + "\x00")
	return append(key, pendingKey(op)...)
}

func sortEntries(entries []models.MoodEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].ID < entries[j].ID
	})
}

func sortOperations(ops []models.JournaledOperation) {
	sort.SliceStable(ops, func(i, j int) bool {
		return ops[i].Before(ops[j].Operation)
	})
}

func sortSuperseded(records []models.SupersededRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].SupersededAt.Equal(records[j].SupersededAt) {
			return records[i].SupersededAt.Before(records[j].SupersededAt)
		}
		return records[i].OpID < records[j].OpID
	})
}

// filterOperations applies the query restrictions an index scan did not.
func filterOperations(ops []models.JournaledOperation, query OperationQuery) []models.JournaledOperation {
	out := ops[:0]
	for _, op := range ops {
		if query.PendingOnly && !op.Pending {
			continue
		}
		if op.LogicalClock <= query.AfterClock {
			continue
		}
		if query.EntryID != "" && op.EntryID != query.EntryID {
			continue
		}
		out = append(out, op)
		if query.Limit > 0 && len(out) == query.Limit {
			break
		}
	}
	return out
}
