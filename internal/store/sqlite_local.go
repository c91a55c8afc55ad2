package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/innerhue/moodsync/internal/logger"
	"github.com/innerhue/moodsync/models"
)

// SQLiteLocalStorage is the default [LocalStorage]. Indexed columns serve
// filtering and ordering; the JSON body column is the source of truth for
// every record.
type SQLiteLocalStorage struct {
	*DB
	mu     sync.Mutex
	closed bool
	reader *sqliteTx
}

// NewSQLiteLocalStorage opens the SQLite file at path and migrates it.
func NewSQLiteLocalStorage(ctx context.Context, path string, log *logger.Logger) (*SQLiteLocalStorage, error) {
	db, err := NewConnectSQLite(ctx, path, log)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.MigrateClient(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return newSQLiteLocalStorage(db), nil
}

func newSQLiteLocalStorage(db *DB) *SQLiteLocalStorage {
	return &SQLiteLocalStorage{
		DB:     db,
		reader: &sqliteTx{q: db.DB, logger: db.logger},
	}
}

// Update runs fn inside one SQLite transaction. A process-wide mutex keeps a
// single writer; readers keep using the connection pool.
func (s *SQLiteLocalStorage) Update(ctx context.Context, fn func(tx LocalTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Err(err).Str("func", "SQLiteLocalStorage.Update").Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if err := fn(&sqliteTx{q: tx, logger: s.logger}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Err(err).Str("func", "SQLiteLocalStorage.Update").Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteLocalStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.DB.Close()
}

func (s *SQLiteLocalStorage) GetEntry(ctx context.Context, entryID string) (models.MoodEntry, error) {
	return s.reader.GetEntry(ctx, entryID)
}

func (s *SQLiteLocalStorage) ListEntries(ctx context.Context, filter models.EntryFilter) ([]models.MoodEntry, error) {
	return s.reader.ListEntries(ctx, filter)
}

func (s *SQLiteLocalStorage) GetOperation(ctx context.Context, opID string) (models.JournaledOperation, error) {
	return s.reader.GetOperation(ctx, opID)
}

func (s *SQLiteLocalStorage) ListOperations(ctx context.Context, query OperationQuery) ([]models.JournaledOperation, error) {
	return s.reader.ListOperations(ctx, query)
}

func (s *SQLiteLocalStorage) CountPending(ctx context.Context) (int, error) {
	return s.reader.CountPending(ctx)
}

func (s *SQLiteLocalStorage) LastClock(ctx context.Context, deviceID string) (int64, error) {
	return s.reader.LastClock(ctx, deviceID)
}

func (s *SQLiteLocalStorage) GetCursor(ctx context.Context, deviceID string) (models.SyncCursor, error) {
	return s.reader.GetCursor(ctx, deviceID)
}

func (s *SQLiteLocalStorage) GetSuperseded(ctx context.Context, opID string) (models.SupersededRecord, error) {
	return s.reader.GetSuperseded(ctx, opID)
}

func (s *SQLiteLocalStorage) ListSuperseded(ctx context.Context, entryID string) ([]models.SupersededRecord, error) {
	return s.reader.ListSuperseded(ctx, entryID)
}

func (s *SQLiteLocalStorage) GetMeta(ctx context.Context, key string) (string, error) {
	return s.reader.GetMeta(ctx, key)
}

// sqliteTx runs the local store statements against either the pool or an
// open transaction.
type sqliteTx struct {
	q      queryer
	logger *logger.Logger
}

type queryBuilder func() (string, []any, error)

func (t *sqliteTx) queryBody(ctx context.Context, fn string, build queryBuilder, notFound error) ([]byte, error) {
	query, args, err := build()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var body string
	err = t.q.QueryRowContext(ctx, query, args...).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", fn).Msg("failed to query record")
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return []byte(body), nil
}

func (t *sqliteTx) queryBodies(ctx context.Context, fn string, build queryBuilder, each func(body []byte) error) error {
	query, args, err := build()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", fn).Msg("failed to execute query")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		if err := each([]byte(body)); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", fn).Msg("error occurred during rows iteration")
		return fmt.Errorf("%w: %w", ErrScanningRows, err)
	}
	return nil
}

func (t *sqliteTx) exec(ctx context.Context, fn string, build queryBuilder) (sql.Result, error) {
	query, args, err := build()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := t.q.ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", fn).Msg("failed to execute statement")
		return nil, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return res, nil
}

func (t *sqliteTx) GetEntry(ctx context.Context, entryID string) (models.MoodEntry, error) {
	body, err := t.queryBody(ctx, "sqliteTx.GetEntry", func() (string, []any, error) {
		return buildGetEntryQuery(entryID)
	}, ErrEntryNotFound)
	if err != nil {
		return models.MoodEntry{}, err
	}

	var entry models.MoodEntry
	if err := decodeRecord(body, &entry); err != nil {
		return models.MoodEntry{}, err
	}
	return entry, nil
}

func (t *sqliteTx) ListEntries(ctx context.Context, filter models.EntryFilter) ([]models.MoodEntry, error) {
	entries := make([]models.MoodEntry, 0)
	err := t.queryBodies(ctx, "sqliteTx.ListEntries", func() (string, []any, error) {
		return buildListEntriesQuery(filter)
	}, func(body []byte) error {
		var entry models.MoodEntry
		if err := decodeRecord(body, &entry); err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (t *sqliteTx) GetOperation(ctx context.Context, opID string) (models.JournaledOperation, error) {
	body, err := t.queryBody(ctx, "sqliteTx.GetOperation", func() (string, []any, error) {
		return buildGetOperationQuery(opID)
	}, ErrOperationNotFound)
	if err != nil {
		return models.JournaledOperation{}, err
	}

	var op models.JournaledOperation
	if err := decodeRecord(body, &op); err != nil {
		return models.JournaledOperation{}, err
	}
	return op, nil
}

func (t *sqliteTx) ListOperations(ctx context.Context, query OperationQuery) ([]models.JournaledOperation, error) {
	ops := make([]models.JournaledOperation, 0)
	err := t.queryBodies(ctx, "sqliteTx.ListOperations", func() (string, []any, error) {
		return buildListOperationsQuery(query)
	}, func(body []byte) error {
		var op models.JournaledOperation
		if err := decodeRecord(body, &op); err != nil {
			return err
		}
		ops = append(ops, op)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ops, nil
}

func (t *sqliteTx) CountPending(ctx context.Context) (int, error) {
	query, args, err := buildCountPendingQuery()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var n int
	if err := t.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return n, nil
}

func (t *sqliteTx) LastClock(ctx context.Context, deviceID string) (int64, error) {
	return readClockWatermark(ctx, t, clockMetaKey(deviceID))
}

func (t *sqliteTx) GetCursor(ctx context.Context, deviceID string) (models.SyncCursor, error) {
	body, err := t.queryBody(ctx, "sqliteTx.GetCursor", func() (string, []any, error) {
		return buildGetCursorQuery(deviceID)
	}, errCursorMissing)
	if errors.Is(err, errCursorMissing) {
		return models.SyncCursor{DeviceID: deviceID}, nil
	}
	if err != nil {
		return models.SyncCursor{}, err
	}

	var cursor models.SyncCursor
	if err := decodeRecord(body, &cursor); err != nil {
		return models.SyncCursor{}, err
	}
	return cursor, nil
}

func (t *sqliteTx) GetSuperseded(ctx context.Context, opID string) (models.SupersededRecord, error) {
	body, err := t.queryBody(ctx, "sqliteTx.GetSuperseded", func() (string, []any, error) {
		return buildGetSupersededQuery(opID)
	}, ErrSupersededNotFound)
	if err != nil {
		return models.SupersededRecord{}, err
	}

	var record models.SupersededRecord
	if err := decodeRecord(body, &record); err != nil {
		return models.SupersededRecord{}, err
	}
	return record, nil
}

func (t *sqliteTx) ListSuperseded(ctx context.Context, entryID string) ([]models.SupersededRecord, error) {
	records := make([]models.SupersededRecord, 0)
	err := t.queryBodies(ctx, "sqliteTx.ListSuperseded", func() (string, []any, error) {
		return buildListSupersededQuery(entryID)
	}, func(body []byte) error {
		var record models.SupersededRecord
		if err := decodeRecord(body, &record); err != nil {
			return err
		}
		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (t *sqliteTx) GetMeta(ctx context.Context, key string) (string, error) {
	body, err := t.queryBody(ctx, "sqliteTx.GetMeta", func() (string, []any, error) {
		return buildGetMetaQuery(key)
	}, ErrMetaNotFound)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (t *sqliteTx) PutEntry(ctx context.Context, entry models.MoodEntry) error {
	body, err := encodeRecord(entry)
	if err != nil {
		return err
	}
	_, err = t.exec(ctx, "sqliteTx.PutEntry", func() (string, []any, error) {
		return buildUpsertEntryQuery(entry, body)
	})
	return err
}

func (t *sqliteTx) PutOperation(ctx context.Context, op models.JournaledOperation) error {
	body, err := encodeRecord(op)
	if err != nil {
		return err
	}
	_, err = t.exec(ctx, "sqliteTx.PutOperation", func() (string, []any, error) {
		return buildUpsertOperationQuery(op, body)
	})
	if err != nil {
		return err
	}
	return raiseClockWatermark(ctx, t, op.OriginDeviceID, op.LogicalClock)
}

func (t *sqliteTx) AckOperations(ctx context.Context, ackedAt time.Time, opIDs ...string) error {
	for _, opID := range opIDs {
		op, err := t.GetOperation(ctx, opID)
		if errors.Is(err, ErrOperationNotFound) {
			continue
		}
		if err != nil {
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

func (t *sqliteTx) PruneOperations(ctx context.Context, ackedBefore time.Time) (int, error) {
	res, err := t.exec(ctx, "sqliteTx.PruneOperations", func() (string, []any, error) {
		return buildPruneOperationsQuery(ackedBefore)
	})
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return int(n), nil
}

func (t *sqliteTx) PutCursor(ctx context.Context, cursor models.SyncCursor) error {
	body, err := encodeRecord(cursor)
	if err != nil {
		return err
	}
	_, err = t.exec(ctx, "sqliteTx.PutCursor", func() (string, []any, error) {
		return buildUpsertCursorQuery(cursor.DeviceID, body)
	})
	return err
}

func (t *sqliteTx) PutSuperseded(ctx context.Context, record models.SupersededRecord) error {
	body, err := encodeRecord(record)
	if err != nil {
		return err
	}
	_, err = t.exec(ctx, "sqliteTx.PutSuperseded", func() (string, []any, error) {
		return buildUpsertSupersededQuery(record, body)
	})
	return err
}

func (t *sqliteTx) PutMeta(ctx context.Context, key, value string) error {
	_, err := t.exec(ctx, "sqliteTx.PutMeta", func() (string, []any, error) {
		return buildUpsertMetaQuery(key, value)
	})
	return err
}

var errCursorMissing = errors.New("cursor missing")
