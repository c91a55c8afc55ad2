package store

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innerhue/moodsync/internal/logger"
	"github.com/innerhue/moodsync/models"
)

const testUserID int64 = 7

func newTestOperationRepo(t *testing.T) (*PostgresOperationRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := NewPostgresOperationRepository(&DB{
		DB:                 db,
		logger:             logger.Nop(),
		errorClassificator: NewPostgresErrorClassifier(),
	})
	return repo, mock
}

func pgError(code string) error {
	return &pgconn.PgError{Code: code}
}

func operationBody(t *testing.T, op models.Operation) []byte {
	t.Helper()
	data, err := json.Marshal(op)
	require.NoError(t, err)
	return data
}

func TestPostgresInTx_InsertMovesHead(t *testing.T) {
	repo, mock := newTestOperationRepo(t)
	ctx := context.Background()
	op := testOperation(uuid.NewString(), "dev-a", 1, 1, models.OperationCreate)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1)")).
		WithArgs(testUserID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT o.body, o.server_clock FROM entry_heads h JOIN operations o").
		WithArgs(op.EntryID, testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"body", "server_clock"}))
	mock.ExpectQuery("INSERT INTO operations").
		WithArgs(testUserID, op.OpID, op.EntryID, op.OriginDeviceID, op.LogicalClock, op.Version, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"server_clock"}).AddRow(42))
	mock.ExpectExec("INSERT INTO entry_heads").
		WithArgs(testUserID, op.EntryID, op.Version, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var stored models.Operation
	err := repo.InTx(ctx, testUserID, func(tx OperationTx) error {
		if _, err := tx.FindHead(ctx, op.EntryID); !errors.Is(err, ErrOperationNotFound) {
			t.Errorf("expected ErrOperationNotFound, got %v", err)
		}
		var err error
		stored, err = tx.InsertOperation(ctx, op)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), stored.RemoteClock)
	assert.Equal(t, op.OpID, stored.OpID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInTx_FindOperation(t *testing.T) {
	repo, mock := newTestOperationRepo(t)
	ctx := context.Background()
	op := testOperation(uuid.NewString(), "dev-a", 3, 2, models.OperationUpdate)

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT body, server_clock FROM operations").
		WithArgs(op.OpID, testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"body", "server_clock"}).AddRow(operationBody(t, op), 9))
	mock.ExpectCommit()

	err := repo.InTx(ctx, testUserID, func(tx OperationTx) error {
		found, err := tx.FindOperation(ctx, op.OpID)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(9), found.RemoteClock)
		assert.Equal(t, op.Payload, found.Payload)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInTx_DuplicateRollsBack(t *testing.T) {
	repo, mock := newTestOperationRepo(t)
	ctx := context.Background()
	op := testOperation(uuid.NewString(), "dev-a", 1, 1, models.OperationCreate)

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("INSERT INTO operations").
		WillReturnError(pgError(pgerrcode.UniqueViolation))
	mock.ExpectRollback()

	err := repo.InTx(ctx, testUserID, func(tx OperationTx) error {
		_, err := tx.InsertOperation(ctx, op)
		return err
	})
	assert.ErrorIs(t, err, ErrDuplicateOperation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInTx_RetryableErrors(t *testing.T) {
	t.Run("begin", func(t *testing.T) {
		repo, mock := newTestOperationRepo(t)
		mock.ExpectBegin().WillReturnError(pgError(pgerrcode.ConnectionFailure))

		err := repo.InTx(context.Background(), testUserID, func(OperationTx) error { return nil })
		assert.ErrorIs(t, err, ErrRetryable)
		assert.ErrorIs(t, err, ErrBeginningTransaction)
	})

	t.Run("serialization failure on insert", func(t *testing.T) {
		repo, mock := newTestOperationRepo(t)
		op := testOperation(uuid.NewString(), "dev-a", 1, 1, models.OperationCreate)

		mock.ExpectBegin()
		mock.ExpectExec("pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("INSERT INTO operations").WillReturnError(pgError(pgerrcode.SerializationFailure))
		mock.ExpectRollback()

		err := repo.InTx(context.Background(), testUserID, func(tx OperationTx) error {
			_, err := tx.InsertOperation(context.Background(), op)
			return err
		})
		assert.ErrorIs(t, err, ErrRetryable)
	})

	t.Run("constraint errors are final", func(t *testing.T) {
		repo, mock := newTestOperationRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec("pg_advisory_xact_lock").WillReturnError(pgError(pgerrcode.UndefinedTable))
		mock.ExpectRollback()

		err := repo.InTx(context.Background(), testUserID, func(OperationTx) error { return nil })
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrRetryable)
	})
}

func TestPostgresListSince(t *testing.T) {
	repo, mock := newTestOperationRepo(t)
	first := testOperation(uuid.NewString(), "dev-a", 1, 1, models.OperationCreate)
	second := testOperation(uuid.NewString(), "dev-b", 2, 1, models.OperationCreate)

	mock.ExpectQuery("SELECT body, server_clock FROM operations WHERE user_id = \\$1 AND server_clock > \\$2 ORDER BY server_clock LIMIT 2").
		WithArgs(testUserID, int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"body", "server_clock"}).
			AddRow(operationBody(t, first), 11).
			AddRow(operationBody(t, second), 14))

	ops, err := repo.ListSince(context.Background(), testUserID, 10, 2)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, int64(11), ops[0].RemoteClock)
	assert.Equal(t, second.OpID, ops[1].OpID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListSince_BadBody(t *testing.T) {
	repo, mock := newTestOperationRepo(t)

	mock.ExpectQuery("SELECT body, server_clock FROM operations").
		WillReturnRows(sqlmock.NewRows([]string{"body", "server_clock"}).AddRow([]byte("{"), 1))

	_, err := repo.ListSince(context.Background(), testUserID, 0, 0)
	assert.ErrorIs(t, err, ErrDecodingRecord)
}

func TestPostgresMaxClock(t *testing.T) {
	repo, mock := newTestOperationRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(server_clock), 0) FROM operations")).
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(31))

	clock, err := repo.MaxClock(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, int64(31), clock)
}

func TestClassifyPgError(t *testing.T) {
	tests := []struct {
		code string
		want ErrorClassification
	}{
		{pgerrcode.ConnectionFailure, Retryable},
		{pgerrcode.SerializationFailure, Retryable},
		{pgerrcode.DeadlockDetected, Retryable},
		{pgerrcode.LockNotAvailable, Retryable},
		{pgerrcode.AdminShutdown, Retryable},
		{pgerrcode.CannotConnectNow, Retryable},
		{pgerrcode.UniqueViolation, NonRetryable},
		{pgerrcode.SyntaxError, NonRetryable},
		{"XX000", NonRetryable},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyPgError(&pgconn.PgError{Code: tt.code}))
		})
	}

	c := NewPostgresErrorClassifier()
	assert.Equal(t, NonRetryable, c.Classify(nil))
	assert.Equal(t, NonRetryable, c.Classify(errors.New("plain")))
	assert.Equal(t, Retryable, c.Classify(pgError(pgerrcode.DeadlockDetected)))
}
