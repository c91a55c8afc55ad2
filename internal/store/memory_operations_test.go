package store

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innerhue/moodsync/models"
)

func TestMemoryOperationRepository_InsertAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOperationRepository()
	entryID := uuid.NewString()
	first := testOperation(entryID, "dev-a", 1, 1, models.OperationCreate)
	second := testOperation(entryID, "dev-a", 2, 2, models.OperationUpdate)

	err := repo.InTx(ctx, testUserID, func(tx OperationTx) error {
		if _, err := tx.InsertOperation(ctx, first); err != nil {
			return err
		}
		// staged inserts are visible inside the transaction
		head, err := tx.FindHead(ctx, entryID)
		require.NoError(t, err)
		assert.Equal(t, first.OpID, head.OpID)

		_, err = tx.InsertOperation(ctx, second)
		return err
	})
	require.NoError(t, err)

	ops, err := repo.ListSince(ctx, testUserID, 0, 0)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, int64(1), ops[0].RemoteClock)
	assert.Equal(t, int64(2), ops[1].RemoteClock)

	ops, err = repo.ListSince(ctx, testUserID, 1, 0)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, second.OpID, ops[0].OpID)

	clock, err := repo.MaxClock(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), clock)

	err = repo.InTx(ctx, testUserID, func(tx OperationTx) error {
		head, err := tx.FindHead(ctx, entryID)
		require.NoError(t, err)
		assert.Equal(t, second.OpID, head.OpID)

		_, err = tx.InsertOperation(ctx, first)
		return err
	})
	assert.ErrorIs(t, err, ErrDuplicateOperation)
}

func TestMemoryOperationRepository_FailedTxIsDiscarded(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOperationRepository()
	op := testOperation(uuid.NewString(), "dev-a", 1, 1, models.OperationCreate)

	err := repo.InTx(ctx, testUserID, func(tx OperationTx) error {
		if _, err := tx.InsertOperation(ctx, op); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	ops, err := repo.ListSince(ctx, testUserID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, ops)

	err = repo.InTx(ctx, testUserID, func(tx OperationTx) error {
		_, err := tx.FindOperation(ctx, op.OpID)
		return err
	})
	assert.ErrorIs(t, err, ErrOperationNotFound)
}

func TestMemoryOperationRepository_AccountsAreIsolated(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOperationRepository()

	for _, userID := range []int64{1, 2} {
		err := repo.InTx(ctx, userID, func(tx OperationTx) error {
			_, err := tx.InsertOperation(ctx, testOperation(uuid.NewString(), "dev", 1, 1, models.OperationCreate))
			return err
		})
		require.NoError(t, err)
	}

	ops, err := repo.ListSince(ctx, 1, 0, 0)
	require.NoError(t, err)
	assert.Len(t, ops, 1)

	clock, err := repo.MaxClock(ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, clock)
}

func TestMemoryOperationRepository_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOperationRepository()

	const n = 50
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.InTx(ctx, testUserID, func(tx OperationTx) error {
				_, err := tx.InsertOperation(ctx, testOperation(uuid.NewString(), "dev", 1, 1, models.OperationCreate))
				return err
			})
		}()
	}
	wg.Wait()

	ops, err := repo.ListSince(ctx, testUserID, 0, 0)
	require.NoError(t, err)
	require.Len(t, ops, n)
	for i := 1; i < len(ops); i++ {
		assert.Greater(t, ops[i].RemoteClock, ops[i-1].RemoteClock)
	}
}
