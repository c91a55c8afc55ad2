package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innerhue/moodsync/internal/store"
	"github.com/innerhue/moodsync/internal/validators"
	"github.com/innerhue/moodsync/models"
)

func TestEntryLog_CreateUpdateDelete(t *testing.T) {
	ctx := context.Background()
	d := newTestDevice(t, "device-a", nil, fastSyncConfig())

	note := "long walk"
	created, err := d.entries.Create(ctx, models.MoodPayload{Emotion: "calm", Category: "health", Note: &note})
	require.NoError(t, err)
	assert.NoError(t, uuid.Validate(created.ID))
	assert.Equal(t, int64(1), created.Version)
	assert.Equal(t, "device-a", created.UpdatedBy)
	require.NotNil(t, created.Note)
	assert.Equal(t, note, *created.Note)

	d.at(10)
	updated, err := d.entries.Update(ctx, created.ID, payload("happy", "health"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, "happy", updated.Emotion)
	assert.Nil(t, updated.Note)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, testEpoch.Add(10*time.Second), updated.UpdatedAt)

	d.at(20)
	deleted, err := d.entries.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted())
	assert.Equal(t, int64(3), deleted.Version)
	assert.Equal(t, "happy", deleted.Emotion)

	visible, err := d.entries.List(ctx, models.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, visible)

	all, err := d.entries.List(ctx, models.EntryFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	pending, err := d.journal.PendingSince(ctx, models.SyncCursor{}, 0)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, models.OperationCreate, pending[0].Kind)
	assert.Equal(t, models.OperationUpdate, pending[1].Kind)
	assert.Equal(t, models.OperationDelete, pending[2].Kind)
	assert.Nil(t, pending[2].Payload)
}

func TestEntryLog_RefusedMutations(t *testing.T) {
	ctx := context.Background()
	d := newTestDevice(t, "device-a", nil, fastSyncConfig())

	entry, err := d.entries.Create(ctx, payload("calm", ""))
	require.NoError(t, err)
	_, err = d.entries.Delete(ctx, entry.ID)
	require.NoError(t, err)

	tests := []struct {
		name    string
		call    func() error
		wantErr error
	}{
		{
			name: "empty emotion",
			call: func() error {
				_, err := d.entries.Create(ctx, payload("", "work"))
				return err
			},
			wantErr: validators.ErrEmptyEmotion,
		},
		{
			name: "update missing entry",
			call: func() error {
				_, err := d.entries.Update(ctx, uuid.NewString(), payload("calm", ""))
				return err
			},
			wantErr: validators.ErrEntryMissing,
		},
		{
			name: "update tombstone",
			call: func() error {
				_, err := d.entries.Update(ctx, entry.ID, payload("calm", ""))
				return err
			},
			wantErr: validators.ErrEntryDeleted,
		},
		{
			name: "delete missing entry",
			call: func() error {
				_, err := d.entries.Delete(ctx, uuid.NewString())
				return err
			},
			wantErr: validators.ErrEntryMissing,
		},
		{
			name: "delete tombstone",
			call: func() error {
				_, err := d.entries.Delete(ctx, entry.ID)
				return err
			},
			wantErr: validators.ErrEntryDeleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, err := d.journal.PendingCount(ctx)
			require.NoError(t, err)

			err = tt.call()
			assert.True(t, validators.IsValidationError(err))
			assert.ErrorIs(t, err, tt.wantErr)

			after, err := d.journal.PendingCount(ctx)
			require.NoError(t, err)
			assert.Equal(t, before, after, "refused mutation must not be journaled")
		})
	}
}

func TestEntryLog_Subscribe(t *testing.T) {
	ctx := context.Background()
	d := newTestDevice(t, "device-a", nil, fastSyncConfig())

	changes, cancel := d.entries.Subscribe(4)
	defer cancel()

	entry, err := d.entries.Create(ctx, payload("calm", ""))
	require.NoError(t, err)

	select {
	case change := <-changes:
		assert.Equal(t, entry.ID, change.Entry.ID)
		assert.Equal(t, entry.LastOpID, change.OpID)
		assert.Equal(t, models.SourceLocal, change.Source)
	case <-time.After(time.Second):
		t.Fatal("no entry change delivered")
	}

	cancel()
	_, ok := <-changes
	assert.False(t, ok, "channel is closed after cancel")
}

func TestEntryLog_Recover(t *testing.T) {
	ctx := context.Background()
	d := newTestDevice(t, "device-a", nil, fastSyncConfig())

	entry, err := d.entries.Create(ctx, payload("calm", "work"))
	require.NoError(t, err)
	_, err = d.entries.Update(ctx, entry.ID, payload("angry", "work"))
	require.NoError(t, err)

	lost := entry
	lost.Emotion = "joyful"
	lostOpID := uuid.NewString()
	require.NoError(t, d.store.Update(ctx, func(tx store.LocalTx) error {
		return tx.PutSuperseded(ctx, models.SupersededRecord{
			OpID:             lostOpID,
			EntryID:          entry.ID,
			Entry:            lost,
			SupersededByOpID: uuid.NewString(),
			SupersededAt:     testEpoch,
			Reason:           ReasonLaterWallClock,
		})
	}))

	history, err := d.entries.History(ctx, entry.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, lostOpID, history[0].OpID)

	recovered, err := d.entries.Recover(ctx, lostOpID)
	require.NoError(t, err)
	assert.Equal(t, "joyful", recovered.Emotion)
	assert.Equal(t, int64(3), recovered.Version)

	_, err = d.entries.Recover(ctx, uuid.NewString())
	assert.ErrorIs(t, err, store.ErrSupersededNotFound)
}

func TestEntryLog_Snapshot(t *testing.T) {
	ctx := context.Background()
	d := newTestDevice(t, "device-a", nil, fastSyncConfig())

	a, err := d.entries.Create(ctx, payload("calm", ""))
	require.NoError(t, err)
	b, err := d.entries.Create(ctx, payload("sad", ""))
	require.NoError(t, err)
	_, err = d.entries.Delete(ctx, b.ID)
	require.NoError(t, err)

	snapshot, err := d.entries.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "device-a", snapshot.DeviceID)
	assert.Len(t, snapshot.Entries, 2, "tombstones are part of the snapshot")
	assert.Empty(t, snapshot.Journal)

	ids := []string{snapshot.Entries[0].ID, snapshot.Entries[1].ID}
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)
}
