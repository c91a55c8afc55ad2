// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/innerhue/moodsync/internal/adapter"
	"github.com/innerhue/moodsync/internal/config"
	"github.com/innerhue/moodsync/internal/logger"
	"github.com/innerhue/moodsync/internal/store"
	"github.com/innerhue/moodsync/models"
)

var testEpoch = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

const testUserID int64 = 1

func fastSyncConfig() config.Sync {
	return config.Sync{
		BatchSize:          50,
		BaseDelay:          time.Millisecond,
		Multiplier:         2,
		MaxDelay:           5 * time.Millisecond,
		NotSyncedThreshold: 2,
		RetentionWindow:    time.Hour,
	}
}

func openTestStore(t *testing.T, name string) store.LocalStorage {
	t.Helper()

	s, err := store.NewBoltLocalStorage(context.Background(), filepath.Join(t.TempDir(), name+".bolt"), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// ── Loopback remote ──

// loopbackRemote serves a RemoteStore straight from a RemoteSyncService,
// the way the HTTP adapter would after a round trip.
type loopbackRemote struct {
	svc    RemoteSyncService
	pushes atomic.Int32
	pulls  atomic.Int32
}

func newLoopbackRemote() *loopbackRemote {
	return &loopbackRemote{svc: NewRemoteSyncService(store.NewMemoryOperationRepository(), 0, logger.Nop())}
}

func (l *loopbackRemote) SetToken(string) {}

func (l *loopbackRemote) Token() string { return "" }

func (l *loopbackRemote) PushOperations(ctx context.Context, req models.PushRequest) (models.PushResult, error) {
	l.pushes.Add(1)
	return l.svc.Push(ctx, testUserID, req)
}

func (l *loopbackRemote) PullOperations(ctx context.Context, sinceClock int64, limit int) (models.PullResult, error) {
	l.pulls.Add(1)
	return l.svc.Pull(ctx, testUserID, sinceClock, limit)
}

var _ adapter.RemoteStore = (*loopbackRemote)(nil)

// ── Test device ──

type testDevice struct {
	id      string
	store   store.LocalStorage
	journal *journal
	entries EntryLog
	engine  *syncEngine
}

func newTestDevice(t *testing.T, id string, remote adapter.RemoteStore, cfg config.Sync) *testDevice {
	t.Helper()

	s := openTestStore(t, id)
	svcs, err := NewClientServices(context.Background(), s, remote, id, cfg, logger.Nop())
	require.NoError(t, err)

	d := &testDevice{
		id:      id,
		store:   s,
		journal: svcs.Journal.(*journal),
		entries: svcs.EntryLog,
		engine:  svcs.Engine.(*syncEngine),
	}
	d.at(0)
	return d
}

// at pins the device wall clock to sec seconds after testEpoch.
func (d *testDevice) at(sec int64) {
	ts := testEpoch.Add(time.Duration(sec) * time.Second)
	d.journal.now = func() time.Time { return ts }
	d.engine.now = func() time.Time { return ts }
}

func (d *testDevice) sync(t *testing.T) {
	t.Helper()
	require.NoError(t, d.engine.SyncNow(context.Background()))
}

func (d *testDevice) entry(t *testing.T, entryID string) models.MoodEntry {
	t.Helper()
	entry, err := d.entries.Get(context.Background(), entryID)
	require.NoError(t, err)
	return entry
}

func payload(emotion, category string) models.MoodPayload {
	return models.MoodPayload{Emotion: emotion, Category: category}
}
