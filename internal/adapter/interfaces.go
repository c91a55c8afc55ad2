// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides transport-layer access to the moodsync server for
// the device client.
//
// The primary abstraction is [RemoteStore], which decouples the sync engine
// from the underlying protocol. The package ships an HTTP/REST
// implementation ([NewHTTPRemoteStore]) and a websocket change-feed watcher
// ([NewChangeWatcher]).
//
// HTTP status codes are mapped by mapHTTPError so callers can classify
// failures with [errors.Is] and [errors.As]: [ErrUnauthorized] and
// [ErrForbidden] for credential problems, [ErrBadRequest] for payloads the
// server refused, and [TransientNetworkError] for anything worth retrying.
package adapter

import (
	"context"

	"github.com/innerhue/moodsync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/remote_store_mock.go -package=mock

// RemoteStore is the remote authoritative operation log as seen by one
// device. Both calls are idempotent: the server deduplicates by OpID, so a
// batch may be resent after any failure.
type RemoteStore interface {
	// SetToken stores the bearer token attached to every subsequent request.
	SetToken(token string)

	// Token returns the bearer token currently stored in the adapter.
	Token() string

	// PushOperations sends a batch of locally journaled operations. The
	// result lists the accepted OpIDs and the operations refused because
	// the entry moved past their BaseVersion.
	PushOperations(ctx context.Context, req models.PushRequest) (models.PushResult, error)

	// PullOperations returns up to limit operations with a RemoteClock
	// greater than sinceClock, ordered by RemoteClock.
	PullOperations(ctx context.Context, sinceClock int64, limit int) (models.PullResult, error)
}

// ChangeFeed delivers remote-change notifications.
type ChangeFeed interface {
	// Watch connects to the feed, calls onConnect once the connection is
	// established and onEvent for every event, and blocks until the
	// connection drops or ctx is done.
	Watch(ctx context.Context, onConnect func(), onEvent func(models.RemoteEvent)) error
}
