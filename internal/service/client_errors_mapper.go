// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"

	"github.com/innerhue/moodsync/internal/adapter"
)

// mapAdapterError translates a transport error into the engine's taxonomy:
// credentials problems and refused requests become a [SyncError], transient
// failures and cancellation pass through unchanged.
func mapAdapterError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case adapter.IsTransient(err):
		return err

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err

	case errors.Is(err, adapter.ErrUnauthorized), errors.Is(err, adapter.ErrForbidden):
		return &SyncError{Kind: SyncErrorAuth, Err: err}

	case errors.Is(err, adapter.ErrBadRequest),
		errors.Is(err, adapter.ErrNotFound),
		errors.Is(err, adapter.ErrConflict),
		errors.Is(err, adapter.ErrUnexpectedStatus):
		return &SyncError{Kind: SyncErrorRejected, Err: err}
	}

	return err
}

// isRetryable reports whether a remote call failure should be retried.
// Only transient network failures are.
func isRetryable(err error) bool {
	return adapter.IsTransient(err)
}
