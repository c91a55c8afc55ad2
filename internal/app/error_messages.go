// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app holds the error strings the moodsync API puts into the
// "error" field of its responses.
package app

const (
	// MsgInvalidDataProvided answers a push body that is not a PushRequest.
	MsgInvalidDataProvided = "invalid data provided"

	// MsgInvalidQuery is returned when a query parameter cannot be parsed.
	MsgInvalidQuery = "invalid query parameters"

	// MsgInternalServerError is the fallback for any unmapped failure.
	MsgInternalServerError = "internal server error"

	// MsgTokenIsExpiredOrInvalid covers bad signatures, a foreign issuer
	// and expiry alike.
	MsgTokenIsExpiredOrInvalid = "token is expired or invalid"

	// MsgNoUserIDProvided means the auth middleware did not run.
	MsgNoUserIDProvided = "no user ID provided"

	// MsgPushFailed is returned when a pushed batch could not be stored.
	MsgPushFailed = "push failed"

	// MsgPullFailed is returned when the account log could not be read.
	MsgPullFailed = "pull failed"

	// MsgStorageUnavailable is returned when the remote database refused a
	// request for a reason the device should retry.
	MsgStorageUnavailable = "storage temporarily unavailable"
)
