// Package utils holds small helpers shared by the server and the client:
// typed context keys, JSON response writing, the resty client wrapper, JWT
// issuing and parsing, and identifier generation.
package utils

import (
	"context"
)

// contextKey is a private type for context keys.
type contextKey string

// String implements fmt.Stringer.
func (c contextKey) String() string {
	return string(c)
}

var (
	// UserIDCtxKey holds the authenticated account id (int64).
	UserIDCtxKey = contextKey("userID")

	// TraceIDCtxKey holds the request trace id (string).
	TraceIDCtxKey = contextKey("traceID")
)

// GetUserIDFromContext retrieves the account id put into ctx by the auth
// middleware.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(int64)
	return userID, ok
}

// GetTraceIDFromContext retrieves the request trace id, if any.
func GetTraceIDFromContext(ctx context.Context) (string, bool) {
	traceID, ok := ctx.Value(TraceIDCtxKey).(string)
	return traceID, ok
}
