// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"context"
	"testing"
)

func TestContextKeyString(t *testing.T) {
	if UserIDCtxKey.String() != "userID" {
		t.Errorf("expected 'userID', got '%s'", UserIDCtxKey.String())
	}
	if TraceIDCtxKey.String() != "traceID" {
		t.Errorf("expected 'traceID', got '%s'", TraceIDCtxKey.String())
	}
}

func TestGetUserIDFromContext(t *testing.T) {
	tests := []struct {
		name   string
		ctx    context.Context
		want   int64
		wantOK bool
	}{
		{name: "present", ctx: context.WithValue(context.Background(), UserIDCtxKey, int64(42)), want: 42, wantOK: true},
		{name: "zero value", ctx: context.WithValue(context.Background(), UserIDCtxKey, int64(0)), want: 0, wantOK: true},
		{name: "missing", ctx: context.Background()},
		{name: "wrong type", ctx: context.WithValue(context.Background(), UserIDCtxKey, "42")},
		{name: "different key", ctx: context.WithValue(context.Background(), contextKey("other"), int64(99))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, ok := GetUserIDFromContext(tt.ctx)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if userID != tt.want {
				t.Errorf("expected userID=%d, got %d", tt.want, userID)
			}
		})
	}
}

func TestGetTraceIDFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIDCtxKey, "trace-1")

	traceID, ok := GetTraceIDFromContext(ctx)
	if !ok || traceID != "trace-1" {
		t.Fatalf("expected trace-1, got %q (ok=%v)", traceID, ok)
	}

	if _, ok := GetTraceIDFromContext(context.Background()); ok {
		t.Fatal("expected ok=false for empty context")
	}
}
