package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEntry(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(raw), &entry))
	return entry
}

func TestNewLogger_EntryShape(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "moodsync-server")

	l.Info().Msg("listening")

	entry := decodeEntry(t, buf.Bytes())
	assert.Equal(t, "moodsync-server", entry["role"])
	assert.Equal(t, "listening", entry["message"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "func")

	assert.Equal(t, "func", zerolog.CallerFieldName)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	require.NotNil(t, NewLogger("moodsync-server"))
}

func TestNewClientLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "client.log")

	l := NewClientLogger("moodsync-client", path)
	l.WithDevice("dev-1").Info().Msg("to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	entry := decodeEntry(t, data)
	assert.Equal(t, "moodsync-client", entry["role"])
	assert.Equal(t, "dev-1", entry["device_id"])
}

func TestNop_Discards(t *testing.T) {
	var buf bytes.Buffer
	l := Nop()
	l.Logger = l.Output(&buf)

	l.Error().Msg("dropped")
	assert.Empty(t, buf.String())
}

func TestChildLoggers(t *testing.T) {
	tests := []struct {
		name   string
		derive func(*Logger) *Logger
		want   map[string]any
	}{
		{
			name:   "child keeps parent fields",
			derive: (*Logger).GetChildLogger,
			want:   map[string]any{"role": "sync"},
		},
		{
			name:   "device tag",
			derive: func(l *Logger) *Logger { return l.WithDevice("dev-42") },
			want:   map[string]any{"role": "sync", "device_id": "dev-42"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			parent := &Logger{zerolog.New(&buf).With().Str("role", "sync").Logger()}

			child := tt.derive(parent)
			assert.NotSame(t, parent, child)
			child.Info().Msg("tick")

			entry := decodeEntry(t, buf.Bytes())
			for k, v := range tt.want {
				assert.Equal(t, v, entry[k], k)
			}

			buf.Reset()
			parent.Info().Msg("untouched")
			assert.NotContains(t, decodeEntry(t, buf.Bytes()), "device_id")
		})
	}
}

func TestFromContextAndRequest(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf).With().Str("trace_id", "trace-1").Logger()
	ctx := zl.WithContext(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/sync/pull", nil).WithContext(ctx)

	for name, l := range map[string]*Logger{
		"context": FromContext(ctx),
		"request": FromRequest(req),
	} {
		t.Run(name, func(t *testing.T) {
			buf.Reset()
			l.Info().Msg("scoped")
			assert.Equal(t, "trace-1", decodeEntry(t, buf.Bytes())["trace_id"])
		})
	}

	assert.NotNil(t, FromContext(context.Background()), "a bare context still yields a logger")
}
