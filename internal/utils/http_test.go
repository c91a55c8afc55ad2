package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	page := map[string]any{"nextClock": 12, "hasMore": false}

	n, err := WriteJSON(w, page, http.StatusOK)
	require.NoError(t, err)
	assert.Positive(t, n)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"nextClock":12,"hasMore":false}`, w.Body.String())
}

func TestWriteJSON_Unencodable(t *testing.T) {
	w := httptest.NewRecorder()

	_, err := WriteJSON(w, func() {}, http.StatusCreated)
	assert.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	WriteError(w, "operations list cannot be empty", http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "operations list cannot be empty", body.Error)
}

func TestQueryInt64(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    int64
		wantErr bool
	}{
		{name: "missing uses default", query: "", want: 7},
		{name: "value", query: "since=42", want: 42},
		{name: "zero", query: "since=0", want: 0},
		{name: "negative", query: "since=-1", wantErr: true},
		{name: "garbage", query: "since=abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/sync/pull?"+tt.query, nil)
			got, err := QueryInt64(r, "since", 7)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
