package http

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/innerhue/moodsync/internal/app"
	"github.com/innerhue/moodsync/internal/config"
	"github.com/innerhue/moodsync/internal/logger"
	"github.com/innerhue/moodsync/internal/mock"
	"github.com/innerhue/moodsync/internal/service"
	"github.com/innerhue/moodsync/internal/store"
	"github.com/innerhue/moodsync/internal/utils"
	"github.com/innerhue/moodsync/internal/validators"
	"github.com/innerhue/moodsync/models"
)

const (
	testUserID = int64(7)
	testToken  = "valid-token"
)

type testHandler struct {
	router http.Handler
	sync   *mock.MockRemoteSyncService
	tokens *mock.MockTokenService
}

func newTestHandler(t *testing.T) *testHandler {
	t.Helper()

	ctrl := gomock.NewController(t)
	syncService := mock.NewMockRemoteSyncService(ctrl)
	tokens := mock.NewMockTokenService(ctrl)

	tokens.EXPECT().ParseToken(gomock.Any(), testToken).Return(models.Token{UserID: testUserID}, nil).AnyTimes()
	tokens.EXPECT().ParseToken(gomock.Any(), gomock.Not(testToken)).Return(models.Token{}, service.ErrTokenIsExpiredOrInvalid).AnyTimes()

	services := &service.Services{
		RemoteSyncService: syncService,
		TokenService:      tokens,
		AppInfoService:    service.NewAppInfoService(config.App{Version: "v1.2.3"}),
	}

	return &testHandler{
		router: NewHandler(services, logger.Nop()).Init(),
		sync:   syncService,
		tokens: tokens,
	}
}

func (h *testHandler) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func authorized(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+testToken)
	return req
}

func decodeError(t *testing.T, body io.Reader) string {
	t.Helper()
	var resp utils.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp.Error
}

func TestHandler_Health(t *testing.T) {
	h := newTestHandler(t)

	rec := h.do(httptest.NewRequest(http.MethodGet, pathHealth, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(traceIDHeader))
}

func TestHandler_Version(t *testing.T) {
	h := newTestHandler(t)

	rec := h.do(httptest.NewRequest(http.MethodGet, pathVersion, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v1.2.3", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}

func TestHandler_TraceIDIsEchoed(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, pathHealth, nil)
	req.Header.Set(traceIDHeader, "trace-42")
	rec := h.do(req)

	assert.Equal(t, "trace-42", rec.Header().Get(traceIDHeader))
}

func TestHandler_Auth(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		wantMsg string
	}{
		{name: "missing header", header: "", wantMsg: ErrEmptyAuthorizationHeader.Error()},
		{name: "not a bearer token", header: "Basic dXNlcjpwYXNz", wantMsg: utils.ErrInvalidAuthorization.Error()},
		{name: "invalid token", header: "Bearer forged", wantMsg: app.MsgTokenIsExpiredOrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t)

			req := httptest.NewRequest(http.MethodGet, pathPull, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := h.do(req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.wantMsg, decodeError(t, rec.Body))
		})
	}
}

func TestHandler_UnsupportedMethodIsNotFound(t *testing.T) {
	h := newTestHandler(t)

	rec := h.do(authorized(httptest.NewRequest(http.MethodDelete, pathPush, nil)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(httptest.NewRequest(http.MethodPost, pathHealth, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Push(t *testing.T) {
	h := newTestHandler(t)

	op := models.Operation{
		OpID:           uuid.NewString(),
		EntryID:        uuid.NewString(),
		Kind:           models.OperationCreate,
		Payload:        &models.MoodPayload{Emotion: "calm"},
		OriginDeviceID: "device-a",
		LogicalClock:   1,
		WallClock:      time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
		Version:        1,
	}
	req := models.PushRequest{DeviceID: "device-a", Operations: []models.Operation{op}}
	want := models.PushResult{Accepted: []string{op.OpID}, Conflicts: []models.PushConflict{}}

	h.sync.EXPECT().Push(gomock.Any(), testUserID, req).Return(want, nil)

	body, err := json.Marshal(req)
	require.NoError(t, err)
	rec := h.do(authorized(httptest.NewRequest(http.MethodPost, pathPush, bytes.NewReader(body))))

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.PushResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, want, got)
}

func TestHandler_Push_MalformedBody(t *testing.T) {
	h := newTestHandler(t)

	rec := h.do(authorized(httptest.NewRequest(http.MethodPost, pathPush, strings.NewReader("{not json"))))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, app.MsgInvalidDataProvided, decodeError(t, rec.Body))
}

func TestHandler_Push_ErrorStatus(t *testing.T) {
	validation := &validators.ValidationError{Field: validators.FieldOperations, Err: validators.ErrEmptyOperations}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{name: "validation", err: validation, wantStatus: http.StatusBadRequest, wantMsg: validation.Error()},
		{name: "storage busy", err: fmt.Errorf("insert: %w", store.ErrRetryable), wantStatus: http.StatusServiceUnavailable, wantMsg: app.MsgStorageUnavailable},
		{name: "sql failure", err: fmt.Errorf("%w: boom", store.ErrExecutingStatement), wantStatus: http.StatusInternalServerError, wantMsg: app.MsgPushFailed},
		{name: "unknown", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantMsg: app.MsgPushFailed},
		{name: "timeout", err: context.DeadlineExceeded, wantStatus: http.StatusGatewayTimeout, wantMsg: app.MsgPushFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t)
			h.sync.EXPECT().Push(gomock.Any(), testUserID, gomock.Any()).Return(models.PushResult{}, tt.err)

			rec := h.do(authorized(httptest.NewRequest(http.MethodPost, pathPush, strings.NewReader(`{"device_id":"device-a"}`))))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, decodeError(t, rec.Body))
		})
	}
}

func TestHandler_Pull(t *testing.T) {
	h := newTestHandler(t)

	want := models.PullResult{Operations: []models.Operation{}, NextClock: 12, HasMore: true}
	h.sync.EXPECT().Pull(gomock.Any(), testUserID, int64(10), 2).Return(want, nil)

	rec := h.do(authorized(httptest.NewRequest(http.MethodGet, pathPull+"?since=10&limit=2", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.PullResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, want, got)
}

func TestHandler_Pull_InvalidQuery(t *testing.T) {
	for _, query := range []string{"?since=abc", "?since=-1", "?limit=x"} {
		t.Run(query, func(t *testing.T) {
			h := newTestHandler(t)

			rec := h.do(authorized(httptest.NewRequest(http.MethodGet, pathPull+query, nil)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, app.MsgInvalidQuery, decodeError(t, rec.Body))
		})
	}
}

func TestHandler_Pull_ServiceError(t *testing.T) {
	h := newTestHandler(t)
	h.sync.EXPECT().Pull(gomock.Any(), testUserID, int64(0), 0).Return(models.PullResult{}, service.ErrInvalidDataProvided)

	rec := h.do(authorized(httptest.NewRequest(http.MethodGet, pathPull, nil)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Pull_Gzip(t *testing.T) {
	h := newTestHandler(t)

	want := models.PullResult{Operations: []models.Operation{}, NextClock: 3}
	h.sync.EXPECT().Pull(gomock.Any(), testUserID, int64(0), 0).Return(want, nil)

	req := authorized(httptest.NewRequest(http.MethodGet, pathPull, nil))
	req.Header.Set("Accept-Encoding", "gzip")
	rec := h.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	reader, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	var got models.PullResult
	require.NoError(t, json.NewDecoder(reader).Decode(&got))
	assert.Equal(t, want, got)
}

func TestHandler_Push_GzipBody(t *testing.T) {
	h := newTestHandler(t)

	h.sync.EXPECT().Push(gomock.Any(), testUserID, models.PushRequest{DeviceID: "device-a"}).
		Return(models.PushResult{}, nil)

	var body bytes.Buffer
	zw := gzip.NewWriter(&body)
	_, err := zw.Write([]byte(`{"device_id":"device-a"}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	req := authorized(httptest.NewRequest(http.MethodPost, pathPush, &body))
	req.Header.Set("Content-Encoding", "gzip")
	rec := h.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
}

func TestHandler_Events(t *testing.T) {
	h := newTestHandler(t)

	feed := make(chan models.RemoteEvent, 1)
	cancelled := make(chan struct{})
	h.sync.EXPECT().Subscribe(testUserID, eventsBuffer).
		Return((<-chan models.RemoteEvent)(feed), func() { close(cancelled) })

	srv := httptest.NewServer(h.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+testToken)
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+pathEvents, &websocket.DialOptions{HTTPHeader: header})
	require.NoError(t, err)

	feed <- models.RemoteEvent{Type: models.RemoteEventOperations, Clock: 9}

	var event models.RemoteEvent
	require.NoError(t, wsjson.Read(ctx, conn, &event))
	assert.Equal(t, models.RemoteEvent{Type: models.RemoteEventOperations, Clock: 9}, event)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))

	select {
	case <-cancelled:
	case <-ctx.Done():
		t.Fatal("subscription was not cancelled after disconnect")
	}
}

func TestHandler_Events_Unauthorized(t *testing.T) {
	h := newTestHandler(t)

	srv := httptest.NewServer(h.router)
	defer srv.Close()

	_, resp, err := websocket.Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http")+pathEvents, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
