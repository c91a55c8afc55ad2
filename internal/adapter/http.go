package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"

	"github.com/innerhue/moodsync/internal/config"
	"github.com/innerhue/moodsync/internal/logger"
	"github.com/innerhue/moodsync/internal/utils"
	"github.com/innerhue/moodsync/models"
)

const (
	pathPush   = "/api/sync/push"
	pathPull   = "/api/sync/pull"
	pathEvents = "/api/sync/events"
)

type httpRemoteStore struct {
	client *utils.HTTPClient

	mu    sync.RWMutex
	token string

	logger *logger.Logger
}

// NewHTTPRemoteStore constructs the HTTP/REST implementation of
// [RemoteStore]. It normalizes the base URL from adapterCfg.HTTPAddress and
// seeds the bearer token from appCfg.Token.
//
// Returns an error if adapterCfg.HTTPAddress is empty or cannot be parsed as
// a URL with a host.
func NewHTTPRemoteStore(adapterCfg config.ClientAdapter, appCfg config.ClientApp, logger *logger.Logger) (RemoteStore, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	store := &httpRemoteStore{
		client: utils.NewHTTPClient(baseURL, adapterCfg.RequestTimeout),
		logger: logger,
	}
	store.SetToken(appCfg.Token)

	return store, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyAddress
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", ErrInvalidAddress
	}

	return strings.TrimRight(u.String(), "/"), nil
}

func (h *httpRemoteStore) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

func (h *httpRemoteStore) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// PushOperations implements [RemoteStore] with POST /api/sync/push.
func (h *httpRemoteStore) PushOperations(ctx context.Context, req models.PushRequest) (models.PushResult, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(pathPush)
	if err != nil {
		return models.PushResult{}, mapTransportError(ctx, "push request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		h.logger.Debug().
			Str("func", "httpRemoteStore.PushOperations").
			Int("status", resp.StatusCode()).
			Int("batch_size", len(req.Operations)).
			Err(err).
			Msg("push refused")
		return models.PushResult{}, err
	}

	var result models.PushResult
	if err = decodeBody(resp, &result); err != nil {
		return models.PushResult{}, err
	}

	return result, nil
}

// PullOperations implements [RemoteStore] with GET /api/sync/pull.
func (h *httpRemoteStore) PullOperations(ctx context.Context, sinceClock int64, limit int) (models.PullResult, error) {
	req := h.authedRequest(ctx).
		SetQueryParam("since", strconv.FormatInt(sinceClock, 10))
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}

	resp, err := req.Get(pathPull)
	if err != nil {
		return models.PullResult{}, mapTransportError(ctx, "pull request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.PullResult{}, err
	}

	var result models.PullResult
	if err = decodeBody(resp, &result); err != nil {
		return models.PullResult{}, err
	}

	return result, nil
}

func (h *httpRemoteStore) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

// decodeBody unmarshals a 2xx body. A body that cannot be decoded came from
// something other than a healthy server, so it is retried like a 5xx.
func decodeBody(resp *resty.Response, v any) error {
	if err := json.Unmarshal(resp.Body(), v); err != nil {
		return &TransientNetworkError{
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("%w: %w", ErrMalformedBody, err),
		}
	}
	return nil
}
