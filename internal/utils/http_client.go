package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPClient wraps [resty.Client] with the defaults every moodsync client
// shares: a base URL, a per-request timeout and JSON content negotiation.
// Retries are left to the caller, which owns the backoff policy.
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient returns an independent client for baseURL. A non-positive
// timeout leaves resty's default in place.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)

	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &HTTPClient{Client: client}
}
