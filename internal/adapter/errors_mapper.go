package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/innerhue/moodsync/internal/utils"
)

var statusErrors = map[int]error{
	http.StatusBadRequest:          ErrBadRequest,
	http.StatusUnauthorized:        ErrUnauthorized,
	http.StatusForbidden:           ErrForbidden,
	http.StatusNotFound:            ErrNotFound,
	http.StatusConflict:            ErrConflict,
	http.StatusRequestTimeout:      ErrRequestTimeout,
	http.StatusTooManyRequests:     ErrTooManyRequests,
	http.StatusInternalServerError: ErrInternalServerError,
	http.StatusBadGateway:          ErrBadGateway,
	http.StatusServiceUnavailable:  ErrServiceUnavailable,
}

func mapHTTPError(resp *resty.Response) error {
	code := resp.StatusCode()
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}

	sentinel, ok := statusErrors[code]
	if !ok {
		sentinel = ErrUnexpectedStatus
	}
	err := fmt.Errorf("%w: %s", sentinel, extractMessage(resp))

	if isTransientStatus(code) {
		return &TransientNetworkError{StatusCode: code, Err: err}
	}
	return err
}

// mapTransportError classifies a request that produced no response.
// Cancellation by the caller is passed through untouched.
func mapTransportError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &TransientNetworkError{Err: fmt.Errorf("%s: %w", op, err)}
}

func isTransientStatus(code int) bool {
	return code >= http.StatusInternalServerError ||
		code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests
}

// extractMessage prefers the "error" field of a JSON error body and falls
// back to the raw text or the status text.
func extractMessage(resp *resty.Response) string {
	body := strings.TrimSpace(string(resp.Body()))

	var errResp utils.ErrorResponse
	if json.Unmarshal([]byte(body), &errResp) == nil && errResp.Error != "" {
		return errResp.Error
	}
	if body == "" {
		return http.StatusText(resp.StatusCode())
	}
	return body
}
