package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/innerhue/moodsync/internal/app"
	"github.com/innerhue/moodsync/internal/service"
	"github.com/innerhue/moodsync/internal/store"
	"github.com/innerhue/moodsync/internal/validators"
)

var errorStatusMap = map[error]int{
	service.ErrInvalidDataProvided:     http.StatusBadRequest,
	service.ErrTokenIsExpiredOrInvalid: http.StatusUnauthorized,

	store.ErrRetryable:          http.StatusServiceUnavailable,
	store.ErrDuplicateOperation: http.StatusConflict,

	store.ErrBuildingSQLQuery:     http.StatusInternalServerError,
	store.ErrExecutingQuery:       http.StatusInternalServerError,
	store.ErrBeginningTransaction: http.StatusInternalServerError,
	store.ErrCommitingTransaction: http.StatusInternalServerError,
	store.ErrExecutingStatement:   http.StatusInternalServerError,
	store.ErrScanningRow:          http.StatusInternalServerError,
	store.ErrScanningRows:         http.StatusInternalServerError,

	context.DeadlineExceeded: http.StatusGatewayTimeout,
}

func statusFromError(err error) int {
	if validators.IsValidationError(err) {
		return http.StatusBadRequest
	}
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// messageFromError returns the text put into the error body. Client errors
// carry the cause so that the device can log it; server errors do not.
func messageFromError(err error, fallback string) string {
	switch status := statusFromError(err); {
	case status == http.StatusServiceUnavailable:
		return app.MsgStorageUnavailable
	case status < http.StatusInternalServerError:
		return err.Error()
	}
	return fallback
}
