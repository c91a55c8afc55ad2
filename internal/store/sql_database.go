package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/innerhue/moodsync/internal/logger"
)

// ErrorClassificator decides whether a database error is worth retrying.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}

type DB struct {
	*sql.DB
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// classify wraps err with ErrRetryable when the classifier says the failed
// call may succeed on retry.
func (db *DB) classify(err error) error {
	if err == nil || db.errorClassificator == nil {
		return err
	}
	if db.errorClassificator.Classify(err) == Retryable {
		return fmt.Errorf("%w: %w", ErrRetryable, err)
	}
	return err
}

// queryer is the part of *sql.DB and *sql.Tx the repositories use, so that
// one set of methods serves reads outside and inside a transaction.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
