package store

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorClassification tells whether a failed statement may be retried.
type ErrorClassification int

const (
	// NonRetryable is the classification of every error not known to be
	// transient.
	NonRetryable ErrorClassification = iota

	// Retryable marks failures that a device push or pull can simply resend:
	// the remote log deduplicates by op id.
	Retryable
)

// PostgresErrorClassifier implements [ErrorClassificator] for errors
// returned by the pgx driver.
type PostgresErrorClassifier struct{}

func NewPostgresErrorClassifier() *PostgresErrorClassifier {
	return &PostgresErrorClassifier{}
}

// Classify unwraps a *pgconn.PgError from err. Errors that did not come
// from the server are NonRetryable.
func (c *PostgresErrorClassifier) Classify(err error) ErrorClassification {
	var pgErr *pgconn.PgError
	if err == nil || !errors.As(err, &pgErr) {
		return NonRetryable
	}
	return ClassifyPgError(pgErr)
}

// ClassifyPgError classifies by SQLSTATE. Connection loss (class 08),
// transaction rollbacks such as serialization failures and deadlocks
// (class 40), exhausted resources (class 53) and operator intervention like
// an admin shutdown (class 57) are retryable, as is a lock timeout (55P03).
// Constraint violations, data exceptions and syntax errors are not.
func ClassifyPgError(pgErr *pgconn.PgError) ErrorClassification {
	code := pgErr.Code

	switch {
	case pgerrcode.IsConnectionException(code),
		pgerrcode.IsTransactionRollback(code),
		pgerrcode.IsInsufficientResources(code),
		pgerrcode.IsOperatorIntervention(code),
		code == pgerrcode.LockNotAvailable:
		return Retryable
	}

	return NonRetryable
}
