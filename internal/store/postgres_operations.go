package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"

	"github.com/innerhue/moodsync/internal/logger"
	"github.com/innerhue/moodsync/models"
)

// PostgresOperationRepository is the authoritative remote log on PostgreSQL.
type PostgresOperationRepository struct {
	*DB
}

func NewPostgresOperationRepository(db *DB) *PostgresOperationRepository {
	return &PostgresOperationRepository{DB: db}
}

func (r *PostgresOperationRepository) InTx(ctx context.Context, userID int64, fn func(tx OperationTx) error) error {
	log := logger.FromContext(ctx)

	tx, err := r.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "PostgresOperationRepository.InTx").Msg("failed to begin transaction")
		return r.classify(fmt.Errorf("%w: %w", ErrBeginningTransaction, err))
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, advisoryLockQuery, userID); err != nil {
		log.Err(err).Str("func", "PostgresOperationRepository.InTx").Int64("user_id", userID).Msg("failed to lock account")
		return r.classify(fmt.Errorf("%w: %w", ErrExecutingStatement, err))
	}

	if err := fn(&postgresOperationTx{q: tx, userID: userID, db: r.DB}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Err(err).Str("func", "PostgresOperationRepository.InTx").Msg("failed to commit transaction")
		return r.classify(fmt.Errorf("%w: %w", ErrCommitingTransaction, err))
	}
	return nil
}

func (r *PostgresOperationRepository) ListSince(ctx context.Context, userID int64, since int64, limit int) ([]models.Operation, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildListSinceQuery(userID, since, limit)
	if err != nil {
		log.Err(err).Str("func", "PostgresOperationRepository.ListSince").Msg("error building query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "PostgresOperationRepository.ListSince").Msg("failed to execute query")
		return nil, r.classify(fmt.Errorf("%w: %w", ErrExecutingQuery, err))
	}
	defer rows.Close()

	ops := make([]models.Operation, 0)
	for rows.Next() {
		op, err := scanRemoteOperation(rows)
		if err != nil {
			log.Err(err).Str("func", "PostgresOperationRepository.ListSince").Msg("failed to scan row")
			return nil, err
		}
		ops = append(ops, op)
	}

	if err := rows.Err(); err != nil {
		log.Err(err).Str("func", "PostgresOperationRepository.ListSince").Msg("error occurred during rows iteration")
		return nil, r.classify(fmt.Errorf("%w: %w", ErrScanningRows, err))
	}

	return ops, nil
}

func (r *PostgresOperationRepository) MaxClock(ctx context.Context, userID int64) (int64, error) {
	query, args, err := buildMaxClockQuery(userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var clock int64
	if err := r.QueryRowContext(ctx, query, args...).Scan(&clock); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "PostgresOperationRepository.MaxClock").Msg("failed to scan row")
		return 0, r.classify(fmt.Errorf("%w: %w", ErrScanningRow, err))
	}
	return clock, nil
}

type postgresOperationTx struct {
	q      queryer
	userID int64
	db     *DB
}

func (t *postgresOperationTx) FindOperation(ctx context.Context, opID string) (models.Operation, error) {
	query, args, err := buildFindRemoteOperationQuery(t.userID, opID)
	if err != nil {
		return models.Operation{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return t.findOne(ctx, "postgresOperationTx.FindOperation", query, args)
}

func (t *postgresOperationTx) FindHead(ctx context.Context, entryID string) (models.Operation, error) {
	query, args, err := buildFindHeadQuery(t.userID, entryID)
	if err != nil {
		return models.Operation{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return t.findOne(ctx, "postgresOperationTx.FindHead", query, args)
}

func (t *postgresOperationTx) findOne(ctx context.Context, fn, query string, args []any) (models.Operation, error) {
	op, err := scanRemoteOperation(t.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Operation{}, ErrOperationNotFound
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", fn).Msg("failed to scan row")
		return models.Operation{}, t.db.classify(err)
	}
	return op, nil
}

func (t *postgresOperationTx) InsertOperation(ctx context.Context, op models.Operation) (models.Operation, error) {
	log := logger.FromContext(ctx)

	// the clock column is authoritative
	op.RemoteClock = 0
	body, err := encodeRecord(op)
	if err != nil {
		return models.Operation{}, err
	}

	query, args, err := buildInsertRemoteOperationQuery(t.userID, op, body)
	if err != nil {
		return models.Operation{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if err := t.q.QueryRowContext(ctx, query, args...).Scan(&op.RemoteClock); err != nil {
		if postgresError(err) == pgerrcode.UniqueViolation {
			return models.Operation{}, fmt.Errorf("%w: %s", ErrDuplicateOperation, op.OpID)
		}
		log.Err(err).Str("func", "postgresOperationTx.InsertOperation").Str("op_id", op.OpID).Msg("failed to insert operation")
		return models.Operation{}, t.db.classify(fmt.Errorf("%w: %w", ErrExecutingStatement, err))
	}

	query, args, err = buildUpsertHeadQuery(t.userID, op)
	if err != nil {
		return models.Operation{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err := t.q.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", "postgresOperationTx.InsertOperation").Str("entry_id", op.EntryID).Msg("failed to move entry head")
		return models.Operation{}, t.db.classify(fmt.Errorf("%w: %w", ErrExecutingStatement, err))
	}

	return op, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRemoteOperation(row rowScanner) (models.Operation, error) {
	var (
		body  []byte
		clock int64
	)
	if err := row.Scan(&body, &clock); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Operation{}, err
		}
		return models.Operation{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	var op models.Operation
	if err := decodeRecord(body, &op); err != nil {
		return models.Operation{}, err
	}
	op.RemoteClock = clock
	return op, nil
}
