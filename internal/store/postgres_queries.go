package store

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/innerhue/moodsync/models"
)

const tableEntryHeads = "entry_heads"

// remote queries use PostgreSQL "$n" placeholders
var postgres = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// advisoryLockQuery serializes writers of one account until the transaction
// ends.
const advisoryLockQuery = "SELECT pg_advisory_xact_lock($1)"

func buildFindRemoteOperationQuery(userID int64, opID string) (string, []any, error) {
	return postgres.Select("body", "server_clock").
		From(tableOperations).
		Where(sq.Eq{"user_id": userID, "op_id": opID}).
		ToSql()
}

func buildFindHeadQuery(userID int64, entryID string) (string, []any, error) {
	return postgres.Select("o.body", "o.server_clock").
		From(tableEntryHeads + " h").
		Join(tableOperations + " o ON o.server_clock = h.server_clock").
		Where(sq.Eq{"h.user_id": userID, "h.entry_id": entryID}).
		ToSql()
}

func buildInsertRemoteOperationQuery(userID int64, op models.Operation, body []byte) (string, []any, error) {
	return postgres.Insert(tableOperations).
		Columns("user_id", "op_id", "entry_id", "device_id", "logical_clock", "version", "body").
		Values(
			userID,
			op.OpID,
			op.EntryID,
			op.OriginDeviceID,
			op.LogicalClock,
			op.Version,
			string(body),
		).
		Suffix("RETURNING server_clock").
		ToSql()
}

func buildUpsertHeadQuery(userID int64, op models.Operation) (string, []any, error) {
	return postgres.Insert(tableEntryHeads).
		Columns("user_id", "entry_id", "version", "server_clock").
		Values(userID, op.EntryID, op.Version, op.RemoteClock).
		Suffix("ON CONFLICT (user_id, entry_id) DO UPDATE SET version = EXCLUDED.version, server_clock = EXCLUDED.server_clock").
		ToSql()
}

func buildListSinceQuery(userID, since int64, limit int) (string, []any, error) {
	q := postgres.Select("body", "server_clock").
		From(tableOperations).
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Gt{"server_clock": since}).
		OrderBy("server_clock")

	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	return q.ToSql()
}

func buildMaxClockQuery(userID int64) (string, []any, error) {
	return postgres.Select("COALESCE(MAX(server_clock), 0)").
		From(tableOperations).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
}
