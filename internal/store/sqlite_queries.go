package store

import (
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/innerhue/moodsync/models"
)

const (
	tableEntries    = "entries"
	tableOperations = "operations"
	tableCursors    = "cursors"
	tableSuperseded = "superseded"
	tableMeta       = "meta"
)

// local queries use SQLite "?" placeholders
var sqlite = sq.StatementBuilder.PlaceholderFormat(sq.Question)

func buildGetEntryQuery(entryID string) (string, []any, error) {
	return sqlite.Select("body").
		From(tableEntries).
		Where(sq.Eq{"id": entryID}).
		ToSql()
}

func buildListEntriesQuery(filter models.EntryFilter) (string, []any, error) {
	q := sqlite.Select("body").From(tableEntries)

	if !filter.IncludeDeleted {
		q = q.Where(sq.Eq{"deleted_at": nil})
	}
	if filter.Category != "" {
		q = q.Where(sq.Eq{"category": filter.Category})
	}
	if filter.Emotion != "" {
		q = q.Where(sq.Eq{"emotion": filter.Emotion})
	}
	if filter.Since != nil {
		q = q.Where(sq.GtOrEq{"updated_at": unixMilli(*filter.Since)})
	}

	q = q.OrderBy("created_at", "id")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	return q.ToSql()
}

func buildUpsertEntryQuery(entry models.MoodEntry, body []byte) (string, []any, error) {
	var deletedAt any
	if entry.DeletedAt != nil {
		deletedAt = unixMilli(*entry.DeletedAt)
	}

	return sqlite.Replace(tableEntries).
		Columns("id", "emotion", "category", "created_at", "updated_at", "deleted_at", "version", "body").
		Values(
			entry.ID,
			entry.Emotion,
			entry.Category,
			unixMilli(entry.CreatedAt),
			unixMilli(entry.UpdatedAt),
			deletedAt,
			entry.Version,
			string(body),
		).
		ToSql()
}

func buildGetOperationQuery(opID string) (string, []any, error) {
	return sqlite.Select("body").
		From(tableOperations).
		Where(sq.Eq{"op_id": opID}).
		ToSql()
}

func buildListOperationsQuery(query OperationQuery) (string, []any, error) {
	q := sqlite.Select("body").From(tableOperations)

	if query.EntryID != "" {
		q = q.Where(sq.Eq{"entry_id": query.EntryID})
	}
	if query.PendingOnly {
		q = q.Where(sq.Eq{"pending": 1})
	}
	if query.AfterClock > 0 {
		q = q.Where(sq.Gt{"logical_clock": query.AfterClock})
	}

	q = q.OrderBy("logical_clock", "device_id", "op_id")
	if query.Limit > 0 {
		q = q.Limit(uint64(query.Limit))
	}

	return q.ToSql()
}

func buildCountPendingQuery() (string, []any, error) {
	return sqlite.Select("COUNT(*)").
		From(tableOperations).
		Where(sq.Eq{"pending": 1}).
		ToSql()
}

func buildUpsertOperationQuery(op models.JournaledOperation, body []byte) (string, []any, error) {
	pending := 0
	if op.Pending {
		pending = 1
	}
	var ackedAt any
	if op.AckedAt != nil {
		ackedAt = unixMilli(*op.AckedAt)
	}

	return sqlite.Replace(tableOperations).
		Columns("op_id", "entry_id", "device_id", "logical_clock", "pending", "journaled_at", "acked_at", "body").
		Values(
			op.OpID,
			op.EntryID,
			op.OriginDeviceID,
			op.LogicalClock,
			pending,
			unixMilli(op.JournaledAt),
			ackedAt,
			string(body),
		).
		ToSql()
}

func buildPruneOperationsQuery(ackedBefore time.Time) (string, []any, error) {
	return sqlite.Delete(tableOperations).
		Where(sq.Eq{"pending": 0}).
		Where(sq.NotEq{"acked_at": nil}).
		Where(sq.Lt{"acked_at": unixMilli(ackedBefore)}).
		ToSql()
}

func buildGetCursorQuery(deviceID string) (string, []any, error) {
	return sqlite.Select("body").
		From(tableCursors).
		Where(sq.Eq{"device_id": deviceID}).
		ToSql()
}

func buildUpsertCursorQuery(deviceID string, body []byte) (string, []any, error) {
	return sqlite.Replace(tableCursors).
		Columns("device_id", "body").
		Values(deviceID, string(body)).
		ToSql()
}

func buildGetSupersededQuery(opID string) (string, []any, error) {
	return sqlite.Select("body").
		From(tableSuperseded).
		Where(sq.Eq{"op_id": opID}).
		ToSql()
}

func buildListSupersededQuery(entryID string) (string, []any, error) {
	q := sqlite.Select("body").From(tableSuperseded)
	if entryID != "" {
		q = q.Where(sq.Eq{"entry_id": entryID})
	}
	return q.OrderBy("superseded_at", "op_id").ToSql()
}

func buildUpsertSupersededQuery(record models.SupersededRecord, body []byte) (string, []any, error) {
	return sqlite.Replace(tableSuperseded).
		Columns("op_id", "entry_id", "superseded_at", "body").
		Values(record.OpID, record.EntryID, unixMilli(record.SupersededAt), string(body)).
		ToSql()
}

func buildGetMetaQuery(key string) (string, []any, error) {
	return sqlite.Select("value").
		From(tableMeta).
		Where(sq.Eq{"key": key}).
		ToSql()
}

func buildUpsertMetaQuery(key, value string) (string, []any, error) {
	return sqlite.Replace(tableMeta).
		Columns("key", "value").
		Values(key, value).
		ToSql()
}
