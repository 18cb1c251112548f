package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/usercache/internal/entry"
	"github.com/roach88/usercache/internal/querysql"
)

// Append inserts an entry into the live table and returns its row id.
//
// The entry's metadata is stored as given; callers that want "now" must set
// WriteTs themselves (the cache does this from its clock). The key is
// NFC-normalized. A payload that is not valid JSON fails with a
// serialization error and nothing is written.
func (s *Store) Append(ctx context.Context, e entry.Entry) (int64, error) {
	id, err := s.insert(ctx, querysql.Table, e)
	if err != nil {
		return 0, fmt.Errorf("append entry: %w", err)
	}
	return id, nil
}

// AppendError inserts a row into the error table.
// The payload is stored verbatim, even when it is not valid JSON. A row that
// is already recorded (same key, type, write_ts and payload) is not inserted
// again; its existing id is returned.
func (s *Store) AppendError(ctx context.Context, e entry.Entry) (int64, error) {
	var existing int64
	err := s.q.QueryRowContext(ctx, `
		SELECT id FROM usercache_error
		WHERE key = ? AND type = ? AND write_ts = ? AND data = ?
		ORDER BY id LIMIT 1
	`, entry.NormalizeKey(e.Key), string(e.Type), e.WriteTs, string(e.Payload)).Scan(&existing)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("append error entry: lookup: %w", err)
	}

	id, err := s.insert(ctx, ErrorTable, e)
	if err != nil {
		return 0, fmt.Errorf("append error entry: %w", err)
	}
	return id, nil
}

func (s *Store) insert(ctx context.Context, table string, e entry.Entry) (int64, error) {
	if !e.Type.Valid() {
		return 0, fmt.Errorf("unknown entry type %q", e.Type)
	}
	key := entry.NormalizeKey(e.Key)
	if key == "" {
		return 0, fmt.Errorf("entry key is required")
	}
	if table == querysql.Table && !json.Valid(e.Payload) {
		return 0, entry.NewSerializationError(key, fmt.Errorf("payload is not valid JSON"))
	}

	result, err := s.q.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s
		(write_ts, read_ts, timezone, type, key, plugin, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, table),
		e.WriteTs,
		e.ReadTs,
		e.TimeZone,
		string(e.Type),
		key,
		e.Plugin,
		string(e.Payload),
	)
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// UpdateReadTimestamp sets read_ts on every entry stored under key.
// This is the only in-place mutation the store supports.
// Returns the number of rows touched.
func (s *Store) UpdateReadTimestamp(ctx context.Context, key string, ts float64) (int64, error) {
	result, err := s.q.ExecContext(ctx, `
		UPDATE usercache SET read_ts = ? WHERE key = ?
	`, ts, entry.NormalizeKey(key))
	if err != nil {
		return 0, fmt.Errorf("update read timestamp: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update read timestamp: rows affected: %w", err)
	}
	return n, nil
}
