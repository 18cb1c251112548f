package store

import (
	"context"
	"fmt"

	"github.com/roach88/usercache/internal/entry"
	"github.com/roach88/usercache/internal/queryir"
	"github.com/roach88/usercache/internal/querysql"
)

// ErrorTable holds rows whose payload failed to parse during export.
const ErrorTable = "usercache_error"

// Scan returns the entries matched by q, ordered by write_ts in q's
// direction with id as the tiebreaker.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) Scan(ctx context.Context, q queryir.Select) ([]entry.Entry, error) {
	return s.scan(ctx, s.compiler, q)
}

// First returns the first entry matched by q, or false if there is none.
func (s *Store) First(ctx context.Context, q queryir.Select) (entry.Entry, bool, error) {
	q.Limit = 1
	entries, err := s.Scan(ctx, q)
	if err != nil {
		return entry.Entry{}, false, err
	}
	if len(entries) == 0 {
		return entry.Entry{}, false, nil
	}
	return entries[0], true, nil
}

// ReadErrors returns every row of the error table, oldest first.
func (s *Store) ReadErrors(ctx context.Context) ([]entry.Entry, error) {
	return s.scan(ctx, &querysql.SQLCompiler{Table: ErrorTable}, queryir.Select{Order: queryir.Ascending})
}

func (s *Store) scan(ctx context.Context, c *querysql.SQLCompiler, q queryir.Select) ([]entry.Entry, error) {
	query, params, err := c.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	rows, err := s.q.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("scan: query: %w", err)
	}
	defer rows.Close()

	entries := []entry.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan: iterate: %w", err)
	}

	return entries, nil
}

// LatestDocumentTimestamps returns, per key, the greatest write_ts of any
// Document entry. Keys with no Document are absent from the map.
//
// This is the obsolescence index: an RwDocument older than its key's value
// here has been superseded.
func (s *Store) LatestDocumentTimestamps(ctx context.Context) (map[string]float64, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT key, MAX(write_ts) FROM usercache
		WHERE type = ?
		GROUP BY key
		ORDER BY key COLLATE BINARY ASC
	`, string(entry.Document))
	if err != nil {
		return nil, fmt.Errorf("latest document timestamps: %w", err)
	}
	defer rows.Close()

	latest := make(map[string]float64)
	for rows.Next() {
		var key string
		var ts float64
		if err := rows.Scan(&key, &ts); err != nil {
			return nil, fmt.Errorf("latest document timestamps: scan: %w", err)
		}
		latest[key] = ts
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("latest document timestamps: iterate: %w", err)
	}
	return latest, nil
}

// Count returns the number of live entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM usercache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// CountByType returns the number of live entries per type.
// Types with no entries are reported as zero.
func (s *Store) CountByType(ctx context.Context) (map[entry.Type]int64, error) {
	counts := make(map[entry.Type]int64, len(entry.AllTypes))
	for _, t := range entry.AllTypes {
		counts[t] = 0
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT type, COUNT(*) FROM usercache GROUP BY type ORDER BY type COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("count by type: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var typ string
		var n int64
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("count by type: scan: %w", err)
		}
		counts[entry.Type(typ)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count by type: iterate: %w", err)
	}
	return counts, nil
}
