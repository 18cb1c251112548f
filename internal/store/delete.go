package store

import (
	"context"
	"fmt"

	"github.com/roach88/usercache/internal/queryir"
)

// DeleteWhere removes the live entries matched by q and returns how many
// rows were deleted.
func (s *Store) DeleteWhere(ctx context.Context, q queryir.Delete) (int64, error) {
	query, params, err := s.compiler.Compile(q)
	if err != nil {
		return 0, fmt.Errorf("delete: %w", err)
	}

	result, err := s.q.ExecContext(ctx, query, params...)
	if err != nil {
		return 0, fmt.Errorf("delete: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete: rows affected: %w", err)
	}
	return n, nil
}

// DeleteAll removes every live entry. The error table is left alone.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	result, err := s.q.ExecContext(ctx, `DELETE FROM usercache`)
	if err != nil {
		return 0, fmt.Errorf("delete all: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete all: rows affected: %w", err)
	}
	return n, nil
}
