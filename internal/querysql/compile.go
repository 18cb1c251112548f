package querysql

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/usercache/internal/queryir"
)

// Table is the live entry table.
const Table = "usercache"

// Columns is the column list every Select returns, in scan order.
const Columns = "id, write_ts, read_ts, timezone, type, key, plugin, data"

// SQLCompiler compiles QueryIR to parameterized SQL for SQLite.
//
// All values are parameterized, never interpolated. Field names are checked
// against the known column set by queryir.Validate before they reach SQL.
// Every Select carries an ORDER BY on write_ts with id as the tiebreaker, so
// entries written in the same instant still come back in insertion order.
type SQLCompiler struct {
	// Table overrides the target table (defaults to Table).
	Table string
}

// NewSQLCompiler creates a compiler targeting the live entry table.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{Table: Table}
}

// Compile converts a query to SQL.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}
	if err := queryir.Validate(q); err != nil {
		return "", nil, fmt.Errorf("invalid query: %w", err)
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	case queryir.Delete:
		return c.compileDelete(query)
	case *queryir.Delete:
		return c.compileDelete(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) table() string {
	if c.Table == "" {
		return Table
	}
	return c.Table
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	var whereClause string
	var params []any
	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		whereClause = " WHERE " + filterSQL
		params = filterParams
	}

	dir := q.Order.String()
	orderByClause := fmt.Sprintf(" ORDER BY write_ts %s, id %s", dir, dir)

	var limitClause string
	if q.Limit > 0 {
		limitClause = " LIMIT ?"
		params = append(params, q.Limit)
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s%s%s",
		Columns,
		c.table(),
		whereClause,
		orderByClause,
		limitClause)

	return sql, params, nil
}

func (c *SQLCompiler) compileDelete(q queryir.Delete) (string, []any, error) {
	filterSQL, params, err := c.compilePredicate(q.Filter)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}
	return fmt.Sprintf("DELETE FROM %s WHERE %s", c.table(), filterSQL), params, nil
}

// compilePredicate compiles a predicate to a WHERE clause fragment.
// Values are never interpolated - always ? placeholders.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	if p == nil {
		return "1 = 1", nil, nil
	}

	switch pred := p.(type) {
	case queryir.Compare:
		return fmt.Sprintf("%s %s ?", pred.Field, pred.Op), []any{toParam(pred.Value)}, nil
	case *queryir.Compare:
		return c.compilePredicate(*pred)
	case queryir.In:
		return c.compileIn(pred)
	case *queryir.In:
		return c.compileIn(*pred)
	case queryir.Like:
		return fmt.Sprintf("%s LIKE ?", pred.Field), []any{pred.Pattern}, nil
	case *queryir.Like:
		return c.compilePredicate(*pred)
	case queryir.LatestOfType:
		return c.compileLatest(pred)
	case *queryir.LatestOfType:
		return c.compileLatest(*pred)
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	case queryir.Not:
		sql, params, err := c.compilePredicate(pred.Predicate)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + sql + ")", params, nil
	case *queryir.Not:
		return c.compilePredicate(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileIn(in queryir.In) (string, []any, error) {
	if len(in.Values) == 0 {
		return "0 = 1", nil, nil
	}
	marks := make([]string, len(in.Values))
	params := make([]any, len(in.Values))
	for i, v := range in.Values {
		marks[i] = "?"
		params[i] = toParam(v)
	}
	return fmt.Sprintf("%s IN (%s)", in.Field, strings.Join(marks, ", ")), params, nil
}

// compileLatest uses a correlated subquery, so the parameter count stays
// fixed however many keys the table holds.
func (c *SQLCompiler) compileLatest(l queryir.LatestOfType) (string, []any, error) {
	t := c.table()
	sql := fmt.Sprintf("(type = ? AND id = (SELECT latest.id FROM %s latest"+
		" WHERE latest.key = %s.key AND latest.type = ?"+
		" ORDER BY latest.write_ts DESC, latest.id DESC LIMIT 1))", t, t)
	typ := toParam(l.Type)
	return sql, []any{typ, typ}, nil
}

func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	var sqlParts []string
	var allParams []any

	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		if _, nested := pred.(queryir.And); nested {
			sql = "(" + sql + ")"
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}

	return strings.Join(sqlParts, " AND "), allParams, nil
}

// toParam lowers named string and float types (entry.Type, entry.TimeField)
// to their base kinds so the driver accepts them.
func toParam(v any) any {
	switch val := v.(type) {
	case nil, string, float64, int64, int, bool, []byte:
		return val
	case fmt.Stringer:
		return val.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	default:
		return v
	}
}
