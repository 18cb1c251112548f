package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/usercache/internal/entry"
	"github.com/roach88/usercache/internal/queryir"
)

func TestCompile_SelectNoFilter(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(queryir.Select{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT "+Columns+" FROM usercache ORDER BY write_ts DESC, id DESC", sql)
	assert.Empty(t, params)
}

func TestCompile_SelectInterval(t *testing.T) {
	q := queryir.Select{
		Filter: queryir.AllOf(
			queryir.Eq(queryir.FieldKey, "background/location"),
			queryir.Eq(queryir.FieldType, entry.SensorData),
			queryir.Between(string(entry.WriteTs), 10, 20, false),
		),
	}

	sql, params, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT "+Columns+" FROM usercache WHERE key = ? AND type = ? AND (write_ts >= ? AND write_ts <= ?) ORDER BY write_ts DESC, id DESC",
		sql)
	assert.Equal(t, []any{"background/location", "sensor-data", 10.0, 20.0}, params)
}

func TestCompile_SelectAscendingWithLimit(t *testing.T) {
	q := queryir.Select{
		Filter: queryir.In{Field: queryir.FieldType, Values: []any{entry.Message, entry.RwDocument}},
		Order:  queryir.Ascending,
		Limit:  10000,
	}

	sql, params, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT "+Columns+" FROM usercache WHERE type IN (?, ?) ORDER BY write_ts ASC, id ASC LIMIT ?",
		sql)
	assert.Equal(t, []any{"message", "rw-document", 10000}, params)
}

func TestCompile_EmptyInMatchesNothing(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(queryir.Select{Filter: queryir.In{Field: queryir.FieldKey}})
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE 0 = 1")
	assert.Empty(t, params)
}

func TestCompile_Like(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(queryir.Select{
		Filter: queryir.Like{Field: queryir.FieldData, Pattern: `%"transition":"stop"%`},
		Limit:  1,
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE data LIKE ?")
	assert.Equal(t, []any{`%"transition":"stop"%`, 1}, params)
}

func TestCompile_Delete(t *testing.T) {
	q := queryir.Delete{Filter: queryir.AllOf(
		queryir.Between(queryir.FieldWriteTs, 0, 100, true),
		queryir.Ne(queryir.FieldType, entry.RwDocument),
	)}

	sql, params, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM usercache WHERE (write_ts > ? AND write_ts < ?) AND type != ?", sql)
	assert.Equal(t, []any{0.0, 100.0, "rw-document"}, params)
}

func TestCompile_Not(t *testing.T) {
	q := queryir.Delete{Filter: queryir.AllOf(
		queryir.Ne(queryir.FieldType, entry.RwDocument),
		queryir.Not{Predicate: queryir.In{Field: queryir.FieldID, Values: []any{int64(4), int64(9)}}},
	)}

	sql, params, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM usercache WHERE type != ? AND NOT (id IN (?, ?))", sql)
	assert.Equal(t, []any{"rw-document", int64(4), int64(9)}, params)

	sql, _, err = NewSQLCompiler().Compile(queryir.Delete{Filter: queryir.Not{Predicate: queryir.In{Field: queryir.FieldID}}})
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM usercache WHERE NOT (0 = 1)", sql)
}

func TestCompile_LatestOfType(t *testing.T) {
	q := queryir.Delete{Filter: queryir.AllOf(
		queryir.Ne(queryir.FieldType, entry.RwDocument),
		queryir.Not{Predicate: queryir.LatestOfType{Type: entry.Document}},
	)}

	sql, params, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.Equal(t,
		"DELETE FROM usercache WHERE type != ? AND NOT ((type = ? AND id = (SELECT latest.id FROM usercache latest"+
			" WHERE latest.key = usercache.key AND latest.type = ? ORDER BY latest.write_ts DESC, latest.id DESC LIMIT 1)))",
		sql)
	assert.Equal(t, []any{"rw-document", "document", "document"}, params)
}

func TestCompile_CustomTable(t *testing.T) {
	c := &SQLCompiler{Table: "usercache_error"}
	sql, _, err := c.Compile(&queryir.Select{})
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM usercache_error")
}

func TestCompile_Rejects(t *testing.T) {
	c := NewSQLCompiler()

	_, _, err := c.Compile(nil)
	assert.Error(t, err)

	_, _, err = c.Compile(queryir.Delete{})
	assert.Error(t, err, "unfiltered delete must go through DeleteAll")

	_, _, err = c.Compile(queryir.Select{Filter: queryir.Eq("1=1 OR key", "x")})
	assert.Error(t, err)
}

func TestToParam(t *testing.T) {
	assert.Equal(t, "document", toParam(entry.Document))
	assert.Equal(t, "write_ts", toParam(entry.WriteTs))
	assert.Equal(t, 1.5, toParam(1.5))
	assert.Nil(t, toParam(nil))
}
